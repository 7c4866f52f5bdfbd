package canbus_test

import (
	"testing"

	"github.com/carpenike/rv-nixpi/canbus"
	"github.com/stretchr/testify/assert"
)

func TestParseCanID_pdu2Broadcast(t *testing.T) {
	h := canbus.ParseCanID(0x19FEDA99)
	assert.Equal(t, uint8(6), h.Priority)
	assert.Equal(t, uint32(0x1FEDA), h.DGN)
	assert.Equal(t, uint8(0x99), h.Source)
	assert.Equal(t, uint8(canbus.AddressGlobal), h.Destination)
}

func TestHeader_canIDRoundTrip_pdu2(t *testing.T) {
	h := canbus.Header{Priority: 6, DGN: 0x1FEDA, Source: 0x99}
	assert.Equal(t, uint32(0x19FEDA99), h.CanID())
}

func TestHeader_canIDRoundTrip_pdu1(t *testing.T) {
	// PDU1 DGN (PF < 0xF0), destination-addressed.
	h := canbus.Header{Priority: 3, DGN: 0xEF00, Source: 0x80, Destination: 0x17}
	id := h.CanID()
	parsed := canbus.ParseCanID(id)
	assert.Equal(t, h, parsed)
}
