package rvc_test

import (
	"testing"

	"github.com/carpenike/rv-nixpi/rvc"
	"github.com/stretchr/testify/assert"
)

func TestExtractBits(t *testing.T) {
	testCases := []struct {
		name     string
		payload  []byte
		startBit uint8
		length   uint8
		expected uint64
	}{
		{
			name:     "full 64 bit little-endian integer",
			payload:  []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
			startBit: 0,
			length:   64,
			expected: 0x0807060504030201,
		},
		{
			name:     "single byte at offset 0",
			payload:  []byte{0x21, 0xFF, 0xC8, 0xFC, 0x00, 0xFF, 0xFF, 0xFF},
			startBit: 0,
			length:   8,
			expected: 0x21,
		},
		{
			name:     "operating_status byte from dimmer status frame",
			payload:  []byte{0x21, 0xFF, 0xC8, 0xFC, 0x00, 0xFF, 0xFF, 0xFF},
			startBit: 16,
			length:   8,
			expected: 200,
		},
		{
			name:     "payload shorter than 8 bytes is zero extended",
			payload:  []byte{0xFF},
			startBit: 8,
			length:   8,
			expected: 0,
		},
		{
			name:     "bitfield spanning a byte boundary",
			payload:  []byte{0b10000000, 0b00000001, 0, 0, 0, 0, 0, 0},
			startBit: 7,
			length:   2,
			expected: 0b11,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := rvc.ExtractBits(tc.payload, tc.startBit, tc.length)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestExtractBits_rangeInvariant(t *testing.T) {
	payload := []byte{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0}
	for startBit := uint8(0); startBit < 64; startBit++ {
		maxLen := 64 - startBit
		for length := uint8(1); length < maxLen && length < 64; length++ {
			got := rvc.ExtractBits(payload, startBit, length)
			limit := uint64(1) << length
			assert.Lessf(t, got, limit, "startBit=%d length=%d", startBit, length)
		}
	}
}
