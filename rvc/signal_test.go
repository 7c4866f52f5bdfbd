package rvc_test

import (
	"testing"

	"github.com/carpenike/rv-nixpi/rvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dimmerStatusSpec() rvc.MessageSpec {
	return rvc.MessageSpec{
		Name: "DC_DIMMER_STATUS_1",
		Signals: []rvc.SignalSpec{
			{Name: "instance", StartBit: 0, Length: 8},
			{Name: "operating_status", StartBit: 16, Length: 8},
		},
	}
}

func TestDecodeMessage_dimmerStatus(t *testing.T) {
	payload := []byte{0x21, 0xFF, 0xC8, 0xFC, 0x00, 0xFF, 0xFF, 0xFF}

	decoded := rvc.DecodeMessage(dimmerStatusSpec(), payload)
	require.Len(t, decoded, 2)

	instance, ok := decoded.ByName("instance")
	require.True(t, ok)
	assert.EqualValues(t, 0x21, instance.Raw)

	status, ok := decoded.ByName("operating_status")
	require.True(t, ok)
	assert.EqualValues(t, 200, status.Raw)
}

func TestDecodeMessage_isDeterministic(t *testing.T) {
	spec := dimmerStatusSpec()
	payload := []byte{0x21, 0xFF, 0xC8, 0xFC, 0x00, 0xFF, 0xFF, 0xFF}

	first := rvc.DecodeMessage(spec, payload)
	second := rvc.DecodeMessage(spec, payload)

	assert.Equal(t, first, second)
}

func TestFormatSignal_enumHit(t *testing.T) {
	spec := rvc.MessageSpec{Signals: []rvc.SignalSpec{
		{Name: "mode", StartBit: 0, Length: 8, Enum: map[string]string{"1": "AUTO", "2": "MANUAL"}},
	}}
	decoded := rvc.DecodeMessage(spec, []byte{1, 0, 0, 0, 0, 0, 0, 0})
	v, ok := decoded.ByName("mode")
	require.True(t, ok)
	assert.Equal(t, "AUTO", v.Formatted)
}

func TestFormatSignal_enumMiss(t *testing.T) {
	spec := rvc.MessageSpec{Signals: []rvc.SignalSpec{
		{Name: "mode", StartBit: 0, Length: 8, Enum: map[string]string{"1": "AUTO"}},
	}}
	decoded := rvc.DecodeMessage(spec, []byte{9, 0, 0, 0, 0, 0, 0, 0})
	v, ok := decoded.ByName("mode")
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN (9)", v.Formatted)
}

func TestFormatSignal_scaledFixedPoint(t *testing.T) {
	spec := rvc.MessageSpec{Signals: []rvc.SignalSpec{
		{Name: "voltage", StartBit: 0, Length: 16, Scale: 0.05, Unit: "V"},
	}}
	// raw = 2460 -> 2460*0.05 = 123.00
	decoded := rvc.DecodeMessage(spec, []byte{0x9C, 0x09, 0, 0, 0, 0, 0, 0})
	v, ok := decoded.ByName("voltage")
	require.True(t, ok)
	assert.Equal(t, "123.00V", v.Formatted)
}

func TestFormatSignal_plainInteger(t *testing.T) {
	spec := rvc.MessageSpec{Signals: []rvc.SignalSpec{
		{Name: "instance", StartBit: 0, Length: 8, Unit: ""},
	}}
	decoded := rvc.DecodeMessage(spec, []byte{33, 0, 0, 0, 0, 0, 0, 0})
	v, ok := decoded.ByName("instance")
	require.True(t, ok)
	assert.Equal(t, "33", v.Formatted)
}

func TestSignalSpec_ValidateRejectsOverflow(t *testing.T) {
	s := rvc.SignalSpec{Name: "bad", StartBit: 60, Length: 8}
	require.Error(t, s.Validate())
}
