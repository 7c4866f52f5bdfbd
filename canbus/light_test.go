package canbus_test

import (
	"testing"

	"github.com/carpenike/rv-nixpi/canbus"
	"github.com/stretchr/testify/assert"
)

func TestBuildLightFrame_onCommandTo50Percent(t *testing.T) {
	f := canbus.BuildLightFrame("can1", 0x1FED9, 0x21, 50)

	assert.Equal(t, "can1", f.Interface)
	assert.Equal(t, uint32(0x19FED9F9), f.Header.CanID())
	assert.Equal(t, uint8(8), f.Length)
	assert.Equal(t, [8]byte{0x21, 0x7C, 0x64, 0x00, 0x00, 0xFF, 0xFF, 0xFF}, f.Data)
}

func TestBuildLightFrame_offCommandIsLevelZero(t *testing.T) {
	f := canbus.BuildLightFrame("can1", 0x1FED9, 0x21, 0)
	assert.Equal(t, byte(0), f.Data[2])
}

func TestBuildLightFrame_levelClampedToMax(t *testing.T) {
	f := canbus.BuildLightFrame("can1", 0x1FED9, 0x01, 100)
	assert.Equal(t, byte(0xC8), f.Data[2])
}
