package rvc_test

import (
	"os"
	"testing"
	"testing/fstest"

	"github.com/carpenike/rv-nixpi/logging"
	"github.com/carpenike/rv-nixpi/rvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(os.Stderr)
}

func TestLoadRegistry_decimalAndHexID(t *testing.T) {
	fsys := fstest.MapFS{
		"rvc.json": &fstest.MapFile{Data: []byte(`{
			"messages": [
				{"id": 436132505, "name": "DC_DIMMER_STATUS_1", "signals": [
					{"name": "instance", "start_bit": 0, "length": 8},
					{"name": "operating_status", "start_bit": 16, "length": 8}
				]},
				{"id": "0x1FED9", "name": "DC_DIMMER_COMMAND_2", "signals": []}
			]
		}`)},
	}

	reg, err := rvc.LoadRegistry(fsys, "rvc.json", testLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	spec, ok := reg.Lookup(0x19FEDA99)
	require.True(t, ok)
	assert.Equal(t, "DC_DIMMER_STATUS_1", spec.Name)
	assert.Equal(t, "1FEDA", spec.DGNHex)

	spec2, ok := reg.Lookup(0x1FED9)
	require.True(t, ok)
	assert.Equal(t, "DC_DIMMER_COMMAND_2", spec2.Name)
}

func TestLoadRegistry_duplicateIDIsFatal(t *testing.T) {
	fsys := fstest.MapFS{
		"rvc.json": &fstest.MapFile{Data: []byte(`{
			"messages": [
				{"id": 100, "name": "A", "signals": []},
				{"id": 100, "name": "B", "signals": []}
			]
		}`)},
	}

	_, err := rvc.LoadRegistry(fsys, "rvc.json", testLogger())
	require.Error(t, err)
}

func TestLoadRegistry_badEntrySkippedWithWarning(t *testing.T) {
	fsys := fstest.MapFS{
		"rvc.json": &fstest.MapFile{Data: []byte(`{
			"messages": [
				{"id": "not-a-number", "name": "BAD", "signals": []},
				{"id": 200, "name": "GOOD", "signals": []}
			]
		}`)},
	}

	reg, err := rvc.LoadRegistry(fsys, "rvc.json", testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	_, ok := reg.Lookup(200)
	assert.True(t, ok)
}

func TestLoadRegistry_missingFileIsFatal(t *testing.T) {
	fsys := fstest.MapFS{}
	_, err := rvc.LoadRegistry(fsys, "missing.json", testLogger())
	require.Error(t, err)
}

func TestMessageSpec_IsUserVisible(t *testing.T) {
	assert.True(t, rvc.MessageSpec{Name: "DC_DIMMER_STATUS_1"}.IsUserVisible())
	assert.False(t, rvc.MessageSpec{Name: "UNKNOWN_61184"}.IsUserVisible())
}
