package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/carpenike/rv-nixpi/canbus"
	"github.com/carpenike/rv-nixpi/engine"
	"github.com/carpenike/rv-nixpi/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBus records every frame written to it, standing in for a real
// *canbus.Socket so the command sender is testable without hardware.
type fakeBus struct {
	frames []canbus.Frame
	failAt int // 1-indexed send number to fail, 0 means never fail
}

func (b *fakeBus) WriteFrame(f canbus.Frame) error {
	b.frames = append(b.frames, f)
	if b.failAt != 0 && len(b.frames) == b.failAt {
		return errors.New("fake bus write failure")
	}
	return nil
}

func kitchenLightSetup(t *testing.T) (*engine.Store, *mapping.Tables) {
	t.Helper()
	tables := dimmerMapping(t)
	store := engine.NewStore()
	store.PreCreateLight(mustEntity(t, tables, "light.kitchen"))
	return store, tables
}

func TestCommandSender_unknownEntity(t *testing.T) {
	store, tables := kitchenLightSetup(t)
	sender := engine.NewCommandSender(store, tables)

	_, err := sender.Send(engine.Command{EntityID: "light.nope", Action: engine.ActionToggle})
	assert.ErrorIs(t, err, engine.ErrUnknownEntity)
}

func TestCommandSender_busNotActiveIsReported(t *testing.T) {
	store, tables := kitchenLightSetup(t)
	sender := engine.NewCommandSender(store, tables)

	_, err := sender.Send(engine.Command{EntityID: "light.kitchen", Action: engine.ActionToggle})
	assert.ErrorIs(t, err, engine.ErrBusNotActive)
}

func TestCommandSender_setExactBrightness(t *testing.T) {
	store, tables := kitchenLightSetup(t)
	bus := &fakeBus{}
	store.RegisterBus("can0", bus)
	sender := engine.NewCommandSender(store, tables)

	result, err := sender.Send(engine.Command{EntityID: "light.kitchen", Action: engine.ActionSetExactBrightness, Percent: 50})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	require.Len(t, bus.frames, 2)
	assert.Equal(t, uint32(0x19FED9F9), bus.frames[0].Header.CanID(), "command targets the command DGN 0x1FED9, not the status DGN")
	assert.Equal(t, [8]byte{0x21, 0x7C, 0x64, 0x00, 0x00, 0xFF, 0xFF, 0xFF}, bus.frames[0].Data)

	st, ok := store.Light("light.kitchen")
	require.True(t, ok)
	assert.Equal(t, "ON", st.State())
	assert.Equal(t, 50, st.Brightness())
}

func TestCommandSender_toggleRoundTrip(t *testing.T) {
	store, tables := kitchenLightSetup(t)
	bus := &fakeBus{}
	store.RegisterBus("can0", bus)
	sender := engine.NewCommandSender(store, tables)

	// Seed the light as ON, brightness=70 (as if a status frame had arrived).
	store.ApplyOptimisticCommand("light.kitchen", 70, 0, time.Now())

	// Toggle OFF: captures 70 as prev_brightness, sends level 0.
	result, err := sender.Send(engine.Command{EntityID: "light.kitchen", Action: engine.ActionToggle})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, byte(0), bus.frames[len(bus.frames)-1].Data[2])

	st, ok := store.Light("light.kitchen")
	require.True(t, ok)
	assert.Equal(t, "OFF", st.State())
	assert.Equal(t, 0, st.Brightness())
	assert.Equal(t, 70, st.PrevBrightness)

	// Toggle ON again: restores prev_brightness (70), command level = 140.
	result, err = sender.Send(engine.Command{EntityID: "light.kitchen", Action: engine.ActionToggle})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, byte(140), bus.frames[len(bus.frames)-1].Data[2])

	st, ok = store.Light("light.kitchen")
	require.True(t, ok)
	assert.Equal(t, "ON", st.State())
	assert.Equal(t, 70, st.Brightness())
}

func TestCommandSender_stepBrightnessClamps(t *testing.T) {
	cases := []struct {
		name    string
		current int
		delta   int
		want    int
	}{
		{"95 plus 10 clamps to 100", 95, 10, 100},
		{"100 plus 10 stays at 100", 100, 10, 100},
		{"5 minus 10 clamps to 0", 5, -10, 0},
		{"0 minus 10 stays at 0", 0, -10, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, tables := kitchenLightSetup(t)
			bus := &fakeBus{}
			store.RegisterBus("can0", bus)
			sender := engine.NewCommandSender(store, tables)

			store.ApplyOptimisticCommand("light.kitchen", tc.current, 0, time.Now())

			_, err := sender.Send(engine.Command{EntityID: "light.kitchen", Action: engine.ActionStepBrightness, Delta: tc.delta})
			require.NoError(t, err)

			st, ok := store.Light("light.kitchen")
			require.True(t, ok)
			assert.Equal(t, tc.want, st.Brightness())
		})
	}
}

func TestCommandSender_firstSendFailureReportsZeroOfTwo(t *testing.T) {
	store, tables := kitchenLightSetup(t)
	bus := &fakeBus{failAt: 1}
	store.RegisterBus("can0", bus)
	sender := engine.NewCommandSender(store, tables)

	result, err := sender.Send(engine.Command{EntityID: "light.kitchen", Action: engine.ActionSetExactBrightness, Percent: 50})
	require.Error(t, err)
	assert.Equal(t, 0, result.Sent)
}

func TestCommandSender_secondSendFailureReportsOneOfTwo(t *testing.T) {
	store, tables := kitchenLightSetup(t)
	bus := &fakeBus{failAt: 2}
	store.RegisterBus("can0", bus)
	sender := engine.NewCommandSender(store, tables)

	result, err := sender.Send(engine.Command{EntityID: "light.kitchen", Action: engine.ActionSetExactBrightness, Percent: 50})
	require.Error(t, err)
	assert.Equal(t, 1, result.Sent)
}

func TestResult_stringFormatting(t *testing.T) {
	assert.Equal(t, "2/2", engine.Result{Sent: 2}.String())
	assert.Equal(t, "1/2", engine.Result{Sent: 1}.String())
	assert.Equal(t, "0/2", engine.Result{}.String())
}
