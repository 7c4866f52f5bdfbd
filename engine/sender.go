package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/carpenike/rv-nixpi/canbus"
	"github.com/carpenike/rv-nixpi/mapping"
)

// sendGap is the inter-send delay for the double-send transmit discipline
// (spec.md §4.6).
const sendGap = 50 * time.Millisecond

// Action is a light command requested by the TUI.
type Action int

const (
	ActionToggle Action = iota
	ActionStepBrightness
	ActionSetExactBrightness
)

// Command describes one light action to send (spec.md §4.6).
type Command struct {
	EntityID string
	Action   Action
	Delta    int // for ActionStepBrightness
	Percent  int // for ActionSetExactBrightness
}

// Result reports how many of the two transmits succeeded.
type Result struct {
	Sent int // 0, 1, or 2
}

// String renders "2/2", "1/2" or "0/2" per spec.md §4.6.
func (r Result) String() string {
	return fmt.Sprintf("%d/2", r.Sent)
}

var (
	// ErrUnknownEntity is returned for an entity_id with no mapping entry.
	ErrUnknownEntity = errors.New("engine: unknown entity")
	// ErrNotALight is returned for an entity that is not a light.
	ErrNotALight = errors.New("engine: entity has no light command info")
	// ErrNoInterface is returned when the light's mapping has no target
	// interface configured.
	ErrNoInterface = errors.New("engine: no target interface configured")
	// ErrBusNotActive is returned when the target interface has no
	// registered bus handle.
	ErrBusNotActive = errors.New("engine: target bus is not active")
)

// CommandSender builds and transmits light commands, optimistically
// updating Store state after the first successful send.
type CommandSender struct {
	Store   *Store
	Mapping *mapping.Tables
	Now     func() time.Time
}

// NewCommandSender creates a CommandSender using the wall clock.
func NewCommandSender(store *Store, tables *mapping.Tables) *CommandSender {
	return &CommandSender{Store: store, Mapping: tables, Now: time.Now}
}

// Send resolves cmd against the current light state and mapping tables,
// computes the target percent per spec.md §4.6's action semantics, and
// transmits the resulting frame twice with a short gap.
func (s *CommandSender) Send(cmd Command) (Result, error) {
	entry, ok := s.Mapping.Entity(cmd.EntityID)
	if !ok {
		return Result{}, ErrUnknownEntity
	}
	info, ok := s.Mapping.LightCommand(cmd.EntityID)
	if !ok {
		return Result{}, ErrNotALight
	}
	if entry.Interface == "" {
		return Result{}, ErrNoInterface
	}
	sock, ok := s.Store.Bus(entry.Interface)
	if !ok {
		return Result{}, ErrBusNotActive
	}

	current, _ := s.Store.Light(cmd.EntityID)
	percent := resolveTargetPercent(cmd, current)

	toggledOffFrom := 0
	if cmd.Action == ActionToggle && percent == 0 && current.State() == "ON" {
		toggledOffFrom = current.Brightness()
	}

	frame := canbus.BuildLightFrame(entry.Interface, info.DGN, uint8(info.Instance), percent)

	result := Result{}
	if err := sock.WriteFrame(frame); err != nil {
		return result, fmt.Errorf("engine: first send to %s failed: %w", entry.Interface, err)
	}
	result.Sent = 1
	s.Store.ApplyOptimisticCommand(cmd.EntityID, percent, toggledOffFrom, s.Now())

	time.Sleep(sendGap)

	if err := sock.WriteFrame(frame); err != nil {
		return result, fmt.Errorf("engine: second send to %s failed: %w", entry.Interface, err)
	}
	result.Sent = 2
	return result, nil
}

// resolveTargetPercent implements the Toggle/StepBrightness/
// SetExactBrightness semantics of spec.md §4.6.
func resolveTargetPercent(cmd Command, current LightState) int {
	switch cmd.Action {
	case ActionToggle:
		if current.State() == "ON" {
			return 0
		}
		if current.PrevBrightness > 0 {
			return current.PrevBrightness
		}
		return 100
	case ActionStepBrightness:
		return clamp(current.Brightness()+cmd.Delta, 0, 100)
	case ActionSetExactBrightness:
		return clamp(cmd.Percent, 0, 100)
	default:
		return current.Brightness()
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
