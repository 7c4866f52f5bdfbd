package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/carpenike/rv-nixpi/canbus"
	"github.com/carpenike/rv-nixpi/logging"
	"github.com/carpenike/rv-nixpi/mapping"
	"github.com/carpenike/rv-nixpi/rvc"
)

const (
	readTimeout       = 1 * time.Second
	canErrorBackoff   = 5 * time.Second
	otherErrorBackoff = 1 * time.Second
)

// Reader is one concurrent task bound to a single CAN interface (spec.md
// §4.5). It decodes incoming frames against the registry, upserts raw
// records, and correlates status frames into light state via the mapping
// tables.
type Reader struct {
	Interface string
	Registry  *rvc.Registry
	Mapping   *mapping.Tables
	Store     *Store
	Logger    *logging.Logger
}

// Run opens the interface and blocks, decoding frames until ctx is
// cancelled. It never returns an error on a clean cancellation; open
// failures are logged and the function returns without registering a bus
// handle, matching spec.md §4.5 step 1.
func (r *Reader) Run(ctx context.Context) error {
	sock, err := canbus.Open(r.Interface)
	if err != nil {
		r.Logger.Errorf("reader %s: could not open interface: %v", r.Interface, err)
		return nil
	}
	if err := sock.SetReadTimeout(readTimeout); err != nil {
		r.Logger.Errorf("reader %s: could not set read timeout: %v", r.Interface, err)
		return nil
	}

	r.Store.RegisterBus(r.Interface, sock)
	defer func() {
		r.Store.UnregisterBus(r.Interface)
		_ = sock.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		frame, err := sock.ReadFrame()
		if err != nil {
			if canbus.IsTimeout(err) {
				continue
			}
			r.Logger.Errorf("reader %s: recv error: %v", r.Interface, err)
			if !sleepOrDone(ctx, canErrorBackoff) {
				return nil
			}
			continue
		}

		if err := r.HandleFrame(frame); err != nil {
			r.Logger.Errorf("reader %s: %v", r.Interface, err)
			if !sleepOrDone(ctx, otherErrorBackoff) {
				return nil
			}
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// HandleFrame decodes one frame, upserts its raw record, and correlates
// it into light state if it resolves to a known entity. Exported so tests
// can drive the reader's decode path without a real socket.
func (r *Reader) HandleFrame(frame canbus.Frame) error {
	spec, ok := r.Registry.Lookup(frame.Header.CanID())
	if !ok || !spec.IsUserVisible() {
		return nil
	}

	decoded := rvc.DecodeMessage(spec, frame.Data[:frame.Length])

	rawID := fmt.Sprintf("%08X", frame.Header.CanID())
	rawData := fmt.Sprintf("% X", frame.Data[:frame.Length])
	r.Store.UpsertRaw(r.Interface, spec, rawID, rawData, decoded, frame.Time)

	instanceVal, ok := decoded.ByName("instance")
	if !ok {
		return nil
	}
	instance := fmt.Sprintf("%d", instanceVal.Raw)

	entry, ok := r.Mapping.ResolveStatus(spec.DGNHex, instance)
	if !ok || entry.DeviceType != mapping.DeviceTypeLight {
		return nil
	}

	rawValues := make(map[string]uint64, len(decoded))
	decodedStrings := make(map[string]string, len(decoded))
	for _, sig := range decoded {
		rawValues[sig.Name] = sig.Raw
		decodedStrings[sig.Name] = sig.Formatted
	}
	applyOperatingStatusOverride(rawValues, decodedStrings)

	r.Store.UpsertLight(entry.EntityID, r.Interface, rawValues, decodedStrings, frame.Time)
	return nil
}

// applyOperatingStatusOverride implements spec.md §4.2's post-decode rule:
// operating_status (0..200, half-percent steps) drives brightness/state for
// RV-C light status messages instead of any separately-decoded boolean.
func applyOperatingStatusOverride(raw map[string]uint64, decoded map[string]string) {
	status, ok := raw["operating_status"]
	if !ok {
		return
	}
	brightness := status / 2
	state := "OFF"
	if status > 0 {
		state = "ON"
	}
	decoded["brightness"] = fmt.Sprintf("%d", brightness)
	decoded["state"] = state
}
