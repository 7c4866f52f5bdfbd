package rvc

import (
	"fmt"
	"strconv"
)

// SignalSpec is one field within a MessageSpec.
type SignalSpec struct {
	Name     string            `json:"name"`
	StartBit uint8             `json:"start_bit"`
	Length   uint8             `json:"length"`
	Scale    float64           `json:"scale"`
	Offset   float64           `json:"offset"`
	Unit     string            `json:"unit"`
	Enum     map[string]string `json:"enum,omitempty"`
}

// Validate checks the start_bit+length invariant from spec.md §3.
func (s SignalSpec) Validate() error {
	if int(s.StartBit)+int(s.Length) > 64 {
		return fmt.Errorf("signal %q: start_bit(%d)+length(%d) exceeds 64 bits", s.Name, s.StartBit, s.Length)
	}
	if s.Length == 0 {
		return fmt.Errorf("signal %q: length must be at least 1 bit", s.Name)
	}
	return nil
}

// scaleOrDefault returns 1 when Scale was left unset (zero value) in the spec
// document, matching the "default 1" rule from spec.md §3.
func (s SignalSpec) scaleOrDefault() float64 {
	if s.Scale == 0 {
		return 1
	}
	return s.Scale
}

// DecodedSignal carries one signal's raw and formatted value. Signals are
// kept as an ordered slice rather than a map so the TUI can render them in
// declaration order (see SPEC_FULL.md §5.1).
type DecodedSignal struct {
	Name      string
	Raw       uint64
	Formatted string
}

// DecodedSignals is the ordered result of decoding one message's payload.
type DecodedSignals []DecodedSignal

// ByName finds a decoded signal by name, as the Interface Reader does to
// check for an `instance` field.
func (ds DecodedSignals) ByName(name string) (DecodedSignal, bool) {
	for _, d := range ds {
		if d.Name == name {
			return d, true
		}
	}
	return DecodedSignal{}, false
}

// DecodeMessage applies spec.md §4.2's per-signal formatting rules to an
// 8-byte payload, in signal declaration order.
func DecodeMessage(spec MessageSpec, payload []byte) DecodedSignals {
	out := make(DecodedSignals, 0, len(spec.Signals))
	for _, sig := range spec.Signals {
		raw := ExtractBits(payload, sig.StartBit, sig.Length)
		out = append(out, DecodedSignal{
			Name:      sig.Name,
			Raw:       raw,
			Formatted: formatSignal(sig, raw),
		})
	}
	return out
}

func formatSignal(sig SignalSpec, raw uint64) string {
	scale := sig.scaleOrDefault()
	scaled := float64(raw)*scale + sig.Offset

	if sig.Enum != nil {
		if label, ok := sig.Enum[strconv.FormatUint(raw, 10)]; ok {
			return label
		}
		return fmt.Sprintf("UNKNOWN (%d)", raw)
	}

	isIntegral := scaled == float64(int64(scaled))
	if scale != 1 || sig.Offset != 0 || !isIntegral {
		return fmt.Sprintf("%.2f%s", scaled, sig.Unit)
	}
	return fmt.Sprintf("%d%s", int64(scaled), sig.Unit)
}
