package rvc

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/carpenike/rv-nixpi/logging"
)

// MessageSpec is one RV-C message definition, keyed by its 29-bit
// arbitration id at Registry load time.
type MessageSpec struct {
	ID      uint32       `json:"-"`
	RawID   idLiteral    `json:"id"`
	Name    string       `json:"name"`
	Signals []SignalSpec `json:"signals"`

	// DGNHex is derived: upper-hex of (id >> 8) & 0x3FFFF, an 18-bit PGN
	// including the Data Page bit. Computed once at load time.
	DGNHex string `json:"-"`
}

// idLiteral accepts a message id given either as a JSON integer or as a hex
// string (with or without a leading "0x"), matching the source document
// convention described in spec.md §3.
type idLiteral string

// UnmarshalJSON custom unmarshalling function for idLiteral, mirroring the
// teacher's FieldType/PacketType pattern in canboat/canboatpgns.go.
func (v *idLiteral) UnmarshalJSON(b []byte) error {
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		b = b[1 : len(b)-1]
	}
	*v = idLiteral(b)
	return nil
}

func (v idLiteral) String() string {
	return string(v)
}

// document is the top-level shape of the RV-C spec JSON file.
type document struct {
	Messages []MessageSpec `json:"messages"`
}

// Registry holds every loaded MessageSpec, keyed by 29-bit arbitration id,
// with insertion order preserved for deterministic iteration (e.g. the Raw
// tab's spec pretty-print).
type Registry struct {
	byID  map[uint32]MessageSpec
	order []uint32
}

// LoadRegistry reads the RV-C message spec document from filesystem at path.
// A missing or unreadable/malformed file is fatal (returns an error); bad
// individual entries are skipped with a warning logged through logger.
func LoadRegistry(filesystem fs.FS, path string, logger *logging.Logger) (*Registry, error) {
	f, err := filesystem.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rvc: could not open spec file %q: %w", path, err)
	}
	defer f.Close()

	var doc document
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("rvc: could not parse spec file %q: %w", path, err)
	}

	reg := &Registry{
		byID:  make(map[uint32]MessageSpec, len(doc.Messages)),
		order: make([]uint32, 0, len(doc.Messages)),
	}

	for _, entry := range doc.Messages {
		id, err := parseID(entry.RawID)
		if err != nil {
			logger.Warnf("rvc: skipping spec entry %q with invalid id: %v", entry.Name, err)
			continue
		}
		if _, exists := reg.byID[id]; exists {
			return nil, fmt.Errorf("rvc: duplicate message id 0x%X (name %q)", id, entry.Name)
		}

		for _, sig := range entry.Signals {
			if err := sig.Validate(); err != nil {
				logger.Warnf("rvc: message %q: %v", entry.Name, err)
			}
		}

		entry.ID = id
		entry.DGNHex = dgnHex(id)
		reg.byID[id] = entry
		reg.order = append(reg.order, id)
	}

	return reg, nil
}

// dgnHex computes the upper-hex 18-bit PGN (DP+PF+PS) for an arbitration id,
// per spec.md §3/§6: (id >> 8) & 0x3FFFF.
func dgnHex(id uint32) string {
	return strings.ToUpper(strconv.FormatUint(uint64((id>>8)&0x3FFFF), 16))
}

func parseID(raw idLiteral) (uint32, error) {
	s := raw.String()
	if s == "" {
		return 0, fmt.Errorf("missing id")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		return uint32(v), err
	}
	// A json.Number may have arrived as a decimal integer literal, or (when
	// the source document quoted it) as a bare hex string without a 0x
	// prefix; try decimal first since that is the common case.
	if v, err := strconv.ParseUint(s, 10, 32); err == nil {
		return uint32(v), nil
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("unparseable id %q", s)
	}
	return uint32(v), nil
}

// Lookup returns the MessageSpec registered for a 29-bit arbitration id.
func (r *Registry) Lookup(id uint32) (MessageSpec, bool) {
	spec, ok := r.byID[id]
	return spec, ok
}

// IsUserVisible reports whether a message should appear in raw views: it
// must have a name that does not begin with "UNKNOWN" (spec.md §3).
func (m MessageSpec) IsUserVisible() bool {
	return !strings.HasPrefix(m.Name, "UNKNOWN")
}

// Len returns the number of loaded messages.
func (r *Registry) Len() int {
	return len(r.order)
}

// All returns every MessageSpec in insertion order.
func (r *Registry) All() []MessageSpec {
	out := make([]MessageSpec, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}
