// Package mapping loads the device mapping document and builds the
// immutable lookup tables the engine uses to correlate decoded frames with
// user-facing entities (spec.md §3, §4.4).
package mapping

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/carpenike/rv-nixpi/logging"
	"gopkg.in/yaml.v3"
)

// DefaultInstance is the sentinel instance key used when a DGN's entries
// apply to every instance rather than one specific device.
const DefaultInstance = "default"

// DeviceTypeLight is the only currently actionable device_type.
const DeviceTypeLight = "light"

// CapabilityBrightness marks a light entity as dimmable.
const CapabilityBrightness = "brightness"

// Entry is one device configuration after template merge (spec.md §3
// MappingEntry).
type Entry struct {
	EntityID      string   `yaml:"entity_id"`
	FriendlyName  string   `yaml:"friendly_name"`
	SuggestedArea string   `yaml:"suggested_area,omitempty"`
	DeviceType    string   `yaml:"device_type,omitempty"`
	StatusDGN     string   `yaml:"status_dgn,omitempty"`
	Interface     string   `yaml:"interface,omitempty"`
	Capabilities  []string `yaml:"capabilities,omitempty"`
	Template      string   `yaml:"template,omitempty"`
}

// HasCapability reports whether the entry declares the named capability.
func (e Entry) HasCapability(name string) bool {
	for _, c := range e.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

// LightCommandInfo is the command descriptor for one light entity (spec.md
// §3).
type LightCommandInfo struct {
	DGN       uint32
	Instance  int
	Interface string
}

// key is a (DGN hex, instance string) lookup key.
type key struct {
	dgnHex   string
	instance string
}

// Tables holds the three immutable lookups plus the light command info
// populated once at load time. There is no runtime mutation, so (unlike
// addressmapper.AddressMapper, which guards mutable node state with a
// mutex) no lock is needed here.
type Tables struct {
	definitionLookup map[key]Entry
	statusLookup     map[key]Entry
	entityLookup     map[string]Entry
	lightCommands    map[string]LightCommandInfo
	lightEntityIDs   map[string]struct{}
}

// LoadTables reads the device mapping document from path. A missing file
// yields empty, usable Tables (spec.md §7: non-fatal for mapping); malformed
// YAML or an unreadable file is also treated as non-fatal, producing empty
// Tables with a logged warning, so the Lights/Raw tabs still function.
func LoadTables(filesystem fs.FS, path string, logger *logging.Logger) *Tables {
	t := &Tables{
		definitionLookup: map[key]Entry{},
		statusLookup:     map[key]Entry{},
		entityLookup:     map[string]Entry{},
		lightCommands:    map[string]LightCommandInfo{},
		lightEntityIDs:   map[string]struct{}{},
	}

	f, err := filesystem.Open(path)
	if err != nil {
		logger.Warnf("mapping: could not open device mapping %q: %v (continuing with empty mapping)", path, err)
		return t
	}
	defer f.Close()

	var doc map[string]map[string][]rawEntry
	var templates map[string]rawEntry

	// Two-pass parse: first pull out "templates" (if present) and keep it
	// out of the main per-DGN walk, mirroring the original's
	// `templates = raw_mapping.get('templates', {})`.
	var top map[string]yaml.Node
	if err := yamlDecode(f, &top); err != nil {
		logger.Warnf("mapping: malformed device mapping %q: %v (continuing with empty mapping)", path, err)
		return t
	}

	if tmplNode, ok := top["templates"]; ok {
		if err := tmplNode.Decode(&templates); err != nil {
			logger.Warnf("mapping: malformed templates section: %v", err)
		}
	}

	doc = map[string]map[string][]rawEntry{}
	for dgnHex, node := range top {
		if dgnHex == "templates" {
			continue
		}
		var instances map[string][]rawEntry
		if err := node.Decode(&instances); err != nil {
			logger.Warnf("mapping: DGN %q: expected instance map, got something else: %v", dgnHex, err)
			continue
		}
		doc[strings.ToUpper(dgnHex)] = instances
	}

	for dgnHex, instances := range doc {
		for instanceStr, entries := range instances {
			for _, raw := range entries {
				entry, ok := mergeTemplate(raw, templates)
				if !ok {
					logger.Warnf("mapping: DGN %s instance %s: unknown template %q, skipping entry", dgnHex, instanceStr, raw.Template)
					continue
				}
				if entry.EntityID == "" || entry.FriendlyName == "" {
					logger.Warnf("mapping: DGN %s instance %s: entry missing entity_id/friendly_name, discarding", dgnHex, instanceStr)
					continue
				}

				t.definitionLookup[key{dgnHex, instanceStr}] = entry

				statusDGN := strings.ToUpper(entry.StatusDGN)
				if statusDGN == "" {
					statusDGN = dgnHex
				}
				t.statusLookup[key{statusDGN, instanceStr}] = entry

				if _, exists := t.entityLookup[entry.EntityID]; !exists {
					t.entityLookup[entry.EntityID] = entry
				}

				if entry.DeviceType == DeviceTypeLight {
					t.lightEntityIDs[entry.EntityID] = struct{}{}
					instance, err := strconv.Atoi(instanceStr)
					if err != nil {
						logger.Warnf("mapping: light %q has non-numeric instance %q, skipping command info", entry.EntityID, instanceStr)
						continue
					}
					dgn, err := strconv.ParseUint(dgnHex, 16, 32)
					if err != nil {
						logger.Warnf("mapping: light %q under invalid DGN %q", entry.EntityID, dgnHex)
						continue
					}
					t.lightCommands[entry.EntityID] = LightCommandInfo{
						DGN:       uint32(dgn),
						Instance:  instance,
						Interface: entry.Interface,
					}
				}
			}
		}
	}

	return t
}

// rawEntry is one entry as it appears in the YAML document, prior to
// template merge.
type rawEntry struct {
	Template      string   `yaml:"template,omitempty"`
	EntityID      string   `yaml:"entity_id,omitempty"`
	FriendlyName  string   `yaml:"friendly_name,omitempty"`
	SuggestedArea string   `yaml:"suggested_area,omitempty"`
	DeviceType    string   `yaml:"device_type,omitempty"`
	StatusDGN     string   `yaml:"status_dgn,omitempty"`
	Interface     string   `yaml:"interface,omitempty"`
	Capabilities  []string `yaml:"capabilities,omitempty"`
}

// mergeTemplate applies the template merge rule from spec.md §3: merged =
// (template fields ∪ explicit fields), with explicit fields overriding
// template fields at the top level only.
func mergeTemplate(raw rawEntry, templates map[string]rawEntry) (Entry, bool) {
	base := rawEntry{}
	if raw.Template != "" {
		tmpl, ok := templates[raw.Template]
		if !ok {
			return Entry{}, false
		}
		base = tmpl
	}

	merged := base
	if raw.EntityID != "" {
		merged.EntityID = raw.EntityID
	}
	if raw.FriendlyName != "" {
		merged.FriendlyName = raw.FriendlyName
	}
	if raw.SuggestedArea != "" {
		merged.SuggestedArea = raw.SuggestedArea
	}
	if raw.DeviceType != "" {
		merged.DeviceType = raw.DeviceType
	}
	if raw.StatusDGN != "" {
		merged.StatusDGN = raw.StatusDGN
	}
	if raw.Interface != "" {
		merged.Interface = raw.Interface
	}
	if raw.Capabilities != nil {
		merged.Capabilities = raw.Capabilities
	}

	return Entry{
		EntityID:      merged.EntityID,
		FriendlyName:  merged.FriendlyName,
		SuggestedArea: merged.SuggestedArea,
		DeviceType:    merged.DeviceType,
		StatusDGN:     merged.StatusDGN,
		Interface:     merged.Interface,
		Capabilities:  merged.Capabilities,
	}, true
}

// ResolveStatus looks up the entity for a decoded frame's (DGN, instance),
// falling back to the DGN's "default" instance entry, per spec.md §4.4.
func (t *Tables) ResolveStatus(dgnHex, instance string) (Entry, bool) {
	dgnHex = strings.ToUpper(dgnHex)
	if e, ok := t.statusLookup[key{dgnHex, instance}]; ok {
		return e, true
	}
	if e, ok := t.statusLookup[key{dgnHex, DefaultInstance}]; ok {
		return e, true
	}
	return Entry{}, false
}

// ResolveDefinition looks up the entry declared for a command DGN under a
// specific instance, falling back to "default", per spec.md §4.4.
func (t *Tables) ResolveDefinition(dgnHex, instance string) (Entry, bool) {
	dgnHex = strings.ToUpper(dgnHex)
	if e, ok := t.definitionLookup[key{dgnHex, instance}]; ok {
		return e, true
	}
	if e, ok := t.definitionLookup[key{dgnHex, DefaultInstance}]; ok {
		return e, true
	}
	return Entry{}, false
}

// Entity looks up an entry by entity_id.
func (t *Tables) Entity(entityID string) (Entry, bool) {
	e, ok := t.entityLookup[entityID]
	return e, ok
}

// LightCommand returns the command descriptor for a light entity.
func (t *Tables) LightCommand(entityID string) (LightCommandInfo, bool) {
	info, ok := t.lightCommands[entityID]
	return info, ok
}

// Lights returns every entry whose device_type is "light".
func (t *Tables) Lights() []Entry {
	out := make([]Entry, 0, len(t.lightEntityIDs))
	for id := range t.lightEntityIDs {
		if e, ok := t.entityLookup[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

func yamlDecode(r fs.File, v any) error {
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}
	return nil
}
