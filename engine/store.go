// Package engine wires the Spec Registry, Mapping Resolver, per-interface
// readers and the command sender into the shared state the TUI renders.
// The mutex discipline is grounded on addressmapper.AddressMapper; the
// ctx.Done() run-loop idiom on addressmapper.AddressMapper.Run.
package engine

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/carpenike/rv-nixpi/canbus"
	"github.com/carpenike/rv-nixpi/mapping"
	"github.com/carpenike/rv-nixpi/rvc"
)

// RawRecord is the latest decoded state for one (interface, message) pair
// (spec.md §3).
type RawRecord struct {
	Interface      string
	MessageName    string
	FirstReceived  time.Time
	LastReceived   time.Time
	RawID          string
	RawData        string
	Decoded        rvc.DecodedSignals
	Spec           rvc.MessageSpec
}

// LightState is the correlated, user-facing state for one light entity
// (spec.md §3).
type LightState struct {
	EntityID       string
	FriendlyName   string
	SuggestedArea  string
	LastUpdated    time.Time
	LastInterface  string
	LastRawValues  map[string]uint64
	LastDecoded    map[string]string
	MappingConfig  mapping.Entry
	PrevBrightness int
}

// State reads back state == "ON"/"OFF"/"unavailable" per spec.md §3.
func (s LightState) State() string {
	if v, ok := s.LastDecoded["state"]; ok {
		return v
	}
	return "unavailable"
}

// Brightness reads the stored brightness percent, or 0 if never set.
func (s LightState) Brightness() int {
	if v, ok := s.LastDecoded["brightness"]; ok {
		pct, _ := strconv.Atoi(v)
		return pct
	}
	return 0
}

type rawRecordKey struct {
	iface string
	name  string
}

// Store holds every mutable, concurrently-accessed container in the system:
// per-interface raw records, per-entity light state, and the active bus
// handle registry (spec.md §3). Each container gets its own mutex, mirroring
// addressmapper.AddressMapper's single coarse-grained mutex but split so the
// TUI snapshot of light state never blocks a reader upserting a raw record on
// a different interface.
type Store struct {
	rawMu  sync.Mutex
	raw    map[rawRecordKey]*RawRecord

	lightMu sync.Mutex
	lights  map[string]*LightState

	busMu sync.Mutex
	buses map[string]BusWriter
}

// BusWriter is the subset of *canbus.Socket the command sender needs.
// Abstracted so tests can supply a fake bus without a real CAN interface.
type BusWriter interface {
	WriteFrame(canbus.Frame) error
}

// NewStore creates an empty Store with no pre-registered buses or lights.
func NewStore() *Store {
	return &Store{
		raw:    make(map[rawRecordKey]*RawRecord),
		lights: make(map[string]*LightState),
		buses:  make(map[string]BusWriter),
	}
}

// UpsertRaw creates or updates the RawRecord for (iface, spec.Name),
// preserving FirstReceived across updates.
func (s *Store) UpsertRaw(iface string, spec rvc.MessageSpec, rawID, rawData string, decoded rvc.DecodedSignals, at time.Time) *RawRecord {
	key := rawRecordKey{iface: iface, name: spec.Name}

	s.rawMu.Lock()
	defer s.rawMu.Unlock()

	rec, ok := s.raw[key]
	if !ok {
		rec = &RawRecord{
			Interface:     iface,
			MessageName:   spec.Name,
			FirstReceived: at,
			Spec:          spec,
		}
		s.raw[key] = rec
	}
	rec.LastReceived = at
	rec.RawID = rawID
	rec.RawData = rawData
	rec.Decoded = decoded
	return rec
}

// RawRecords returns a stable snapshot of every raw record, sorted by
// interface then message name for deterministic rendering.
func (s *Store) RawRecords() []RawRecord {
	s.rawMu.Lock()
	defer s.rawMu.Unlock()

	out := make([]RawRecord, 0, len(s.raw))
	for _, rec := range s.raw {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Interface != out[j].Interface {
			return out[i].Interface < out[j].Interface
		}
		return out[i].MessageName < out[j].MessageName
	})
	return out
}

// RawRecordsFor returns the snapshot for a single interface only, used by
// the per-interface Raw tabs.
func (s *Store) RawRecordsFor(iface string) []RawRecord {
	all := s.RawRecords()
	out := make([]RawRecord, 0, len(all))
	for _, r := range all {
		if r.Interface == iface {
			out = append(out, r)
		}
	}
	return out
}

// PreCreateLight ensures entry has a LightState entry, defaulting to OFF/0,
// per spec.md §3's "pre-created at startup" lifecycle rule. It is a no-op if
// the entity already has state.
func (s *Store) PreCreateLight(entry mapping.Entry) {
	s.lightMu.Lock()
	defer s.lightMu.Unlock()

	if _, ok := s.lights[entry.EntityID]; ok {
		return
	}
	s.lights[entry.EntityID] = &LightState{
		EntityID:      entry.EntityID,
		FriendlyName:  entry.FriendlyName,
		SuggestedArea: entry.SuggestedArea,
		MappingConfig: entry,
		LastDecoded:   map[string]string{"state": "OFF", "brightness": "0"},
		LastRawValues: map[string]uint64{},
	}
}

// UpsertLight applies a decoded status frame's effect on a light's state.
func (s *Store) UpsertLight(entityID, iface string, rawValues map[string]uint64, decoded map[string]string, at time.Time) {
	s.lightMu.Lock()
	defer s.lightMu.Unlock()

	st, ok := s.lights[entityID]
	if !ok {
		return
	}
	st.LastUpdated = at
	st.LastInterface = iface
	st.LastRawValues = rawValues
	st.LastDecoded = decoded
}

// ApplyOptimisticCommand records a command-builder-driven state change
// immediately after a successful first send (spec.md §4.6). toggledOffFrom
// carries the pre-command brightness to preserve as PrevBrightness when a
// Toggle is turning the light off (percent == 0); pass 0 for every other
// action.
func (s *Store) ApplyOptimisticCommand(entityID string, percent, toggledOffFrom int, at time.Time) {
	s.lightMu.Lock()
	defer s.lightMu.Unlock()

	st, ok := s.lights[entityID]
	if !ok {
		return
	}
	state := "OFF"
	if percent > 0 {
		state = "ON"
		st.PrevBrightness = percent
	} else if toggledOffFrom > 0 {
		st.PrevBrightness = toggledOffFrom
	}
	st.LastDecoded = map[string]string{
		"state":      state,
		"brightness": strconv.Itoa(percent),
	}
	st.LastUpdated = at
}

// Light returns a copy of one entity's light state.
func (s *Store) Light(entityID string) (LightState, bool) {
	s.lightMu.Lock()
	defer s.lightMu.Unlock()

	st, ok := s.lights[entityID]
	if !ok {
		return LightState{}, false
	}
	return *st, true
}

// Lights returns a stable snapshot of every light, sorted by area then name
// (the default sort mode from spec.md §4.7).
func (s *Store) Lights() []LightState {
	s.lightMu.Lock()
	defer s.lightMu.Unlock()

	out := make([]LightState, 0, len(s.lights))
	for _, st := range s.lights {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SuggestedArea != out[j].SuggestedArea {
			return out[i].SuggestedArea < out[j].SuggestedArea
		}
		return out[i].FriendlyName < out[j].FriendlyName
	})
	return out
}

// RegisterBus inserts a bus handle into the ActiveBusRegistry.
func (s *Store) RegisterBus(iface string, sock BusWriter) {
	s.busMu.Lock()
	defer s.busMu.Unlock()
	s.buses[iface] = sock
}

// UnregisterBus removes a bus handle, called on reader shutdown. A reader
// whose interface fails to open never registers a handle.
func (s *Store) UnregisterBus(iface string) {
	s.busMu.Lock()
	defer s.busMu.Unlock()
	delete(s.buses, iface)
}

// Bus returns the active bus handle for iface, if any.
func (s *Store) Bus(iface string) (BusWriter, bool) {
	s.busMu.Lock()
	defer s.busMu.Unlock()
	sock, ok := s.buses[iface]
	return sock, ok
}

