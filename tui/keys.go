package tui

import (
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aymanbagabas/go-osc52/v2"

	"github.com/carpenike/rv-nixpi/engine"
)

// handleKey is the global-then-tab-scoped dispatch table from spec.md §4.7.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filterMode {
		return m.handleFilterKey(msg)
	}

	switch msg.String() {
	case "q", "Q":
		m.quitting = true
		return m, tea.Quit
	case "p", "P":
		m.togglePause()
		return m, nil
	case "/":
		if m.tabs[m.activeTab].kind == tabLogs {
			m.filterMode = true
			m.filterInput = m.filter
		}
		return m, nil
	case "w", "W":
		m.wrap = !m.wrap
		return m, nil
	case "s", "S":
		m.cycleSort()
		return m, nil
	case "c", "C":
		m.requestCopy()
		return m, nil
	case "up":
		m.moveSelection(-1)
		return m, nil
	case "down":
		m.moveSelection(1)
		return m, nil
	case "pgup":
		m.moveSelection(-(m.pageSize()))
		return m, nil
	case "pgdown":
		m.moveSelection(m.pageSize())
		return m, nil
	case "home":
		m.setSelection(0)
		return m, nil
	case "end":
		m.setSelection(m.itemCount() - 1)
		return m, nil
	}

	if m.tabs[m.activeTab].kind == tabLights {
		return m.handleLightsKey(msg)
	}

	if tab, ok := tabIndexForDigit(msg.String()); ok && tab < len(m.tabs) {
		m.activeTab = tab
	}
	return m, nil
}

func (m *Model) togglePause() {
	m.paused = !m.paused
	if !m.paused {
		m.lightsSnapshot = nil
		m.rawSnapshot = make(map[string][]engine.RawRecord)
		m.logLines = nil
	}
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filter = m.filterInput
		m.filterMode = false
	case tea.KeyEsc:
		m.filterMode = false
	case tea.KeyBackspace:
		if len(m.filterInput) > 0 {
			m.filterInput = m.filterInput[:len(m.filterInput)-1]
		}
	case tea.KeyRunes:
		m.filterInput += string(msg.Runes)
	}
	return *m, nil
}

// tabIndexForDigit maps a digit key to a tab index, per spec.md §4.7
// ("digit keys matching tab keys: switch tab").
func tabIndexForDigit(key string) (int, bool) {
	n, err := strconv.Atoi(key)
	if err != nil || len(key) != 1 {
		return 0, false
	}
	return n, true
}

func (m *Model) pageSize() int {
	if m.height <= 5 {
		return 1
	}
	return m.height - 5
}

func (m *Model) itemCount() int {
	active := &m.tabs[m.activeTab]
	switch active.kind {
	case tabLights:
		return len(m.lightsSnapshot)
	case tabLogs:
		return len(m.visibleLogLines())
	case tabRaw:
		return len(m.rawSnapshot[active.iface])
	default:
		return 0
	}
}

func (m *Model) moveSelection(delta int) {
	m.setSelection(m.tabs[m.activeTab].selection + delta)
}

func (m *Model) setSelection(idx int) {
	count := m.itemCount()
	if count == 0 {
		m.tabs[m.activeTab].selection = 0
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= count {
		idx = count - 1
	}
	m.tabs[m.activeTab].selection = idx
}

// cycleSort advances the active tab's sort mode and re-locates the
// previously selected item, per spec.md §4.7's sort-stability rule.
func (m *Model) cycleSort() {
	active := &m.tabs[m.activeTab]
	selectedID := m.currentSelectionID()

	switch active.kind {
	case tabLights:
		active.sortMode = (active.sortMode + 1) % 3 // Area->Name, Name, Newest
	case tabRaw:
		active.sortMode = (active.sortMode + 1) % 3 // A->Z, Newest, Oldest
	default:
		return
	}

	m.reselectByID(selectedID)
}

func (m *Model) currentSelectionID() string {
	active := m.tabs[m.activeTab]
	switch active.kind {
	case tabLights:
		lights := sortedLights(m.lightsSnapshot, active.sortMode)
		if active.selection < len(lights) {
			return lights[active.selection].EntityID
		}
	case tabRaw:
		records := sortedRaw(m.rawSnapshot[active.iface], active.sortMode)
		if active.selection < len(records) {
			return records[active.selection].MessageName
		}
	}
	return ""
}

func (m *Model) reselectByID(id string) {
	if id == "" {
		return
	}
	active := &m.tabs[m.activeTab]
	switch active.kind {
	case tabLights:
		lights := sortedLights(m.lightsSnapshot, active.sortMode)
		for i, l := range lights {
			if l.EntityID == id {
				active.selection = i
				return
			}
		}
	case tabRaw:
		records := sortedRaw(m.rawSnapshot[active.iface], active.sortMode)
		for i, r := range records {
			if r.MessageName == id {
				active.selection = i
				return
			}
		}
	}
	active.selection = 0
}

// requestCopy copies the selected item to the terminal clipboard via an
// OSC52 escape sequence (spec.md §1: clipboard transport is the terminal's
// responsibility; we only emit the sequence).
func (m *Model) requestCopy() {
	text, ok := m.selectedCopyText()
	if !ok {
		m.notify("nothing to copy")
		return
	}
	seq := osc52.New(text)
	_, _ = seq.WriteTo(os.Stdout)
	m.notify("copied to clipboard")
}

func (m *Model) selectedCopyText() (string, bool) {
	active := m.tabs[m.activeTab]
	switch active.kind {
	case tabLogs:
		lines := m.visibleLogLines()
		if active.selection < len(lines) {
			return lines[active.selection], true
		}
	case tabRaw:
		records := sortedRaw(m.rawSnapshot[active.iface], active.sortMode)
		if active.selection < len(records) {
			return records[active.selection].RawID + " " + records[active.selection].RawData, true
		}
	case tabLights:
		lights := sortedLights(m.lightsSnapshot, active.sortMode)
		if active.selection < len(lights) {
			return lights[active.selection].EntityID, true
		}
	}
	return "", false
}

// handleLightsKey dispatches Enter/Right/Left/digit light-control actions
// (spec.md §4.7).
func (m *Model) handleLightsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lights := sortedLights(m.lightsSnapshot, m.tabs[m.activeTab].sortMode)
	sel := m.tabs[m.activeTab].selection
	if sel >= len(lights) {
		return *m, nil
	}
	light := lights[sel]
	dimmable := light.MappingConfig.HasCapability("brightness")

	var cmd engine.Command
	switch msg.String() {
	case "enter":
		cmd = engine.Command{EntityID: light.EntityID, Action: engine.ActionToggle}
	case "right", "+":
		if !dimmable {
			return *m, nil
		}
		cmd = engine.Command{EntityID: light.EntityID, Action: engine.ActionStepBrightness, Delta: 10}
	case "left", "-":
		if !dimmable {
			return *m, nil
		}
		cmd = engine.Command{EntityID: light.EntityID, Action: engine.ActionStepBrightness, Delta: -10}
	default:
		if n, ok := digitBrightnessShortcut(msg.String()); ok && dimmable {
			cmd = engine.Command{EntityID: light.EntityID, Action: engine.ActionSetExactBrightness, Percent: n}
		} else {
			return *m, nil
		}
	}

	result, err := m.sender.Send(cmd)
	if err != nil {
		m.notify("command failed: %v", err)
	} else {
		m.notify("sent %s", result)
	}
	return *m, nil
}

// digitBrightnessShortcut implements spec.md §4.7's digit mapping:
// SetExactBrightness(100 if 0 else n*10).
func digitBrightnessShortcut(key string) (int, bool) {
	n, err := strconv.Atoi(key)
	if err != nil || len(key) != 1 {
		return 0, false
	}
	if n == 0 {
		return 100, true
	}
	return n * 10, true
}
