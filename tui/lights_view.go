package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/table"

	"github.com/carpenike/rv-nixpi/engine"
)

// sortedLights orders a Lights snapshot per spec.md §4.7's three sort modes:
// 0 = area then name (the default), 1 = name only, 2 = most recently updated
// first.
func sortedLights(lights []engine.LightState, sortMode int) []engine.LightState {
	out := make([]engine.LightState, len(lights))
	copy(out, lights)

	switch sortMode {
	case 1:
		sort.Slice(out, func(i, j int) bool { return out[i].FriendlyName < out[j].FriendlyName })
	case 2:
		sort.Slice(out, func(i, j int) bool { return out[i].LastUpdated.After(out[j].LastUpdated) })
	default:
		sort.Slice(out, func(i, j int) bool {
			if out[i].SuggestedArea != out[j].SuggestedArea {
				return out[i].SuggestedArea < out[j].SuggestedArea
			}
			return out[i].FriendlyName < out[j].FriendlyName
		})
	}
	return out
}

var lightsTableStyles = func() table.Styles {
	s := table.DefaultStyles()
	s.Header = labelStyle
	s.Selected = selectedStyle
	s.Cell = normalStyle
	return s
}()

// renderLights draws the Lights tab as a bubbles/table: one row per entity,
// area, name, state, and (when dimmable) brightness.
func (m Model) renderLights(t tab) string {
	lights := sortedLights(m.lightsSnapshot, t.sortMode)
	if len(lights) == 0 {
		return hintStyle.Render("no lights configured")
	}

	columns := []table.Column{
		{Title: "Area", Width: 16},
		{Title: "Name", Width: 22},
		{Title: "State", Width: 6},
		{Title: "Brightness", Width: 10},
	}

	rows := make([]table.Row, len(lights))
	for i, l := range lights {
		brightness := ""
		if l.MappingConfig.HasCapability("brightness") {
			brightness = fmt.Sprintf("%d%%", l.Brightness())
		}
		rows[i] = table.Row{l.SuggestedArea, l.FriendlyName, l.State(), brightness}
	}

	height := len(rows)
	if m.height > 6 && height > m.height-6 {
		height = m.height - 6
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
		table.WithStyles(lightsTableStyles),
	)
	tbl.SetCursor(t.selection)
	return tbl.View()
}
