package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/carpenike/rv-nixpi/engine"
	"github.com/carpenike/rv-nixpi/rvc"
)

// sortedRaw orders a Raw tab snapshot per spec.md §4.7's three sort modes:
// 0 = message name A-Z (the default), 1 = most recently received first,
// 2 = least recently received first.
func sortedRaw(records []engine.RawRecord, sortMode int) []engine.RawRecord {
	out := make([]engine.RawRecord, len(records))
	copy(out, records)

	switch sortMode {
	case 1:
		sort.Slice(out, func(i, j int) bool { return out[i].LastReceived.After(out[j].LastReceived) })
	case 2:
		sort.Slice(out, func(i, j int) bool { return out[i].LastReceived.Before(out[j].LastReceived) })
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].MessageName < out[j].MessageName })
	}
	return out
}

// ageSuffix renders "<N>s ago" for ages under 10 minutes, and the absolute
// timestamp otherwise (spec.md §4.7).
func ageSuffix(at time.Time) string {
	age := time.Since(at)
	if age < 600*time.Second {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	return at.Format("15:04:05")
}

var rawTableStyles = func() table.Styles {
	s := table.DefaultStyles()
	s.Header = labelStyle
	s.Selected = selectedStyle
	s.Cell = normalStyle
	return s
}()

// renderRaw draws one interface's Raw tab as three side-by-side panels
// (spec.md §4.7): the message name list, the selected message's raw
// id/data and decoded signals, and the selected message's pretty-printed
// spec with its dgn_hex line highlighted.
func (m Model) renderRaw(t tab) string {
	records := sortedRaw(m.rawSnapshot[t.iface], t.sortMode)
	if len(records) == 0 {
		return hintStyle.Render("no messages seen yet on " + t.iface)
	}

	sel := t.selection
	if sel >= len(records) {
		sel = len(records) - 1
	}

	list := renderRawList(records, sel)
	detail := renderRawDetail(records[sel])
	spec := renderRawSpec(records[sel].Spec)

	return lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", detail, "  ", spec)
}

func renderRawList(records []engine.RawRecord, selection int) string {
	columns := []table.Column{
		{Title: "Message", Width: 24},
		{Title: "DGN", Width: 6},
		{Title: "Raw ID", Width: 10},
		{Title: "Age", Width: 10},
	}

	rows := make([]table.Row, len(records))
	for i, r := range records {
		rows[i] = table.Row{r.MessageName, r.Spec.DGNHex, r.RawID, ageSuffix(r.LastReceived)}
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)),
		table.WithStyles(rawTableStyles),
	)
	tbl.SetCursor(selection)
	return tbl.View()
}

func renderRawDetail(r engine.RawRecord) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("id: ") + r.RawID)
	b.WriteByte('\n')
	b.WriteString(labelStyle.Render("raw: ") + r.RawData)
	b.WriteByte('\n')
	for _, sig := range r.Decoded {
		b.WriteString(fmt.Sprintf("%s= %s\n", labelStyle.Render(sig.Name), sig.Formatted))
	}
	return b.String()
}

// specDisplay is the pretty-printed rendering of a selected message's spec.
// rvc.MessageSpec excludes DGNHex from its own JSON tags (it is derived, not
// part of the source document), but the Raw tab wants it shown and
// highlighted, so it is surfaced explicitly here.
type specDisplay struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	DGNHex  string           `json:"dgn_hex"`
	Signals []rvc.SignalSpec `json:"signals"`
}

// renderRawSpec pretty-prints the selected message's spec as indented JSON
// with the dgn_hex line highlighted (spec.md §4.7).
func renderRawSpec(spec rvc.MessageSpec) string {
	display := specDisplay{
		ID:      fmt.Sprintf("0x%X", spec.ID),
		Name:    spec.Name,
		DGNHex:  spec.DGNHex,
		Signals: spec.Signals,
	}

	raw, err := json.MarshalIndent(display, "", "  ")
	if err != nil {
		return ""
	}

	lines := strings.Split(string(raw), "\n")
	for i, line := range lines {
		if strings.Contains(line, `"dgn_hex"`) {
			lines[i] = importantStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
