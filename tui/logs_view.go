package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
)

// visibleLogLines applies the Logs tab's case-sensitive filter substring
// (spec.md §4.7) to the accumulated log buffer and returns it newest-first:
// m.logLines is appended to in arrival order, so the most recent line is
// always its last element.
func (m Model) visibleLogLines() []string {
	var filtered []string
	if m.filter == "" {
		filtered = m.logLines
	} else {
		filtered = make([]string, 0, len(m.logLines))
		for _, line := range m.logLines {
			if strings.Contains(line, m.filter) {
				filtered = append(filtered, line)
			}
		}
	}

	out := make([]string, len(filtered))
	for i, line := range filtered {
		out[len(filtered)-1-i] = line
	}
	return out
}

// logLevelOf picks a level name for color selection: the first of ERROR,
// WARNING, DEBUG, INFO (checked in that order) found anywhere in the line.
func logLevelOf(line string) string {
	for _, level := range []string{"ERROR", "WARNING", "DEBUG", "INFO"} {
		if strings.Contains(line, level) {
			return level
		}
	}
	return ""
}

// renderLogs draws the Logs tab in a bubbles/viewport scroll region:
// filtered, optionally line-wrapped, newest entry on top (spec.md §4.7).
func (m Model) renderLogs(t tab) string {
	lines := m.visibleLogLines()
	if len(lines) == 0 {
		return hintStyle.Render("no log entries")
	}

	width := m.width
	if width <= 0 {
		width = 120
	}
	height := m.height - 5
	if height <= 0 {
		height = 10
	}

	var b strings.Builder
	for i, line := range lines {
		display := line
		if !m.wrap && len(display) > width {
			display = display[:width]
		}
		style := logLevelStyle(logLevelOf(line))
		if i == t.selection {
			b.WriteString(selectedStyle.Render("> " + display))
		} else {
			b.WriteString(style.Render("  " + display))
		}
		b.WriteByte('\n')
	}

	vp := viewport.New(width, height)
	vp.SetContent(b.String())
	vp.GotoTop()
	if offset := selectionScrollOffset(t.selection, height, len(lines)); offset > 0 {
		vp.LineDown(offset)
	}
	return vp.View()
}

// selectionScrollOffset keeps the selected line roughly centered in the
// viewport once the log buffer grows past one screenful.
func selectionScrollOffset(selection, height, total int) int {
	if height <= 0 || total <= height {
		return 0
	}
	offset := selection - height/2
	if offset < 0 {
		offset = 0
	}
	if max := total - height; offset > max {
		offset = max
	}
	return offset
}
