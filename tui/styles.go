package tui

import "github.com/charmbracelet/lipgloss"

// Styles map the original console's seven curses color pairs onto lipgloss
// styles: 1=header/footer, 2=selected, 3=normal, 4=data label/raw id,
// 5=copy message/important value, 6=area/secondary info, 7=error/action hint.
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("4")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)

	importantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	secondaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Italic(true)
)

// logLevelStyle picks a color by log level name, per spec.md §4.7: ERROR
// red, WARNING yellow, DEBUG magenta, else white.
func logLevelStyle(level string) lipgloss.Style {
	switch level {
	case "ERROR":
		return errorStyle
	case "WARNING":
		return importantStyle
	case "DEBUG":
		return secondaryStyle
	default:
		return normalStyle
	}
}
