package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tanq16/tubegrab/internal/session"
)

var (
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("37"))            // dark green
	success2Style = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))             // green
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))             // red
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))            // yellow
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))            // blue
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))            // cyan
	debugStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))           // light grey
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))            // purple
	streamStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))           // grey
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")) // purple
)

var StyleSymbols = map[string]string{
	"pass":    "✓",
	"fail":    "✗",
	"skip":    "↷",
	"pending": "◉",
	"arrow":   "→",
	"bullet":  "•",
	"dot":     "·",
	"hline":   "━",
}

func PrintSuccess(text string) {
	fmt.Println(successStyle.Render(text))
}
func PrintError(text string) {
	fmt.Println(errorStyle.Render(text))
}
func PrintWarning(text string) {
	fmt.Println(warningStyle.Render(text))
}
func PrintInfo(text string) {
	fmt.Println(infoStyle.Render(text))
}
func PrintDetail(text string) {
	fmt.Println(detailStyle.Render(text))
}
func PrintHeader(text string) {
	fmt.Println(headerStyle.Render(text))
}

// statusStyle picks the style used for an entry in the given status.
func statusStyle(status session.Status) lipgloss.Style {
	switch status {
	case session.StatusSucceeded:
		return successStyle
	case session.StatusFailed:
		return errorStyle
	case session.StatusSkipped:
		return warningStyle
	default:
		return pendingStyle
	}
}

func statusIndicator(status session.Status) string {
	switch status {
	case session.StatusSucceeded:
		return successStyle.Render(StyleSymbols["pass"])
	case session.StatusFailed:
		return errorStyle.Render(StyleSymbols["fail"])
	case session.StatusSkipped:
		return warningStyle.Render(StyleSymbols["skip"])
	case session.StatusRunning:
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}
