package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	// Status colors
	ColorStatusOpen       = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorStatusInProgress = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorStatusBlocked    = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorStatusClosed     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}

	// Priority colors
	ColorPrioCritical = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorPrioHigh     = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorPrioMedium   = lipgloss.AdaptiveColor{Light: "#808000", Dark: "#F1FA8C"}
	ColorPrioLow      = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorSubtext).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(ColorBgHighlight)

	idStyle      = lipgloss.NewStyle().Foreground(ColorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	statusStyle  = lipgloss.NewStyle().Foreground(ColorSubtext)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	searchStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
)

// selectedRowStyle is built at init so ThemeBg sees the detected profile.
var selectedRowStyle lipgloss.Style

func init() {
	selectedRowStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ThemeFg("#F8F8F2")).
		Background(ThemeBg("#44475A"))
}

// RenderPriorityBadge returns a styled priority badge.
// Priority values: 0=Critical, 1=High, 2=Medium, 3=Low, 4+=Backlog
func RenderPriorityBadge(priority int) string {
	var fg lipgloss.AdaptiveColor
	switch priority {
	case 0:
		fg = ColorPrioCritical
	case 1:
		fg = ColorPrioHigh
	case 2:
		fg = ColorPrioMedium
	case 3:
		fg = ColorPrioLow
	default:
		fg = ColorMuted
	}
	return lipgloss.NewStyle().Foreground(fg).Bold(true).Render(priorityLabel(priority))
}

func priorityLabel(priority int) string {
	if priority < 0 || priority > 9 {
		return "P?"
	}
	return "P" + string(rune('0'+priority))
}

// RenderStatus returns the record status, colored by its lifecycle stage.
// Unknown statuses are shown verbatim in the muted color.
func RenderStatus(status string, width int) string {
	var fg lipgloss.AdaptiveColor
	switch strings.ToLower(status) {
	case "open", "todo", "new":
		fg = ColorStatusOpen
	case "in_progress", "doing", "active":
		fg = ColorStatusInProgress
	case "blocked":
		fg = ColorStatusBlocked
	case "closed", "done":
		fg = ColorStatusClosed
	default:
		fg = ColorMuted
	}
	return lipgloss.NewStyle().Foreground(fg).Render(padRight(truncate(status, width), width))
}

// RenderDivider returns a horizontal divider line.
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Foreground(ColorBgSubtle).Render(strings.Repeat("─", width))
}
