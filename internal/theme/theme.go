package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps a content panel.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders secondary text.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// TitleStyle renders panel titles.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// StageColor returns the accent color of a check-in stage.
func StageColor(stage model.Stage) lipgloss.AdaptiveColor {
	switch stage {
	case model.StageInitial:
		return ColorBlue
	case model.StageFollowUp:
		return ColorYellow
	case model.StageProgress:
		return ColorGreen
	case model.StageAcknowledged:
		return ColorGreen
	case model.StageQuestion:
		return ColorMagenta
	default:
		return ColorGray
	}
}

// CardStyle returns the bordered style of the check-in card for stage.
func CardStyle(stage model.Stage) lipgloss.Style {
	return lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(StageColor(stage))
}

// StageLabelStyle returns a color-coded style for a stage badge.
func StageLabelStyle(stage model.Stage) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(StageColor(stage))
}

// PriorityStyle returns a color-coded style for a category priority.
func PriorityStyle(priority int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case priority <= 1:
		return base.Foreground(ColorRed)
	case priority == 2:
		return base.Foreground(ColorOrange)
	case priority <= 4:
		return base.Foreground(ColorYellow)
	case priority <= 7:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}

// CountStyle highlights non-zero counts.
func CountStyle(n int) lipgloss.Style {
	if n == 0 {
		return DimmedStyle
	}
	return lipgloss.NewStyle().Bold(true).Foreground(ColorWhite)
}
