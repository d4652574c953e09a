package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/theme"
)

// Layout splits the terminal into header, card, panel and status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentHeight returns the height between header and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// PanelHeight returns the height left for the lower panel once a card of
// cardHeight lines is placed above it.
func (l Layout) PanelHeight(cardHeight int) int {
	h := l.ContentHeight() - cardHeight
	if h < 3 {
		return 3
	}
	return h
}

// RenderHeader renders the title on the left and the poll state on the
// right, padded to the full width.
func (l Layout) RenderHeader(title string, pollStatus string) string {
	return l.bar(theme.HeaderStyle, title, pollStatus)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	return l.bar(theme.StatusBarStyle, hints, "")
}

func (l Layout) bar(style lipgloss.Style, left, right string) string {
	leftRendered := style.Render(left)
	rightRendered := ""
	if right != "" {
		rightRendered = style.Align(lipgloss.Right).Render(right)
	}

	gap := l.Width - lipgloss.Width(leftRendered) - lipgloss.Width(rightRendered)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, leftRendered, filler, rightRendered)
}

// RenderWithFrame stacks the header, the body sections and the status bar.
func (l Layout) RenderWithFrame(header string, statusBar string, body ...string) string {
	parts := make([]string, 0, len(body)+2)
	parts = append(parts, header)
	for _, b := range body {
		if b != "" {
			parts = append(parts, b)
		}
	}
	parts = append(parts, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
