package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/keys"
	"github.com/nhle/pulse/internal/theme"
)

// stageNotes explains which keys each check-in stage accepts.
var stageNotes = []string{
	"New check-in:  a attending · s snooze · d dismiss all",
	"Follow-up:     y all good · n not really · s snooze · d dismiss all",
	"Question:      type a note, enter to send · d dismiss all",
	"Progress:      shown briefly, d dismiss all",
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	notes := theme.DimmedStyle.Render(lipgloss.JoinVertical(lipgloss.Left, stageNotes...))

	content := lipgloss.JoinVertical(lipgloss.Left, title, helpText, "", notes)

	return theme.PanelStyle.
		Width(max(m.width-4, 10)).
		Height(max(m.height-4, 5)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
