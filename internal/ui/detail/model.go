package detail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/keys"
	"github.com/nhle/pulse/internal/message"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/store"
	"github.com/nhle/pulse/internal/theme"
)

// recentEvents is how many history entries the pane lists.
const recentEvents = 10

// BackMsg signals the parent to navigate back to the dashboard.
type BackMsg struct{}

// EventsLoadedMsg carries the recent history of one category.
type EventsLoadedMsg struct {
	Category model.CategoryKey
	Events   []model.CheckinEvent
	Err      error
}

// Model shows one category: its count, example records and recent
// check-in history.
type Model struct {
	category model.Category
	count    int
	details  []model.Detail
	events   []model.CheckinEvent
	err      error
	selected bool

	log      store.EventLog
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates an empty detail pane.
func New(log store.EventLog, keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		log:      log,
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetCategory selects the category to show and returns a command loading
// its history.
func (m *Model) SetCategory(key model.CategoryKey, count int, details []model.Detail) tea.Cmd {
	c, ok := model.LookupCategory(key)
	if !ok {
		return nil
	}
	m.category = c
	m.count = count
	m.details = details
	m.events = nil
	m.err = nil
	m.selected = true
	m.refresh()
	return m.load(key)
}

// Category returns the selected category key.
func (m Model) Category() model.CategoryKey {
	return m.category.Key
}

func (m Model) load(key model.CategoryKey) tea.Cmd {
	if m.log == nil {
		return nil
	}
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		events, err := log.GetEvents(ctx, store.EventFilter{Category: &key, Limit: recentEvents})
		return EventsLoadedMsg{Category: key, Events: events, Err: err}
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventsLoadedMsg:
		if msg.Category != m.category.Key {
			return m, nil
		}
		m.events = msg.Events
		m.err = msg.Err
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return BackMsg{} }
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if !m.selected {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No category selected")
	}
	return m.viewport.View()
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if !m.selected {
		return ""
	}
	c := m.category

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))

	var sections []string
	title := strings.TrimSpace(message.Icon(c.Key) + " " + capitalize(c.Plural))
	sections = append(sections, titleStyle.Render(title))

	pri := theme.PriorityStyle(c.Priority).Render(fmt.Sprintf("P%d", c.Priority))
	if !c.Actionable {
		pri = metaStyle.Render("informational")
	}
	sections = append(sections,
		lipgloss.JoinHorizontal(lipgloss.Top, theme.CountStyle(m.count).Render(fmt.Sprintf("%d open", m.count)), "  ", pri),
		"",
		fmt.Sprintf("%s  %s", metaStyle.Render("Collection:"), valStyle.Render(string(c.Collection))),
		fmt.Sprintf("%s      %s", metaStyle.Render("Status:"), valStyle.Render(c.Status)),
		"", separator, "",
		titleStyle.Render("Examples"),
	)

	if len(m.details) == 0 {
		sections = append(sections, metaStyle.Italic(true).Render("None"))
	}
	for _, d := range m.details {
		line := "• " + d.Label
		if d.Label == "" {
			line = "• " + d.ID
		}
		sections = append(sections, line)
	}

	sections = append(sections, "", separator, "", titleStyle.Render("Recent check-ins"))
	switch {
	case m.err != nil:
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.ColorRed).Render(m.err.Error()))
	case len(m.events) == 0:
		sections = append(sections, metaStyle.Italic(true).Render("No history yet"))
	}
	for _, ev := range m.events {
		text := ev.Message
		if ev.Note != "" {
			text = "“" + ev.Note + "”"
		}
		sections = append(sections, fmt.Sprintf("%s  %-9s %s",
			metaStyle.Render(ev.CreatedAt.Local().Format("Jan 2 15:04")),
			string(ev.Kind),
			text,
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
