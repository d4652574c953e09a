package history

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/store"
	"github.com/nhle/pulse/internal/theme"
)

// pageSize is how many events one load fetches.
const pageSize = 100

// LoadedMsg carries events read from the log.
type LoadedMsg struct {
	Events []model.CheckinEvent
	Err    error
}

// Model lists recent check-in events.
type Model struct {
	log    store.EventLog
	table  table.Model
	events []model.CheckinEvent
	err    error
	width  int
	height int
}

// New creates a history panel reading from log.
func New(log store.EventLog, width, height int) Model {
	t := table.New(
		table.WithColumns(columns(width)),
		table.WithHeight(max(height-4, 3)),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	t.SetStyles(s)

	return Model{log: log, table: t, width: width, height: height}
}

func columns(width int) []table.Column {
	msg := width - 4 - 16 - 10 - 22 - 6 - 8
	if msg < 10 {
		msg = 10
	}
	return []table.Column{
		{Title: "When", Width: 16},
		{Title: "Event", Width: 10},
		{Title: "Category", Width: 22},
		{Title: "Count", Width: 6},
		{Title: "Message", Width: msg},
	}
}

// Load returns a command reading the latest events.
func (m Model) Load() tea.Cmd {
	log := m.log
	return func() tea.Msg {
		if log == nil {
			return LoadedMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		events, err := log.GetEvents(ctx, store.EventFilter{Limit: pageSize})
		return LoadedMsg{Events: events, Err: err}
	}
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width))
	m.table.SetHeight(max(height-4, 3))
}

// Update handles loaded events and navigation keys.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(LoadedMsg); ok {
		m.err = msg.Err
		if msg.Err == nil {
			m.events = msg.Events
			m.table.SetRows(Rows(msg.Events))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the panel.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Check-in history")

	var body string
	switch {
	case m.err != nil:
		body = lipgloss.NewStyle().Foreground(theme.ColorRed).Render("Could not load history: " + m.err.Error())
	case len(m.events) == 0:
		body = theme.DimmedStyle.Render("No check-ins recorded yet.")
	default:
		body = m.table.View()
	}

	return theme.PanelStyle.
		Width(max(m.width-4, 10)).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

// Rows converts events into table rows, newest first as given.
func Rows(events []model.CheckinEvent) []table.Row {
	rows := make([]table.Row, 0, len(events))
	for _, ev := range events {
		category := string(ev.Category)
		if c, ok := model.LookupCategory(ev.Category); ok {
			category = c.Plural
		}
		text := ev.Message
		if ev.Note != "" {
			text = "“" + ev.Note + "”"
		}
		rows = append(rows, table.Row{
			ev.CreatedAt.Local().Format("Jan 2 15:04"),
			string(ev.Kind),
			category,
			strconv.Itoa(ev.Count),
			text,
		})
	}
	return rows
}
