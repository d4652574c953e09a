package stats

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/theme"
)

// Snapshot is what the panel shows for one poll.
type Snapshot struct {
	Stats          model.Stats
	Details        model.Details
	FetchedAt      time.Time
	DismissedUntil time.Time
}

// Model renders category counts as a table.
type Model struct {
	table  table.Model
	snap   Snapshot
	width  int
	height int
	now    func() time.Time
}

// New creates an empty counts panel.
func New(width, height int) Model {
	t := table.New(
		table.WithColumns(columns(width)),
		table.WithHeight(max(height-4, 3)),
		table.WithFocused(false),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.Foreground(theme.ColorWhite).Bold(false)
	t.SetStyles(s)

	return Model{table: t, width: width, height: height, now: time.Now}
}

func columns(width int) []table.Column {
	detail := width - 4 - 24 - 7 - 5 - 6
	if detail < 10 {
		detail = 10
	}
	return []table.Column{
		{Title: "Category", Width: 24},
		{Title: "Count", Width: 7},
		{Title: "Pri", Width: 5},
		{Title: "Examples", Width: detail},
	}
}

// SetSnapshot replaces the rendered counts.
func (m *Model) SetSnapshot(s Snapshot) {
	m.snap = s
	m.table.SetRows(Rows(s.Stats, s.Details))
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width))
	m.table.SetHeight(max(height-4, 3))
}

// Focus lets the table take navigation keys.
func (m *Model) Focus() { m.table.Focus() }

// Blur stops the table taking navigation keys.
func (m *Model) Blur() { m.table.Blur() }

// Selected returns the category under the cursor with its count and
// example records.
func (m Model) Selected() (model.CategoryKey, int, []model.Detail, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(model.Categories) || len(m.table.Rows()) == 0 {
		return "", 0, nil, false
	}
	key := model.Categories[i].Key
	return key, m.snap.Stats[key], m.snap.Details[key], true
}

// Update forwards navigation keys to the table.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the panel.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Open work")

	var footer string
	switch {
	case m.snap.FetchedAt.IsZero():
		footer = "Waiting for the first poll…"
	default:
		footer = fmt.Sprintf("Updated %s · %d open", m.snap.FetchedAt.Local().Format("15:04:05"), m.snap.Stats.Total())
	}
	if until := m.snap.DismissedUntil; !until.IsZero() && until.After(m.now()) {
		footer += fmt.Sprintf(" · check-ins paused until %s", until.Local().Format("15:04"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.table.View(),
		theme.DimmedStyle.Render(footer),
	)
	return theme.PanelStyle.Width(max(m.width-4, 10)).Render(content)
}

// Rows builds one table row per category, actionable categories first in
// priority order.
func Rows(stats model.Stats, details model.Details) []table.Row {
	rows := make([]table.Row, 0, len(model.Categories))
	for _, c := range model.Categories {
		n := stats[c.Key]
		labels := make([]string, 0, len(details[c.Key]))
		for _, d := range details[c.Key] {
			labels = append(labels, d.Label)
		}
		pri := strconv.Itoa(c.Priority)
		if !c.Actionable {
			pri = "-"
		}
		rows = append(rows, table.Row{
			capitalize(c.Plural),
			strconv.Itoa(n),
			pri,
			strings.Join(labels, "; "),
		})
	}
	return rows
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
