package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/pulse/internal/checkin"
	"github.com/nhle/pulse/internal/keys"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/store"
	appsync "github.com/nhle/pulse/internal/sync"
	"github.com/nhle/pulse/internal/ui"
	checkinview "github.com/nhle/pulse/internal/ui/checkin"
	detailview "github.com/nhle/pulse/internal/ui/detail"
	helpview "github.com/nhle/pulse/internal/ui/help"
	historyview "github.com/nhle/pulse/internal/ui/history"
	statsview "github.com/nhle/pulse/internal/ui/stats"
)

// refreshInterval is how often the counts panel re-reads the last poll.
const refreshInterval = 5 * time.Second

// refreshMsg asks the counts panel to re-read the engine.
type refreshMsg struct{}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewDashboard ViewState = iota
	ViewHistory
	ViewDetail
	ViewHelp
)

// Engine is the part of *checkin.Engine the dashboard reads.
type Engine interface {
	LastStats() (model.Stats, model.Details, time.Time)
	DismissedUntil() time.Time
}

// Deps are the collaborators the root model drives.
type Deps struct {
	Engine    Engine
	Presenter *checkin.Presenter
	Poller    *appsync.Poller
	Events    store.EventLog

	// Title is shown in the header. Defaults to "Pulse".
	Title string
}

// Model is the root Bubble Tea model. It routes keys between the check-in
// card and the panels and keeps the card in step with the engine.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	engine       Engine
	presenter    *checkin.Presenter
	poller       *appsync.Poller
	card         checkinview.Model
	statsView    statsview.Model
	historyView  historyview.Model
	detailView   detailview.Model
	helpView     helpview.Model
	title        string
	ready        bool
	lastErr      string
}

// New creates the root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	title := d.Title
	if title == "" {
		title = "Pulse"
	}

	m := Model{
		currentView: ViewDashboard,
		keys:        k,
		engine:      d.Engine,
		presenter:   d.Presenter,
		poller:      d.Poller,
		card:        checkinview.New(d.Presenter, k, 80),
		statsView:   statsview.New(80, 20),
		historyView: historyview.New(d.Events, 80, 20),
		detailView:  detailview.New(d.Events, k, 80, 20),
		helpView:    helpview.New(k, 80, 24),
		title:       title,
	}
	m.statsView.Focus()
	if d.Presenter != nil {
		m.card.SetView(d.Presenter.CurrentView())
	}
	return m
}

// Init starts polling and the panel refresh loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.poller.Start(),
		refreshLater(),
	)
}

func refreshLater() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshMsg{} })
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		return m, nil

	case appsync.ViewMsg:
		m.card.SetView(msg.View)
		m.refreshStats()
		m.resize()
		return m, m.poller.WaitForNextView()

	case refreshMsg:
		m.refreshStats()
		return m, refreshLater()

	case checkinview.ActionDoneMsg:
		m.card, _ = m.card.Update(msg)
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		} else {
			m.lastErr = ""
		}
		m.refreshStats()
		return m, m.historyView.Load()

	case historyview.LoadedMsg:
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(msg)
		return m, cmd

	case detailview.EventsLoadedMsg:
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		return m, cmd

	case detailview.BackMsg:
		m.currentView = ViewDashboard
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.poller.Stop()
		return m, tea.Quit
	}

	// The note input owns the keyboard while it is shown.
	if m.card.Capturing() && m.currentView == ViewDashboard {
		var cmd tea.Cmd
		m.card, cmd = m.card.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.poller.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.previousView = m.currentView
			m.currentView = ViewHelp
		}
		return m, nil

	case key.Matches(msg, m.keys.Back) && m.currentView != ViewDetail:
		if m.currentView != ViewDashboard {
			m.currentView = ViewDashboard
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.poller.Trigger(checkin.TickRegular)

	case key.Matches(msg, m.keys.History), key.Matches(msg, m.keys.NextPanel):
		if m.currentView == ViewHistory {
			m.currentView = ViewDashboard
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHistory
		return m, m.historyView.Load()

	case key.Matches(msg, m.keys.Submit) && m.currentView == ViewDashboard && !m.card.CurrentView().Visible:
		cat, count, details, ok := m.statsView.Selected()
		if !ok {
			return m, nil
		}
		m.currentView = ViewDetail
		return m, m.detailView.SetCategory(cat, count, details)
	}

	return m.updateActiveView(msg)
}

// updateActiveView forwards msg to the focused view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewDashboard:
		if m.card.CurrentView().Visible {
			m.card, cmd = m.card.Update(msg)
			return m, cmd
		}
		m.statsView, cmd = m.statsView.Update(msg)
	case ViewHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}
	return m, cmd
}

func (m *Model) refreshStats() {
	if m.engine == nil {
		return
	}
	stats, details, at := m.engine.LastStats()
	m.statsView.SetSnapshot(statsview.Snapshot{
		Stats:          stats,
		Details:        details,
		FetchedAt:      at,
		DismissedUntil: m.engine.DismissedUntil(),
	})
}

func (m *Model) resize() {
	if !m.ready {
		return
	}
	w := m.layout.Width
	m.card.SetWidth(w)
	panel := m.layout.PanelHeight(lineCount(m.card.View()))
	m.statsView.SetSize(w, panel)
	m.historyView.SetSize(w, m.layout.ContentHeight())
	m.detailView.SetSize(w, m.layout.ContentHeight())
	m.helpView.SetSize(w, m.layout.ContentHeight())
}

// View renders the full application frame.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.title, m.pollStatus())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	switch m.currentView {
	case ViewHelp:
		return m.layout.RenderWithFrame(header, statusBar, m.helpView.View())
	case ViewHistory:
		return m.layout.RenderWithFrame(header, statusBar, m.historyView.View())
	case ViewDetail:
		return m.layout.RenderWithFrame(header, statusBar, m.detailView.View())
	default:
		return m.layout.RenderWithFrame(header, statusBar, m.card.View(), m.statsView.View())
	}
}

// pollStatus returns a short string describing both polling loops.
func (m Model) pollStatus() string {
	statuses := m.poller.GetStatuses()
	if len(statuses) == 0 {
		return "not polling"
	}

	var last time.Time
	for _, s := range statuses {
		if s.State == appsync.PollRunning {
			return fmt.Sprintf("polling (%s)", s.Kind)
		}
		if s.LastTick.After(last) {
			last = s.LastTick
		}
	}
	if last.IsZero() {
		return "starting"
	}
	return "last poll " + last.Local().Format("15:04:05")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.lastErr != "" && m.currentView == ViewDashboard {
		return m.lastErr
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewHistory:
		return "j/k scroll | h back | esc back"
	case ViewDetail:
		return "j/k scroll | esc back"
	default:
		if m.card.Capturing() {
			return "enter send | esc dismiss | ctrl+c quit"
		}
		return "q quit | ? help | r poll now | h history | enter details"
	}
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
