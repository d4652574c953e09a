package checkin

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/keys"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/theme"
)

// actionTimeout bounds a single user action, including its storage writes.
const actionTimeout = 5 * time.Second

// Actor performs a check-in action. *checkin.Presenter implements it.
type Actor interface {
	Do(ctx context.Context, a model.Action, text string) error
	// KeepAlive restarts the timeout of the note prompt.
	KeepAlive() error
}

// ActionDoneMsg is sent when an action dispatched from the card returns.
type ActionDoneMsg struct {
	Action model.Action
	Err    error
}

// Model renders the visible check-in and turns key presses into actions.
type Model struct {
	actor Actor
	keys  *keys.KeyMap
	view  model.View
	input textinput.Model
	width int
	err   error
}

// New creates a card for actor.
func New(actor Actor, keys *keys.KeyMap, width int) Model {
	ti := textinput.New()
	ti.Placeholder = "What's getting in the way?"
	ti.CharLimit = 500
	ti.Width = max(width-10, 20)

	return Model{
		actor: actor,
		keys:  keys,
		input: ti,
		width: width,
	}
}

// SetView replaces the rendered check-in.
func (m *Model) SetView(v model.View) {
	entering := v.Stage == model.StageQuestion && m.view.Stage != model.StageQuestion
	m.view = v
	m.err = nil
	if entering {
		m.input.Reset()
		m.input.Focus()
	} else if v.Stage != model.StageQuestion {
		m.input.Blur()
	}
}

// CurrentView returns the rendered check-in.
func (m Model) CurrentView() model.View {
	return m.view
}

// Capturing reports whether the card wants raw key input.
func (m Model) Capturing() bool {
	return m.view.Visible && m.view.Stage == model.StageQuestion
}

// SetWidth updates the card width.
func (m *Model) SetWidth(width int) {
	m.width = width
	m.input.Width = max(width-10, 20)
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses and action results.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ActionDoneMsg:
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		if !m.view.Visible {
			return m, nil
		}
		if m.Capturing() {
			return m.updateQuestion(msg)
		}
		if a, ok := m.actionFor(msg); ok {
			return m, m.dispatch(a, "")
		}
	}
	return m, nil
}

func (m Model) updateQuestion(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		return m, m.dispatch(model.ActionSubmit, text)
	case key.Matches(msg, m.keys.Back):
		return m, m.dispatch(model.ActionDismiss, "")
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		// A failure means the prompt already closed; the next view update hides it.
		_ = m.actor.KeepAlive()
	}
	return m, cmd
}

func (m Model) actionFor(msg tea.KeyMsg) (model.Action, bool) {
	bindings := []struct {
		binding key.Binding
		action  model.Action
	}{
		{m.keys.Attend, model.ActionAttend},
		{m.keys.Yes, model.ActionAnswerYes},
		{m.keys.No, model.ActionAnswerNo},
		{m.keys.Snooze, model.ActionSnooze},
		{m.keys.Dismiss, model.ActionDismiss},
	}
	for _, b := range bindings {
		if key.Matches(msg, b.binding) && m.view.Offers(b.action) {
			return b.action, true
		}
	}
	return "", false
}

func (m Model) dispatch(a model.Action, text string) tea.Cmd {
	actor := m.actor
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return ActionDoneMsg{Action: a, Err: actor.Do(ctx, a, text)}
	}
}

// View renders the card, or nothing when no check-in is visible.
func (m Model) View() string {
	if !m.view.Visible {
		return ""
	}

	width := max(m.width-4, 20)
	header := theme.StageLabelStyle(m.view.Stage).Render(stageTitle(m.view.Stage))

	body := m.view.Message
	if m.view.Icon != "" {
		body = m.view.Icon + "  " + body
	}
	body = lipgloss.NewStyle().Width(width - 6).Render(body)

	parts := []string{header, "", body}

	if m.Capturing() {
		parts = append(parts, "", m.input.View())
	}

	if hints := m.hints(); hints != "" {
		parts = append(parts, "", theme.HelpStyle.Render(hints))
	}

	if m.err != nil {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorRed).Render(m.err.Error()))
	}

	return theme.CardStyle(m.view.Stage).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) hints() string {
	if m.Capturing() {
		return "enter send · esc dismiss all"
	}

	var out []string
	add := func(b key.Binding, a model.Action) {
		if m.view.Offers(a) {
			h := b.Help()
			out = append(out, h.Key+" "+h.Desc)
		}
	}
	add(m.keys.Attend, model.ActionAttend)
	add(m.keys.Yes, model.ActionAnswerYes)
	add(m.keys.No, model.ActionAnswerNo)
	add(m.keys.Snooze, model.ActionSnooze)
	add(m.keys.Dismiss, model.ActionDismiss)
	return strings.Join(out, " · ")
}

func stageTitle(s model.Stage) string {
	switch s {
	case model.StageInitial:
		return "Check-in"
	case model.StageFollowUp:
		return "Following up"
	case model.StageProgress:
		return "Progress"
	case model.StageAcknowledged:
		return "Thanks"
	case model.StageQuestion:
		return "Tell us more"
	default:
		return ""
	}
}
