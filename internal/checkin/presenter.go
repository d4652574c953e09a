package checkin

import (
	"context"
	"fmt"

	"github.com/nhle/pulse/internal/model"
)

// Presenter is the UI-facing side of the engine. It forwards actions for
// whatever check-in is visible and holds no state of its own.
type Presenter struct {
	engine *Engine
}

// NewPresenter wraps e.
func NewPresenter(e *Engine) *Presenter {
	return &Presenter{engine: e}
}

// CurrentView returns what the UI should render.
func (p *Presenter) CurrentView() model.View {
	return p.engine.CurrentView()
}

// Subscribe registers fn for view changes.
func (p *Presenter) Subscribe(fn func(model.View)) func() {
	return p.engine.Subscribe(fn)
}

// Attend acknowledges the visible category.
func (p *Presenter) Attend(ctx context.Context) error {
	return p.engine.Attend(ctx, p.engine.CurrentView().Category)
}

// Answer responds to a follow-up.
func (p *Presenter) Answer(ctx context.Context, yes bool) error {
	return p.engine.FollowUpAnswer(ctx, yes)
}

// Dismiss suppresses all check-ins for a while.
func (p *Presenter) Dismiss(ctx context.Context) error {
	return p.engine.Dismiss(ctx)
}

// Snooze hides the visible category only.
func (p *Presenter) Snooze(ctx context.Context) error {
	return p.engine.Snooze(ctx, p.engine.CurrentView().Category)
}

// Submit sends the note typed in the Question stage.
func (p *Presenter) Submit(ctx context.Context, text string) error {
	return p.engine.SubmitNote(ctx, text)
}

// KeepAlive keeps the Question stage open while the user types.
func (p *Presenter) KeepAlive() error {
	return p.engine.KeepAlive()
}

// Do dispatches a by name. text is used by ActionSubmit only.
func (p *Presenter) Do(ctx context.Context, a model.Action, text string) error {
	switch a {
	case model.ActionAttend:
		return p.Attend(ctx)
	case model.ActionAnswerYes:
		return p.Answer(ctx, true)
	case model.ActionAnswerNo:
		return p.Answer(ctx, false)
	case model.ActionDismiss:
		return p.Dismiss(ctx)
	case model.ActionSnooze:
		return p.Snooze(ctx)
	case model.ActionSubmit:
		return p.Submit(ctx, text)
	}
	return fmt.Errorf("%w: unknown action %q", ErrInvalidAction, a)
}
