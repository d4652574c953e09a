package checkin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/pulse/internal/message"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/store"
)

// require checks that the visible view offers a for category. An empty
// category matches any. Callers hold mu.
func (e *Engine) require(a model.Action, category model.CategoryKey) error {
	if e.closed || !e.view.Visible || !e.view.Offers(a) {
		return fmt.Errorf("%w: %s in stage %q", ErrInvalidAction, a, e.view.Stage)
	}
	if category != "" && category != e.view.Category {
		return fmt.Errorf("%w: %s for %s while showing %s",
			ErrInvalidAction, a, category, e.view.Category)
	}
	return nil
}

// Attend acknowledges the category shown in the Initial stage. The count
// at this moment is recorded so later polls can detect progress.
func (e *Engine) Attend(ctx context.Context, category model.CategoryKey) error {
	e.mu.Lock()
	if err := e.require(model.ActionAttend, category); err != nil {
		e.mu.Unlock()
		return err
	}
	v := e.view
	now := e.clock.Now()

	e.acks[v.Category] = model.CategoryRecord{Category: v.Category, Timestamp: now, Count: v.Count}
	e.saveAcks(ctx)
	e.record(ctx, model.CheckinEvent{
		Kind: model.EventAttended, Stage: v.Stage, Category: v.Category, Count: v.Count,
	})
	e.show(ctx, model.View{
		Stage:    model.StageAcknowledged,
		Category: v.Category,
		Icon:     v.Icon,
		Message:  message.AttendedText,
		Count:    v.Count,
	})
	e.mu.Unlock()

	e.metrics.Action(model.ActionAttend)
	e.publish()
	return nil
}

// FollowUpAnswer answers the follow-up question. Yes clears the
// category's records and shows a short affirmation; no asks what is
// blocking the user.
func (e *Engine) FollowUpAnswer(ctx context.Context, yes bool) error {
	action := model.ActionAnswerNo
	if yes {
		action = model.ActionAnswerYes
	}

	e.mu.Lock()
	if err := e.require(action, ""); err != nil {
		e.mu.Unlock()
		return err
	}
	v := e.view

	if yes {
		if _, ok := e.acks[v.Category]; ok {
			delete(e.acks, v.Category)
			e.saveAcks(ctx)
		}
		if _, ok := e.dismissals[v.Category]; ok {
			delete(e.dismissals, v.Category)
			e.saveDismissals(ctx)
		}
		e.record(ctx, model.CheckinEvent{
			Kind: model.EventResolved, Stage: v.Stage, Category: v.Category, Count: v.Count,
		})
		e.show(ctx, model.View{
			Stage:    model.StageAcknowledged,
			Category: v.Category,
			Icon:     v.Icon,
			Message:  message.AffirmedText,
			Count:    v.Count,
		})
	} else {
		e.record(ctx, model.CheckinEvent{
			Kind: model.EventBlocked, Stage: v.Stage, Category: v.Category, Count: v.Count,
		})
		e.show(ctx, model.View{
			Stage:    model.StageQuestion,
			Category: v.Category,
			Icon:     v.Icon,
			Message:  message.QuestionText,
			Count:    v.Count,
		})
	}
	e.mu.Unlock()

	e.metrics.Action(action)
	e.publish()
	return nil
}

// Dismiss hides the visible check-in and suppresses every check-in for
// the configured window.
func (e *Engine) Dismiss(ctx context.Context) error {
	e.mu.Lock()
	if err := e.require(model.ActionDismiss, ""); err != nil {
		e.mu.Unlock()
		return err
	}
	v := e.view
	e.dismissedUntil = e.clock.Now().Add(e.cfg.SuppressFor)
	if err := e.state.SaveDismissedUntil(ctx, e.dismissedUntil); err != nil {
		e.storageFailed("saving suppression window", err)
	}
	e.record(ctx, model.CheckinEvent{
		Kind: model.EventDismissed, Stage: v.Stage, Category: v.Category, Count: v.Count,
	})
	e.hide()
	until := e.dismissedUntil
	e.mu.Unlock()

	e.logger.Info("check-ins suppressed", zap.Time("until", until))
	e.metrics.Action(model.ActionDismiss)
	e.publish()
	return nil
}

// Snooze hides the visible check-in for one category only. The count is
// recorded like an acknowledgement, so the category comes back as a
// follow-up or progress message.
func (e *Engine) Snooze(ctx context.Context, category model.CategoryKey) error {
	e.mu.Lock()
	if err := e.require(model.ActionSnooze, category); err != nil {
		e.mu.Unlock()
		return err
	}
	v := e.view
	now := e.clock.Now()

	e.dismissals[v.Category] = model.CategoryRecord{Category: v.Category, Timestamp: now, Count: v.Count}
	e.saveDismissals(ctx)
	e.record(ctx, model.CheckinEvent{
		Kind: model.EventSnoozed, Stage: v.Stage, Category: v.Category, Count: v.Count,
	})
	e.hide()
	e.mu.Unlock()

	e.metrics.Action(model.ActionSnooze)
	e.publish()
	return nil
}

// SubmitNote stores free text captured in the Question stage and thanks
// the user. Blank text is accepted and recorded as such.
func (e *Engine) SubmitNote(ctx context.Context, text string) error {
	e.mu.Lock()
	if err := e.require(model.ActionSubmit, ""); err != nil {
		e.mu.Unlock()
		return err
	}
	v := e.view

	e.record(ctx, model.CheckinEvent{
		Kind:     model.EventNote,
		Stage:    v.Stage,
		Category: v.Category,
		Count:    v.Count,
		Note:     strings.TrimSpace(text),
	})
	e.show(ctx, model.View{
		Stage:    model.StageAcknowledged,
		Category: v.Category,
		Icon:     v.Icon,
		Message:  message.NoteSavedText,
		Count:    v.Count,
	})
	e.mu.Unlock()

	e.metrics.Action(model.ActionSubmit)
	e.publish()
	return nil
}

// KeepAlive restarts the Question timeout while a note is being typed.
func (e *Engine) KeepAlive() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.require(model.ActionSubmit, ""); err != nil {
		return err
	}
	e.arm()
	return nil
}

// Reset forgets every record and the suppression window, in memory and
// in storage.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.acks = make(store.Records)
	e.dismissals = make(store.Records)
	e.dismissedUntil = time.Time{}
	e.lastAllClear = time.Time{}
	return e.state.Reset(ctx)
}
