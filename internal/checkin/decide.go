package checkin

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/pulse/internal/message"
	"github.com/nhle/pulse/internal/model"
)

// evaluate applies one successful poll and reports whether a check-in
// became visible. Callers hold mu.
func (e *Engine) evaluate(
	ctx context.Context,
	kind TickKind,
	stats model.Stats,
	details model.Details,
) bool {
	now := e.clock.Now()
	if now.Before(e.dismissedUntil) || e.view.Visible {
		return false
	}

	if e.cfg.ClearOnResolve {
		e.resolve(ctx, stats)
	}

	// The first category, in priority order, whose count is open and
	// which has a reason to speak decides the check-in.
	var initial map[model.CategoryKey]message.Candidate
	for _, c := range e.order {
		n := stats[c.Key]
		if n <= 0 {
			continue
		}
		rec, src, ok := e.latest(c.Key)
		if !ok {
			if kind != TickRegular {
				continue
			}
			if initial == nil {
				initial = make(map[model.CategoryKey]message.Candidate)
				for _, cand := range message.Candidates(stats, details) {
					initial[cand.Category] = cand
				}
			}
			cand, found := initial[c.Key]
			if !found {
				continue
			}
			e.show(ctx, model.View{
				Stage:    model.StageInitial,
				Category: cand.Category,
				Icon:     cand.Icon,
				Message:  message.Greet(e.displayName, cand.Text),
				Count:    cand.Count,
			})
			return true
		}

		if rec.Count > n {
			reduced := rec.Count - n
			e.put(ctx, src, model.CategoryRecord{Category: c.Key, Timestamp: now, Count: n})

			pick := message.First
			if kind == TickProgress {
				pick = e.pick
			}
			e.show(ctx, model.View{
				Stage:    model.StageProgress,
				Category: c.Key,
				Icon:     message.Icon(c.Key),
				Message:  message.Progress(c.Key, reduced, n, pick),
				Count:    n,
				Reduced:  reduced,
			})
			return true
		}

		if kind == TickRegular && now.Sub(rec.Timestamp) > e.cfg.FollowUpAfter {
			previous := rec.Count
			e.put(ctx, src, model.CategoryRecord{Category: c.Key, Timestamp: now, Count: n})

			e.show(ctx, model.View{
				Stage:    model.StageFollowUp,
				Category: c.Key,
				Icon:     message.Icon(c.Key),
				Message:  message.Greet(e.displayName, message.FollowUp(c.Key, previous, n)),
				Count:    n,
			})
			return true
		}
	}

	if kind != TickRegular {
		return false
	}

	if stats.Total() == 0 && e.allClearDue(now) {
		cand := message.AllClear(stats)
		e.lastAllClear = now
		e.show(ctx, model.View{
			Stage:   model.StageInitial,
			Icon:    cand.Icon,
			Message: message.Greet(e.displayName, cand.Text),
		})
		return true
	}

	return false
}

func (e *Engine) allClearDue(now time.Time) bool {
	if !e.cfg.ShowAllClear {
		return false
	}
	return e.lastAllClear.IsZero() || now.Sub(e.lastAllClear) >= e.cfg.AllClearEvery
}

// recordSource says which map a record lives in.
type recordSource int

const (
	fromAcks recordSource = iota
	fromDismissals
)

// latest returns the most recent record for key across acknowledgements
// and dismissals, and where it came from.
func (e *Engine) latest(key model.CategoryKey) (model.CategoryRecord, recordSource, bool) {
	ack, hasAck := e.acks[key]
	dis, hasDis := e.dismissals[key]
	switch {
	case hasAck && hasDis:
		if dis.Timestamp.After(ack.Timestamp) {
			return dis, fromDismissals, true
		}
		return ack, fromAcks, true
	case hasAck:
		return ack, fromAcks, true
	case hasDis:
		return dis, fromDismissals, true
	}
	return model.CategoryRecord{}, fromAcks, false
}

// put overwrites the record for rec.Category in src and persists it.
func (e *Engine) put(ctx context.Context, src recordSource, rec model.CategoryRecord) {
	if src == fromDismissals {
		e.dismissals[rec.Category] = rec
		e.saveDismissals(ctx)
		return
	}
	e.acks[rec.Category] = rec
	e.saveAcks(ctx)
}

// resolve drops the records of categories whose count fell to zero.
func (e *Engine) resolve(ctx context.Context, stats model.Stats) {
	var ackChanged, disChanged bool
	for key := range e.enabled {
		n, polled := stats[key]
		if !polled || n != 0 {
			continue
		}
		_, hasAck := e.acks[key]
		_, hasDis := e.dismissals[key]
		if !hasAck && !hasDis {
			continue
		}
		delete(e.acks, key)
		delete(e.dismissals, key)
		ackChanged = ackChanged || hasAck
		disChanged = disChanged || hasDis

		e.logger.Debug("category resolved", zap.String("category", string(key)))
		e.record(ctx, model.CheckinEvent{Kind: model.EventResolved, Category: key})
	}
	if ackChanged {
		e.saveAcks(ctx)
	}
	if disChanged {
		e.saveDismissals(ctx)
	}
}
