// Package checkin implements the check-in state machine and the adapter
// the UI renders from.
package checkin

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/pulse/internal/clock"
	"github.com/nhle/pulse/internal/message"
	"github.com/nhle/pulse/internal/metrics"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/store"
)

// TickKind distinguishes the regular poll from the fast progress poll.
type TickKind string

const (
	TickRegular  TickKind = "regular"
	TickProgress TickKind = "progress"
)

// ErrInvalidAction is returned for an action the current view does not
// offer. The engine state is left unchanged.
var ErrInvalidAction = errors.New("invalid action")

// StatsFetcher produces the counts and details for one poll.
type StatsFetcher interface {
	FetchStats(ctx context.Context) (model.Stats, model.Details, error)
}

// Engine decides whether and what to show on each poll and applies the
// user's responses. At most one check-in is visible at a time. All
// methods are safe for concurrent use.
type Engine struct {
	cfg     Config
	order   []model.Category
	enabled map[model.CategoryKey]bool

	fetcher StatsFetcher
	state   *store.CheckinState
	events  store.EventLog
	clock   clock.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics
	pick    message.Picker

	mu             sync.Mutex
	acks           store.Records
	dismissals     store.Records
	dismissedUntil time.Time
	lastAllClear   time.Time
	displayName    string

	view     model.View
	seq      uint64
	timer    clock.Timer
	fetching bool
	closed   bool

	lastStats   model.Stats
	lastDetails model.Details
	lastFetch   time.Time

	subs   map[int]func(model.View)
	nextID int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source and timer factory.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithEventLog records every shown check-in and user action.
func WithEventLog(l store.EventLog) Option {
	return func(e *Engine) { e.events = l }
}

// WithPicker sets the variant chooser for progress text on fast ticks.
func WithPicker(p message.Picker) Option {
	return func(e *Engine) { e.pick = p }
}

// New creates an Engine and loads persisted state. State that cannot be
// read is logged and treated as empty.
func New(
	ctx context.Context,
	cfg Config,
	fetcher StatsFetcher,
	state *store.CheckinState,
	opts ...Option,
) *Engine {
	e := &Engine{
		cfg:        cfg,
		order:      cfg.ordered(),
		enabled:    cfg.enabled(),
		fetcher:    fetcher,
		state:      state,
		clock:      clock.Real{},
		logger:     zap.NewNop(),
		pick:       message.First,
		acks:       make(store.Records),
		dismissals: make(store.Records),
		subs:       make(map[int]func(model.View)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.load(ctx)
	return e
}

func (e *Engine) load(ctx context.Context) {
	if acks, err := e.state.LoadAcks(ctx); err != nil {
		e.logger.Warn("loading acknowledgements", zap.Error(err))
	} else {
		e.acks = acks
	}
	if dis, err := e.state.LoadDismissals(ctx); err != nil {
		e.logger.Warn("loading dismissals", zap.Error(err))
	} else {
		e.dismissals = dis
	}
	if until, err := e.state.LoadDismissedUntil(ctx); err != nil {
		e.logger.Warn("loading suppression window", zap.Error(err))
	} else {
		e.dismissedUntil = until
	}
}

// CurrentView returns what the UI should render.
func (e *Engine) CurrentView() model.View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Subscribe registers fn to be called with the new view after every
// change. The returned function removes the subscription.
func (e *Engine) Subscribe(fn func(model.View)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

// SetDisplayName sets the name used to greet the user. Empty disables
// the greeting.
func (e *Engine) SetDisplayName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.displayName = name
}

// DismissedUntil returns the end of the global suppression window.
func (e *Engine) DismissedUntil() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dismissedUntil
}

// Records returns copies of the acknowledgement and dismissal records.
func (e *Engine) Records() (acks, dismissals store.Records) {
	e.mu.Lock()
	defer e.mu.Unlock()
	acks = make(store.Records, len(e.acks))
	for k, v := range e.acks {
		acks[k] = v
	}
	dismissals = make(store.Records, len(e.dismissals))
	for k, v := range e.dismissals {
		dismissals[k] = v
	}
	return acks, dismissals
}

// LastStats returns the most recent successful poll and when it ran.
func (e *Engine) LastStats() (model.Stats, model.Details, time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastStats, e.lastDetails, e.lastFetch
}

// Close stops the pending timer and hides any visible check-in. A fetch
// still in flight has its result discarded.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.stopTimer()
	e.seq++
	e.view = model.View{}
	e.mu.Unlock()
	return nil
}

// Tick runs one poll. It never fails: fetch errors are logged and the
// tick is skipped. The view after the tick is returned.
func (e *Engine) Tick(ctx context.Context, kind TickKind) model.View {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return model.View{}
	}
	if e.clock.Now().Before(e.dismissedUntil) {
		v := e.view
		e.mu.Unlock()
		e.metrics.Tick(string(kind), metrics.OutcomeSuppressed)
		return v
	}
	if e.view.Visible || e.fetching {
		v := e.view
		e.mu.Unlock()
		e.metrics.Tick(string(kind), metrics.OutcomeBusy)
		return v
	}
	e.fetching = true
	e.mu.Unlock()

	start := time.Now()
	stats, details, err := e.fetcher.FetchStats(ctx)
	e.metrics.ObserveFetch(time.Since(start))

	e.mu.Lock()
	e.fetching = false
	if e.closed {
		e.mu.Unlock()
		return model.View{}
	}
	if err != nil {
		v := e.view
		e.mu.Unlock()
		e.logger.Warn("fetch failed, skipping tick",
			zap.String("kind", string(kind)), zap.Error(err))
		e.metrics.FetchFailed()
		e.metrics.Tick(string(kind), metrics.OutcomeFailed)
		return v
	}

	stats = e.filter(stats)
	e.lastStats, e.lastDetails, e.lastFetch = stats, details, e.clock.Now()
	e.metrics.SetCounts(stats)

	changed := e.evaluate(ctx, kind, stats, details)
	v := e.view
	e.mu.Unlock()

	if changed {
		e.metrics.Tick(string(kind), metrics.OutcomeShown)
		e.publish()
	} else {
		e.metrics.Tick(string(kind), metrics.OutcomeIdle)
	}
	return v
}

// filter drops categories outside the configured set.
func (e *Engine) filter(stats model.Stats) model.Stats {
	out := make(model.Stats, len(stats))
	for k, n := range stats {
		if e.enabled[k] {
			out[k] = n
		}
	}
	return out
}

// show makes a check-in visible and arms its timeout. Callers hold mu.
func (e *Engine) show(ctx context.Context, v model.View) {
	v.Visible = true
	v.Actions = actionsFor(v)
	e.view = v
	e.arm()

	e.metrics.Shown(v.Stage)
	e.logger.Debug("showing check-in",
		zap.String("stage", string(v.Stage)),
		zap.String("category", string(v.Category)),
		zap.Int("count", v.Count))
	e.record(ctx, model.CheckinEvent{
		Kind:     model.EventShown,
		Stage:    v.Stage,
		Category: v.Category,
		Count:    v.Count,
		Message:  v.Message,
	})
}

// arm (re)starts the timeout of the visible stage. Callers hold mu.
func (e *Engine) arm() {
	e.stopTimer()
	e.seq++
	seq := e.seq
	e.timer = e.clock.AfterFunc(e.cfg.timeout(e.view.Stage), func() {
		e.expire(seq)
	})
}

// hide returns to Idle. Callers hold mu.
func (e *Engine) hide() {
	e.stopTimer()
	e.seq++
	e.view = model.View{}
}

func (e *Engine) stopTimer() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// expire hides the check-in armed under seq unless something replaced it.
func (e *Engine) expire(seq uint64) {
	e.mu.Lock()
	if e.closed || seq != e.seq {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.seq++
	e.view = model.View{}
	e.mu.Unlock()
	e.publish()
}

// publish sends the current view to every subscriber.
func (e *Engine) publish() {
	e.mu.Lock()
	v := e.view
	subs := make([]func(model.View), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// record appends an event to the history. Callers hold mu.
func (e *Engine) record(ctx context.Context, ev model.CheckinEvent) {
	if e.events == nil {
		return
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = e.clock.Now()
	}
	if err := e.events.RecordEvent(ctx, ev); err != nil {
		e.storageFailed("recording event", err)
	}
}

func (e *Engine) storageFailed(what string, err error) {
	e.logger.Warn("storage write failed, continuing in memory",
		zap.String("op", what), zap.Error(err))
	e.metrics.StorageWriteFailed()
}

func (e *Engine) saveAcks(ctx context.Context) {
	if err := e.state.SaveAcks(ctx, e.acks); err != nil {
		e.storageFailed("saving acknowledgements", err)
	}
}

func (e *Engine) saveDismissals(ctx context.Context) {
	if err := e.state.SaveDismissals(ctx, e.dismissals); err != nil {
		e.storageFailed("saving dismissals", err)
	}
}

// actionsFor lists what the user can do in v.
func actionsFor(v model.View) []model.Action {
	switch v.Stage {
	case model.StageInitial:
		if v.Category == "" {
			return []model.Action{model.ActionDismiss}
		}
		return []model.Action{model.ActionAttend, model.ActionSnooze, model.ActionDismiss}
	case model.StageFollowUp:
		return []model.Action{
			model.ActionAnswerYes, model.ActionAnswerNo,
			model.ActionSnooze, model.ActionDismiss,
		}
	case model.StageQuestion:
		return []model.Action{model.ActionSubmit, model.ActionDismiss}
	default:
		return []model.Action{model.ActionDismiss}
	}
}
