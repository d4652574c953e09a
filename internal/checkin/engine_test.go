package checkin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/pulse/internal/checkin"
	"github.com/nhle/pulse/internal/message"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/store"
	"github.com/nhle/pulse/tests/testutil"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	ctx     context.Context
	cfg     checkin.Config
	clock   *testutil.FakeClock
	fetcher *testutil.StubFetcher
	kv      *testutil.FlakyKV
	state   *store.CheckinState
	events  *store.SQLiteStore
	engine  *checkin.Engine

	mu        sync.Mutex
	published []model.View
}

type harnessOption func(*harness)

func withConfig(fn func(*checkin.Config)) harnessOption {
	return func(h *harness) { fn(&h.cfg) }
}

func withAcks(recs ...model.CategoryRecord) harnessOption {
	return func(h *harness) {
		r := make(store.Records)
		for _, rec := range recs {
			r[rec.Category] = rec
		}
		require.NoError(h.t, h.state.SaveAcks(h.ctx, r))
	}
}

func withDismissals(recs ...model.CategoryRecord) harnessOption {
	return func(h *harness) {
		r := make(store.Records)
		for _, rec := range recs {
			r[rec.Category] = rec
		}
		require.NoError(h.t, h.state.SaveDismissals(h.ctx, r))
	}
}

func newHarness(t *testing.T, stats model.Stats, opts ...harnessOption) *harness {
	t.Helper()

	kv := testutil.NewFlakyKV()
	h := &harness{
		t:       t,
		ctx:     context.Background(),
		cfg:     checkin.DefaultConfig(),
		clock:   testutil.NewFakeClock(t0),
		fetcher: testutil.NewStubFetcher(stats),
		kv:      kv,
		state:   store.NewCheckinState(kv),
		events:  testutil.NewTestStore(t),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.engine = h.build()
	return h
}

func (h *harness) build(extra ...checkin.Option) *checkin.Engine {
	opts := append([]checkin.Option{
		checkin.WithClock(h.clock),
		checkin.WithEventLog(h.events),
	}, extra...)
	e := checkin.New(h.ctx, h.cfg, h.fetcher, h.state, opts...)
	e.Subscribe(func(v model.View) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.published = append(h.published, v)
	})
	h.t.Cleanup(func() { _ = e.Close() })
	return e
}

func (h *harness) tick() model.View {
	return h.engine.Tick(h.ctx, checkin.TickRegular)
}

func (h *harness) fastTick() model.View {
	return h.engine.Tick(h.ctx, checkin.TickProgress)
}

func (h *harness) eventsOf(kind model.EventKind) []model.CheckinEvent {
	h.t.Helper()
	evs, err := h.events.GetEvents(h.ctx, store.EventFilter{Kind: &kind})
	require.NoError(h.t, err)
	return evs
}

func (h *harness) publishedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.published)
}

func ack(key model.CategoryKey, age time.Duration, count int) model.CategoryRecord {
	return model.CategoryRecord{Category: key, Timestamp: t0.Add(-age), Count: count}
}

func TestTick_InitialForFreshCategory(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 3})

	v := h.tick()

	require.True(t, v.Visible)
	assert.Equal(t, model.StageInitial, v.Stage)
	assert.Equal(t, model.PendingMaintenance, v.Category)
	assert.Contains(t, v.Message, "3")
	assert.Equal(t, 3, v.Count)
	assert.Equal(t, []model.Action{model.ActionAttend, model.ActionSnooze, model.ActionDismiss}, v.Actions)
	assert.Equal(t, v, h.engine.CurrentView())
	assert.Len(t, h.eventsOf(model.EventShown), 1)
}

func TestTick_FollowUpWhenCountUnchanged(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 5},
		withAcks(ack(model.PendingMaintenance, 65*time.Minute, 5)))

	v := h.tick()

	require.True(t, v.Visible)
	assert.Equal(t, model.StageFollowUp, v.Stage)
	assert.Equal(t, model.PendingMaintenance, v.Category)
	assert.Contains(t, v.Message, "still 5")
	assert.Contains(t, v.Message, "Everything okay?")
	assert.Equal(t, []model.Action{
		model.ActionAnswerYes, model.ActionAnswerNo, model.ActionSnooze, model.ActionDismiss,
	}, v.Actions)

	acks, _ := h.engine.Records()
	assert.Equal(t, t0, acks[model.PendingMaintenance].Timestamp, "follow-up refreshes the record")
	assert.Equal(t, 5, acks[model.PendingMaintenance].Count)
}

func TestTick_FollowUpWhenCountGrew(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 7},
		withAcks(ack(model.PendingMaintenance, 90*time.Minute, 5)))

	v := h.tick()

	require.Equal(t, model.StageFollowUp, v.Stage)
	assert.Contains(t, v.Message, "from 5 to 7")
	assert.Contains(t, v.Message, message.FollowUpClosing)
}

func TestTick_NoFollowUpBeforeThreshold(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 5},
		withAcks(ack(model.PendingMaintenance, 30*time.Minute, 5)))

	v := h.tick()

	assert.False(t, v.Visible)
	assert.Zero(t, h.publishedCount())
}

func TestTick_ProgressWhenCountDropped(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 2},
		withAcks(ack(model.PendingMaintenance, 5*time.Minute, 5)))

	v := h.tick()

	require.True(t, v.Visible)
	assert.Equal(t, model.StageProgress, v.Stage)
	assert.Equal(t, 3, v.Reduced)
	assert.Equal(t, 2, v.Count)
	assert.Equal(t, []model.Action{model.ActionDismiss}, v.Actions)

	acks, _ := h.engine.Records()
	assert.Equal(t, model.CategoryRecord{Category: model.PendingMaintenance, Timestamp: t0, Count: 2},
		acks[model.PendingMaintenance])
}

func TestTick_ProgressBeatsFollowUp(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 3},
		withAcks(ack(model.PendingMaintenance, 3*time.Hour, 5)))

	v := h.tick()

	assert.Equal(t, model.StageProgress, v.Stage)
	assert.Equal(t, 2, v.Reduced)
}

func TestTick_DismissSuppressesUntilWindowEnds(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 10})

	require.True(t, h.tick().Visible)
	require.NoError(t, h.engine.Dismiss(h.ctx))
	assert.False(t, h.engine.CurrentView().Visible)
	assert.Equal(t, t0.Add(45*time.Minute), h.engine.DismissedUntil())

	calls := h.fetcher.Calls()
	h.clock.Advance(10 * time.Minute)
	assert.False(t, h.tick().Visible)
	assert.Equal(t, calls, h.fetcher.Calls(), "suppressed ticks do not fetch")

	h.clock.Advance(35*time.Minute - time.Second)
	assert.False(t, h.tick().Visible)

	h.clock.Advance(2 * time.Second)
	assert.True(t, h.tick().Visible)
}

func TestAttend_WritesAckAndExpires(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 4})
	require.True(t, h.tick().Visible)

	require.NoError(t, h.engine.Attend(h.ctx, model.PendingMaintenance))

	v := h.engine.CurrentView()
	assert.Equal(t, model.StageAcknowledged, v.Stage)
	assert.Equal(t, message.AttendedText, v.Message)

	acks, err := h.state.LoadAcks(h.ctx)
	require.NoError(t, err)
	rec := acks[model.PendingMaintenance]
	assert.Equal(t, 4, rec.Count)
	assert.WithinDuration(t, t0, rec.Timestamp, time.Second)

	h.clock.Advance(time.Second)
	assert.True(t, h.engine.CurrentView().Visible)
	h.clock.Advance(time.Second)
	assert.False(t, h.engine.CurrentView().Visible)

	assert.Len(t, h.eventsOf(model.EventAttended), 1)
}

func TestTick_Deterministic(t *testing.T) {
	stats := model.Stats{
		model.PendingInspections: 2,
		model.DraftInvoices:      1,
		model.SentInvoices:       4,
	}
	type outcome struct {
		stage    model.Stage
		category model.CategoryKey
		message  string
	}

	var first outcome
	for i := 0; i < 5; i++ {
		h := newHarness(t, stats,
			withAcks(ack(model.PendingInspections, 2*time.Hour, 2)))
		v := h.tick()
		got := outcome{v.Stage, v.Category, v.Message}
		if i == 0 {
			first = got
			continue
		}
		assert.Equal(t, first, got)
	}
	assert.Equal(t, model.StageFollowUp, first.stage)
	assert.Equal(t, model.PendingInspections, first.category)
}

func TestTick_PrefersHigherPriority(t *testing.T) {
	h := newHarness(t, model.Stats{
		model.PendingInspections: 9,
		model.PendingMaintenance: 1,
	})

	v := h.tick()

	assert.Equal(t, model.PendingMaintenance, v.Category)
}

func TestTick_FreshHigherPriorityBeatsLowerProgress(t *testing.T) {
	h := newHarness(t, model.Stats{
		model.PendingMaintenance: 3,
		model.DraftInvoices:      2,
	}, withAcks(ack(model.DraftInvoices, 5*time.Minute, 5)))

	v := h.tick()

	assert.Equal(t, model.StageInitial, v.Stage)
	assert.Equal(t, model.PendingMaintenance, v.Category)
	acks, _ := h.engine.Records()
	assert.Equal(t, 5, acks[model.DraftInvoices].Count, "lower category left untouched")
}

func TestTick_HigherPriorityFollowUpBeatsLowerInitial(t *testing.T) {
	h := newHarness(t, model.Stats{
		model.PendingMaintenance: 4,
		model.SentInvoices:       2,
	}, withAcks(ack(model.PendingMaintenance, 2*time.Hour, 4)))

	v := h.tick()

	assert.Equal(t, model.StageFollowUp, v.Stage)
	assert.Equal(t, model.PendingMaintenance, v.Category)
}

func TestTick_QuietCategoryFallsThroughToNext(t *testing.T) {
	h := newHarness(t, model.Stats{
		model.PendingMaintenance: 4,
		model.DraftInvoices:      2,
	}, withAcks(ack(model.PendingMaintenance, 10*time.Minute, 4)))

	v := h.tick()

	assert.Equal(t, model.StageInitial, v.Stage)
	assert.Equal(t, model.DraftInvoices, v.Category)
}

func TestTick_ProgressTickReportsLowerCategory(t *testing.T) {
	h := newHarness(t, model.Stats{
		model.PendingMaintenance: 3,
		model.DraftInvoices:      2,
	}, withAcks(ack(model.DraftInvoices, 5*time.Minute, 5)))

	v := h.fastTick()

	assert.Equal(t, model.StageProgress, v.Stage)
	assert.Equal(t, model.DraftInvoices, v.Category)
	assert.Equal(t, 3, v.Reduced)
}

func TestTick_DoesNotInterruptVisibleCheckin(t *testing.T) {
	h := newHarness(t, model.Stats{model.BookedCleanings: 2})
	first := h.tick()
	require.Equal(t, model.BookedCleanings, first.Category)

	h.fetcher.Set(model.Stats{model.PendingMaintenance: 8})
	calls := h.fetcher.Calls()
	again := h.tick()

	assert.Equal(t, first, again)
	assert.Equal(t, calls, h.fetcher.Calls())
	assert.Equal(t, 1, h.publishedCount())
}

func TestTick_AllClear(t *testing.T) {
	h := newHarness(t, model.Stats{model.CompletedMaintenance: 4, model.CompletedCleanings: 2})

	v := h.tick()

	require.True(t, v.Visible)
	assert.Equal(t, model.StageInitial, v.Stage)
	assert.Empty(t, v.Category)
	assert.Equal(t, message.AllClearIcon, v.Icon)
	assert.Contains(t, v.Message, "All caught up")
	assert.Equal(t, []model.Action{model.ActionDismiss}, v.Actions)

	h.clock.Advance(10 * time.Second)
	require.False(t, h.engine.CurrentView().Visible)

	h.clock.Advance(time.Minute)
	assert.False(t, h.tick().Visible, "all-clear is rate limited")

	h.clock.Advance(time.Hour)
	assert.True(t, h.tick().Visible)
}

func TestTick_AllClearDisabled(t *testing.T) {
	h := newHarness(t, model.Stats{},
		withConfig(func(c *checkin.Config) { c.ShowAllClear = false }))

	assert.False(t, h.tick().Visible)
}

func TestTick_ZeroCountsNeverReuseOldMessage(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 2},
		withConfig(func(c *checkin.Config) { c.ShowAllClear = false }))
	require.True(t, h.tick().Visible)
	h.clock.Advance(10 * time.Second)

	h.fetcher.Set(model.Stats{model.PendingMaintenance: 0})
	assert.False(t, h.tick().Visible)
}

func TestTick_FetchFailureSkipsTick(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 2})
	h.fetcher.Fail(errors.New("backend down"))

	v := h.tick()

	assert.False(t, v.Visible)
	assert.Zero(t, h.publishedCount())
	stats, _, at := h.engine.LastStats()
	assert.Nil(t, stats)
	assert.True(t, at.IsZero())

	h.fetcher.Set(model.Stats{model.PendingMaintenance: 2})
	assert.True(t, h.tick().Visible)
}

func TestTick_ProgressTickSkipsInitialAndFollowUp(t *testing.T) {
	h := newHarness(t, model.Stats{
		model.PendingMaintenance: 5,
		model.PendingInspections: 3,
	}, withAcks(ack(model.PendingMaintenance, 2*time.Hour, 5)))

	assert.False(t, h.fastTick().Visible)
	assert.False(t, h.engine.CurrentView().Visible)
}

func TestTick_ProgressTickUsesPicker(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 4},
		withAcks(ack(model.PendingMaintenance, time.Minute, 5)))
	h.engine = h.build(checkin.WithPicker(func(n int) int { return n - 1 }))

	v := h.fastTick()

	require.Equal(t, model.StageProgress, v.Stage)
	assert.Equal(t, "Great job, that's 1 maintenance request down and 4 remaining.", v.Message)
}

func TestFollowUpAnswer_Yes(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 5},
		withAcks(ack(model.PendingMaintenance, 2*time.Hour, 5)))
	require.Equal(t, model.StageFollowUp, h.tick().Stage)

	require.NoError(t, h.engine.FollowUpAnswer(h.ctx, true))

	v := h.engine.CurrentView()
	assert.Equal(t, model.StageAcknowledged, v.Stage)
	assert.Equal(t, message.AffirmedText, v.Message)
	acks, _ := h.engine.Records()
	assert.NotContains(t, acks, model.PendingMaintenance)
	assert.Len(t, h.eventsOf(model.EventResolved), 1)
}

func TestFollowUpAnswer_NoThenNote(t *testing.T) {
	h := newHarness(t, model.Stats{model.SentInvoices: 3},
		withAcks(ack(model.SentInvoices, 2*time.Hour, 3)))
	require.Equal(t, model.StageFollowUp, h.tick().Stage)

	require.NoError(t, h.engine.FollowUpAnswer(h.ctx, false))
	v := h.engine.CurrentView()
	assert.Equal(t, model.StageQuestion, v.Stage)
	assert.Equal(t, message.QuestionText, v.Message)
	assert.Equal(t, []model.Action{model.ActionSubmit, model.ActionDismiss}, v.Actions)

	require.NoError(t, h.engine.SubmitNote(h.ctx, "  tenant is away until Friday "))
	v = h.engine.CurrentView()
	assert.Equal(t, model.StageAcknowledged, v.Stage)
	assert.Equal(t, message.NoteSavedText, v.Message)

	notes := h.eventsOf(model.EventNote)
	require.Len(t, notes, 1)
	assert.Equal(t, "tenant is away until Friday", notes[0].Note)
	assert.Equal(t, model.SentInvoices, notes[0].Category)
	assert.Len(t, h.eventsOf(model.EventBlocked), 1)
}

func TestQuestion_ExpiresAfterTimeout(t *testing.T) {
	h := newHarness(t, model.Stats{model.SentInvoices: 3},
		withAcks(ack(model.SentInvoices, 2*time.Hour, 3)))
	h.tick()
	require.NoError(t, h.engine.FollowUpAnswer(h.ctx, false))

	h.clock.Advance(29 * time.Second)
	assert.True(t, h.engine.CurrentView().Visible)
	h.clock.Advance(time.Second)
	assert.False(t, h.engine.CurrentView().Visible)
}

func TestQuestion_KeepAliveRestartsTimeout(t *testing.T) {
	h := newHarness(t, model.Stats{model.SentInvoices: 3},
		withAcks(ack(model.SentInvoices, 2*time.Hour, 3)))
	h.tick()
	require.NoError(t, h.engine.FollowUpAnswer(h.ctx, false))

	h.clock.Advance(25 * time.Second)
	require.NoError(t, h.engine.KeepAlive())
	h.clock.Advance(25 * time.Second)
	assert.True(t, h.engine.CurrentView().Visible, "typing keeps the prompt open")

	require.NoError(t, h.engine.SubmitNote(h.ctx, "waiting on parts"))
	assert.Len(t, h.eventsOf(model.EventNote), 1)
}

func TestKeepAlive_OutsideQuestion(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 1})

	assert.ErrorIs(t, h.engine.KeepAlive(), checkin.ErrInvalidAction)
	h.tick()
	assert.ErrorIs(t, h.engine.KeepAlive(), checkin.ErrInvalidAction)

	h.clock.Advance(10 * time.Second)
	assert.False(t, h.engine.CurrentView().Visible, "timeout untouched")
}

func TestTimeouts_PerStage(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 1})
	h.tick()

	h.clock.Advance(9 * time.Second)
	assert.True(t, h.engine.CurrentView().Visible)
	h.clock.Advance(time.Second)
	assert.False(t, h.engine.CurrentView().Visible)
	assert.Equal(t, 2, h.publishedCount(), "shown then hidden")
}

func TestSnooze_HidesOneCategory(t *testing.T) {
	h := newHarness(t, model.Stats{
		model.PendingMaintenance: 2,
		model.PendingInspections: 1,
	})
	require.Equal(t, model.PendingMaintenance, h.tick().Category)

	require.NoError(t, h.engine.Snooze(h.ctx, model.PendingMaintenance))
	assert.False(t, h.engine.CurrentView().Visible)
	_, dismissals := h.engine.Records()
	assert.Equal(t, 2, dismissals[model.PendingMaintenance].Count)

	next := h.tick()
	assert.Equal(t, model.PendingInspections, next.Category)
	assert.Len(t, h.eventsOf(model.EventSnoozed), 1)
}

func TestSnooze_ComesBackAsFollowUp(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 2})
	h.tick()
	require.NoError(t, h.engine.Snooze(h.ctx, model.PendingMaintenance))

	h.clock.Advance(61 * time.Minute)
	v := h.tick()

	assert.Equal(t, model.StageFollowUp, v.Stage)
	assert.Contains(t, v.Message, "still 2")
}

func TestLatestRecordWins(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 6},
		withAcks(ack(model.PendingMaintenance, 3*time.Hour, 6)),
		withDismissals(ack(model.PendingMaintenance, 10*time.Minute, 6)))

	assert.False(t, h.tick().Visible, "recent dismissal outranks the stale ack")
}

func TestActions_Invalid(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 2})

	assert.ErrorIs(t, h.engine.Attend(h.ctx, model.PendingMaintenance), checkin.ErrInvalidAction)
	assert.ErrorIs(t, h.engine.Dismiss(h.ctx), checkin.ErrInvalidAction)

	h.tick()
	assert.ErrorIs(t, h.engine.FollowUpAnswer(h.ctx, true), checkin.ErrInvalidAction)
	assert.ErrorIs(t, h.engine.SubmitNote(h.ctx, "x"), checkin.ErrInvalidAction)
	assert.ErrorIs(t, h.engine.Attend(h.ctx, model.SentInvoices), checkin.ErrInvalidAction)

	v := h.engine.CurrentView()
	assert.Equal(t, model.StageInitial, v.Stage, "invalid actions leave the view alone")
}

func TestStorageWriteFailure_KeepsStateInMemory(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 3})
	h.tick()
	h.kv.FailWrites(true)

	require.NoError(t, h.engine.Attend(h.ctx, model.PendingMaintenance))

	assert.Equal(t, model.StageAcknowledged, h.engine.CurrentView().Stage)
	acks, _ := h.engine.Records()
	assert.Equal(t, 3, acks[model.PendingMaintenance].Count)
	_, persisted := h.kv.Raw(store.KeyAcks)
	assert.False(t, persisted)
}

func TestClearOnResolve(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 0},
		withAcks(ack(model.PendingMaintenance, time.Hour, 4)),
		withConfig(func(c *checkin.Config) { c.ShowAllClear = false }))

	h.tick()

	acks, _ := h.engine.Records()
	assert.Empty(t, acks)
	assert.Len(t, h.eventsOf(model.EventResolved), 1)
}

func TestClose_DiscardsInFlightFetch(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 3})
	entered, release := h.fetcher.Block()
	defer release()

	done := make(chan model.View, 1)
	go func() { done <- h.tick() }()
	<-entered

	require.NoError(t, h.engine.Close())
	release()

	v := <-done
	assert.False(t, v.Visible)
	assert.False(t, h.engine.CurrentView().Visible)
	assert.Zero(t, h.publishedCount())
	assert.Zero(t, h.clock.Pending())
}

func TestTick_SkipsWhileFetching(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 3})
	entered, release := h.fetcher.Block()

	done := make(chan model.View, 1)
	go func() { done <- h.tick() }()
	<-entered

	assert.False(t, h.fastTick().Visible)
	assert.Equal(t, 1, h.fetcher.Calls())

	release()
	assert.True(t, (<-done).Visible)
}

func TestGreeting(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 3})
	h.engine.SetDisplayName("Sam")

	v := h.tick()

	assert.Contains(t, v.Message, "Hi Sam, you have 3")
}

func TestCategoriesFilter(t *testing.T) {
	h := newHarness(t, model.Stats{
		model.PendingMaintenance: 3,
		model.SentInvoices:       1,
	}, withConfig(func(c *checkin.Config) {
		c.Categories = []model.CategoryKey{model.SentInvoices}
	}))

	v := h.tick()

	assert.Equal(t, model.SentInvoices, v.Category)
	stats, _, _ := h.engine.LastStats()
	assert.NotContains(t, stats, model.PendingMaintenance)
}

func TestState_SurvivesRestart(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 3})
	h.tick()
	require.NoError(t, h.engine.Attend(h.ctx, model.PendingMaintenance))
	h.clock.Advance(2 * time.Second)
	h.clock.Advance(time.Minute)
	require.NoError(t, h.engine.Close())

	restarted := h.build()
	acks, _ := restarted.Records()
	assert.Equal(t, 3, acks[model.PendingMaintenance].Count)
	assert.False(t, restarted.Tick(h.ctx, checkin.TickRegular).Visible)
}

func TestState_UnreadableLoadsEmpty(t *testing.T) {
	kv := testutil.NewFlakyKV()
	require.NoError(t, kv.Set(context.Background(), store.KeyAcks, "{not json"))
	state := store.NewCheckinState(kv)

	e := checkin.New(context.Background(), checkin.DefaultConfig(),
		testutil.NewStubFetcher(model.Stats{model.PendingMaintenance: 1}), state,
		checkin.WithClock(testutil.NewFakeClock(t0)))
	defer e.Close()

	acks, _ := e.Records()
	assert.Empty(t, acks)
	assert.True(t, e.Tick(context.Background(), checkin.TickRegular).Visible)
}

func TestReset(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 3},
		withAcks(ack(model.PendingMaintenance, time.Minute, 3)))
	h.tick()

	require.NoError(t, h.engine.Reset(h.ctx))

	acks, dismissals := h.engine.Records()
	assert.Empty(t, acks)
	assert.Empty(t, dismissals)
	_, ok := h.kv.Raw(store.KeyAcks)
	assert.False(t, ok)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	h := newHarness(t, model.Stats{model.PendingMaintenance: 3})
	var got []model.View
	unsubscribe := h.engine.Subscribe(func(v model.View) { got = append(got, v) })

	h.tick()
	unsubscribe()
	h.clock.Advance(10 * time.Second)

	require.Len(t, got, 1)
	assert.Equal(t, model.StageInitial, got[0].Stage)
}
