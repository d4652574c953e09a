package sync

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/pulse/internal/checkin"
	"github.com/nhle/pulse/internal/model"
)

type recordingTicker struct {
	mu    gosync.Mutex
	kinds []checkin.TickKind
}

func (r *recordingTicker) Tick(ctx context.Context, kind checkin.TickKind) model.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
	return model.View{}
}

func (r *recordingTicker) seen() []checkin.TickKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]checkin.TickKind(nil), r.kinds...)
}

func TestPoller_ImmediateRegularTick(t *testing.T) {
	rt := &recordingTicker{}
	p := New(rt, time.Hour, time.Hour, nil)

	require.NotNil(t, p.Start())
	t.Cleanup(p.Stop)

	require.Eventually(t, func() bool { return len(rt.seen()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []checkin.TickKind{checkin.TickRegular}, rt.seen())
	assert.Nil(t, p.Start(), "second start is a no-op")
}

func TestPoller_Trigger(t *testing.T) {
	rt := &recordingTicker{}
	p := New(rt, time.Hour, time.Hour, nil)
	p.Start()
	t.Cleanup(p.Stop)
	require.Eventually(t, func() bool { return len(rt.seen()) == 1 }, time.Second, 5*time.Millisecond)

	p.Trigger(checkin.TickProgress)

	require.Eventually(t, func() bool { return len(rt.seen()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, checkin.TickProgress, rt.seen()[1])
}

func TestPoller_IntervalTicks(t *testing.T) {
	rt := &recordingTicker{}
	p := New(rt, time.Hour, 10*time.Millisecond, nil)
	p.Start()
	t.Cleanup(p.Stop)

	require.Eventually(t, func() bool {
		for _, k := range rt.seen() {
			if k == checkin.TickProgress {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		for _, s := range p.GetStatuses() {
			if s.Kind == checkin.TickProgress {
				return s.Ticks > 0 && !s.LastTick.IsZero()
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestPoller_PublishAndWait(t *testing.T) {
	p := New(&recordingTicker{}, time.Hour, time.Hour, nil)
	v := model.View{Visible: true, Stage: model.StageInitial, Message: "hello"}

	p.Publish(v)
	msg := p.WaitForNextView()()

	require.IsType(t, ViewMsg{}, msg)
	assert.Equal(t, v, msg.(ViewMsg).View)
}

func TestPoller_PublishNeverBlocks(t *testing.T) {
	p := New(&recordingTicker{}, time.Hour, time.Hour, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(p.viewCh)+5; i++ {
			p.Publish(model.View{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
	assert.Len(t, p.Messages(), cap(p.viewCh))
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	p := New(&recordingTicker{}, time.Hour, time.Hour, nil)
	p.Stop()
	p.Start()
	p.Stop()
	p.Stop()
}
