package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/pulse/internal/checkin"
	"github.com/nhle/pulse/internal/model"
)

// PollState represents the current state of one polling loop.
type PollState int

const (
	PollIdle PollState = iota
	PollRunning
)

// PollStatus holds the state of one polling loop.
type PollStatus struct {
	Kind     checkin.TickKind
	State    PollState
	LastTick time.Time
	Ticks    int
}

// ViewMsg is a tea.Msg sent whenever the check-in view changes.
type ViewMsg struct {
	View model.View
}

// Ticker runs one poll. *checkin.Engine implements it.
type Ticker interface {
	Tick(ctx context.Context, kind checkin.TickKind) model.View
}

// tickTimeout is the maximum time allowed for a single tick.
const tickTimeout = 30 * time.Second

// Poller drives the regular and the fast progress poll on independent
// tickers. Whichever tick lands first wins; the engine skips the other.
type Poller struct {
	ticker   Ticker
	regular  time.Duration
	progress time.Duration
	logger   *zap.Logger

	statuses  map[checkin.TickKind]*PollStatus
	viewCh    chan ViewMsg
	triggerCh chan checkin.TickKind
	stopCh    chan struct{}
	wg        gosync.WaitGroup
	mu        gosync.Mutex
	running   bool
}

// New creates a Poller ticking t every regular and progress interval.
func New(t Ticker, regular, progress time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		ticker:   t,
		regular:  regular,
		progress: progress,
		logger:   logger,
		statuses: map[checkin.TickKind]*PollStatus{
			checkin.TickRegular:  {Kind: checkin.TickRegular},
			checkin.TickProgress: {Kind: checkin.TickProgress},
		},
		viewCh:    make(chan ViewMsg, 16),
		triggerCh: make(chan checkin.TickKind, 4),
		stopCh:    make(chan struct{}),
	}
}

// Start launches both polling goroutines and returns a tea.Cmd that
// waits for the next view change.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(2)
	go p.loop(checkin.TickRegular, p.regular, true)
	go p.loop(checkin.TickProgress, p.progress, false)

	return p.waitForView()
}

// Stop halts both polling goroutines and waits for them to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
}

// Trigger requests an immediate tick of kind.
func (p *Poller) Trigger(kind checkin.TickKind) tea.Cmd {
	select {
	case p.triggerCh <- kind:
	default:
	}
	return nil
}

// Publish queues a view change for the UI. It never blocks; changes are
// dropped when the queue is full. Pass it to Engine.Subscribe.
func (p *Poller) Publish(v model.View) {
	select {
	case p.viewCh <- ViewMsg{View: v}:
	default:
		p.logger.Debug("view queue full, dropping change")
	}
}

// Messages exposes view changes to consumers outside Bubble Tea.
func (p *Poller) Messages() <-chan ViewMsg {
	return p.viewCh
}

// GetStatuses returns the state of both polling loops.
func (p *Poller) GetStatuses() []PollStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	return []PollStatus{
		*p.statuses[checkin.TickRegular],
		*p.statuses[checkin.TickProgress],
	}
}

func (p *Poller) loop(kind checkin.TickKind, interval time.Duration, immediate bool) {
	defer p.wg.Done()

	if interval <= 0 {
		interval = 45 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	if immediate {
		p.tick(kind)
	}

	for {
		select {
		case <-p.stopCh:
			return
		case <-t.C:
			p.tick(kind)
		case k := <-p.triggerCh:
			p.tick(k)
		}
	}
}

func (p *Poller) tick(kind checkin.TickKind) {
	p.setState(kind, PollRunning)
	defer p.setState(kind, PollIdle)

	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	// Abandon the tick when Stop is called mid-fetch.
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	v := p.ticker.Tick(ctx, kind)
	p.logger.Debug("tick",
		zap.String("kind", string(kind)),
		zap.Bool("visible", v.Visible),
		zap.String("stage", string(v.Stage)))
}

func (p *Poller) setState(kind checkin.TickKind, state PollState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[kind]
	if !ok {
		return
	}
	status.State = state
	if state == PollIdle {
		status.LastTick = time.Now()
		status.Ticks++
	}
}

// waitForView returns a tea.Cmd that waits for the next view change.
func (p *Poller) waitForView() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-p.viewCh
		if !ok {
			return nil
		}
		return msg
	}
}

// WaitForNextView returns a tea.Cmd that waits for the next view change.
// Call it after handling a ViewMsg to keep listening.
func (p *Poller) WaitForNextView() tea.Cmd {
	return p.waitForView()
}
