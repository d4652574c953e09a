package testutil

import (
	"context"
	"sync"

	"github.com/nhle/pulse/internal/model"
)

// StubFetcher serves canned stats to the check-in engine. It satisfies
// checkin.StatsFetcher.
type StubFetcher struct {
	mu      sync.Mutex
	stats   model.Stats
	details model.Details
	err     error
	calls   int

	// gate, when set, blocks FetchStats until it is closed.
	gate    chan struct{}
	entered chan struct{}
}

// NewStubFetcher returns a fetcher serving stats.
func NewStubFetcher(stats model.Stats) *StubFetcher {
	return &StubFetcher{stats: stats}
}

// Set replaces the served stats and clears any error.
func (f *StubFetcher) Set(stats model.Stats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = stats
	f.err = nil
}

// SetDetails replaces the served details.
func (f *StubFetcher) SetDetails(details model.Details) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details = details
}

// Fail makes every later fetch return err.
func (f *StubFetcher) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Block makes the next fetches wait until the returned release func is
// called. Entered is signalled when a fetch starts waiting.
func (f *StubFetcher) Block() (entered <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 1)
	gate := f.gate
	var once sync.Once
	return f.entered, func() { once.Do(func() { close(gate) }) }
}

// Calls returns how many fetches ran.
func (f *StubFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FetchStats implements checkin.StatsFetcher.
func (f *StubFetcher) FetchStats(ctx context.Context) (model.Stats, model.Details, error) {
	f.mu.Lock()
	f.calls++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if gate != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	out := make(model.Stats, len(f.stats))
	for k, v := range f.stats {
		out[k] = v
	}
	return out, f.details, nil
}
