package source

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/pulse/internal/aggregate"
	"github.com/nhle/pulse/internal/model"
)

// Fetcher snapshots every collection in model.Collections with one
// concurrent read per collection.
type Fetcher struct {
	lister     Lister
	logger     *zap.Logger
	now        func() time.Time
	timeout    time.Duration
	maxDetails int
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout bounds the whole fetch. Zero means no bound beyond ctx.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.timeout = d }
}

// WithMaxDetails sets how many representative records FetchStats keeps
// per category.
func WithMaxDetails(n int) FetcherOption {
	return func(f *Fetcher) { f.maxDetails = n }
}

// WithNow overrides the time source used to stamp snapshots.
func WithNow(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

// NewFetcher creates a Fetcher reading through lister.
func NewFetcher(lister Lister, logger *zap.Logger, opts ...FetcherOption) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		lister:     lister,
		logger:     logger,
		now:        time.Now,
		maxDetails: 2,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch reads all collections. If any read fails the whole fetch fails
// with a *FetchError and no snapshot is returned.
func (f *Fetcher) Fetch(ctx context.Context) (*model.Snapshot, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var mu sync.Mutex
	raw := make(map[model.Collection][]model.Document, len(model.Collections))

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range model.Collections {
		g.Go(func() error {
			docs, err := f.lister.ListAll(gctx, c)
			if err != nil {
				return &FetchError{Collection: c, Err: err}
			}
			mu.Lock()
			raw[c] = docs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := DecodeSnapshot(raw, f.now())
	if snap.Malformed > 0 {
		f.logger.Debug("skipped malformed records", zap.Int("count", snap.Malformed))
	}
	return snap, nil
}

// FetchStats fetches a snapshot and reduces it to counts and details.
func (f *Fetcher) FetchStats(ctx context.Context) (model.Stats, model.Details, error) {
	snap, err := f.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	stats, details := aggregate.Aggregate(snap, f.maxDetails)
	return stats, details, nil
}
