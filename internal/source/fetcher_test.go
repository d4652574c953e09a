package source_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/source"
)

type memLister struct {
	mu    sync.Mutex
	docs  map[model.Collection][]model.Document
	fail  map[model.Collection]error
	calls map[model.Collection]int
}

func newMemLister() *memLister {
	return &memLister{
		docs:  make(map[model.Collection][]model.Document),
		fail:  make(map[model.Collection]error),
		calls: make(map[model.Collection]int),
	}
}

func (l *memLister) ListAll(ctx context.Context, c model.Collection) ([]model.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[c]++
	if err := l.fail[c]; err != nil {
		return nil, err
	}
	return l.docs[c], nil
}

func TestFetcher_FetchReadsEveryCollection(t *testing.T) {
	l := newMemLister()
	l.docs[model.CollectionMaintenance] = []model.Document{
		{"id": "m1", "status": "not-started", "title": "Leak"},
		{"id": "m2", "title": "No status"},
	}
	l.docs[model.CollectionBuildings] = []model.Document{{"id": "b1", "name": "Harbour View"}}
	at := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	f := source.NewFetcher(l, nil, source.WithNow(func() time.Time { return at }))
	snap, err := f.Fetch(context.Background())

	require.NoError(t, err)
	for _, c := range model.Collections {
		assert.Equal(t, 1, l.calls[c], c)
	}
	require.Len(t, snap.Maintenance, 1)
	assert.Equal(t, "Leak", snap.Maintenance[0].Title)
	assert.Equal(t, 1, snap.Malformed)
	require.Len(t, snap.Buildings, 1)
	assert.Equal(t, at, snap.FetchedAt)
}

func TestFetcher_AnyFailureFailsTheFetch(t *testing.T) {
	l := newMemLister()
	l.docs[model.CollectionMaintenance] = []model.Document{{"id": "m1", "status": "not-started"}}
	l.fail[model.CollectionInvoices] = errors.New("503")

	f := source.NewFetcher(l, nil)
	stats, details, err := f.FetchStats(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrFetchFailed)
	var fe *source.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, model.CollectionInvoices, fe.Collection)
	assert.Nil(t, stats)
	assert.Nil(t, details)
}

func TestFetcher_AuthErrorSurvivesWrapping(t *testing.T) {
	l := newMemLister()
	l.fail[model.CollectionCleanings] = &source.AuthError{Backend: "rest", Message: "401"}

	_, _, err := source.NewFetcher(l, nil).FetchStats(context.Background())

	assert.True(t, source.IsAuthError(err))
	assert.ErrorIs(t, err, source.ErrFetchFailed)
}

func TestFetcher_FetchStats(t *testing.T) {
	l := newMemLister()
	l.docs[model.CollectionInvoices] = []model.Document{
		{"id": "v1", "status": "Sent", "number": 1042, "dueDate": "2025-02-14"},
		{"id": "v2", "status": "Sent", "number": "1043"},
		{"id": "v3", "status": "Draft"},
	}

	stats, details, err := source.NewFetcher(l, nil, source.WithMaxDetails(1)).FetchStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats[model.SentInvoices])
	assert.Equal(t, 1, stats[model.DraftInvoices])
	require.Len(t, details[model.SentInvoices], 1)
	assert.Equal(t, "#1042 due Feb 14", details[model.SentInvoices][0].Label)
}

func TestFetcher_Timeout(t *testing.T) {
	slow := listerFunc(func(ctx context.Context, c model.Collection) ([]model.Document, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := source.NewFetcher(slow, nil, source.WithTimeout(10*time.Millisecond)).Fetch(context.Background())

	assert.ErrorIs(t, err, source.ErrFetchFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type listerFunc func(ctx context.Context, c model.Collection) ([]model.Document, error)

func (f listerFunc) ListAll(ctx context.Context, c model.Collection) ([]model.Document, error) {
	return f(ctx, c)
}
