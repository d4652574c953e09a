package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/pulse/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err, "creating test store")

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// ErrInjected is returned by FlakyKV once failures are enabled.
var ErrInjected = errors.New("injected failure")

// FlakyKV is an in-memory store.KV whose writes can be made to fail.
type FlakyKV struct {
	mu         sync.Mutex
	data       map[string]string
	failWrites bool
	failReads  bool
}

var _ store.KV = (*FlakyKV)(nil)

// NewFlakyKV returns an empty, healthy KV.
func NewFlakyKV() *FlakyKV {
	return &FlakyKV{data: make(map[string]string)}
}

// FailWrites makes Set and Delete fail with ErrInjected.
func (k *FlakyKV) FailWrites(fail bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.failWrites = fail
}

// FailReads makes Get fail with ErrInjected.
func (k *FlakyKV) FailReads(fail bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.failReads = fail
}

// Get implements store.KV.
func (k *FlakyKV) Get(_ context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.failReads {
		return "", false, ErrInjected
	}
	v, ok := k.data[key]
	return v, ok, nil
}

// Set implements store.KV.
func (k *FlakyKV) Set(_ context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.failWrites {
		return errors.Join(store.ErrStorageWriteFailed, ErrInjected)
	}
	k.data[key] = value
	return nil
}

// Delete implements store.KV.
func (k *FlakyKV) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.failWrites {
		return errors.Join(store.ErrStorageWriteFailed, ErrInjected)
	}
	delete(k.data, key)
	return nil
}

// Raw returns the stored value for key.
func (k *FlakyKV) Raw(key string) (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[key]
	return v, ok
}
