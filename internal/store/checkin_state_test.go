package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/store"
	"github.com/nhle/pulse/tests/testutil"
)

func TestCheckinState_RoundTrip(t *testing.T) {
	ctx := context.Background()
	state := store.NewCheckinState(testutil.NewTestStore(t))
	at := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	acks := store.Records{
		model.PendingMaintenance: {Category: model.PendingMaintenance, Timestamp: at, Count: 5},
	}
	require.NoError(t, state.SaveAcks(ctx, acks))
	got, err := state.LoadAcks(ctx)
	require.NoError(t, err)
	require.Contains(t, got, model.PendingMaintenance)
	assert.Equal(t, 5, got[model.PendingMaintenance].Count)
	assert.True(t, got[model.PendingMaintenance].Timestamp.Equal(at))

	dis, err := state.LoadDismissals(ctx)
	require.NoError(t, err)
	assert.Empty(t, dis)

	until := at.Add(45 * time.Minute)
	require.NoError(t, state.SaveDismissedUntil(ctx, until))
	gotUntil, err := state.LoadDismissedUntil(ctx)
	require.NoError(t, err)
	assert.True(t, gotUntil.Equal(until))
}

func TestCheckinState_MalformedValuesLoadEmpty(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewFlakyKV()
	require.NoError(t, kv.Set(ctx, store.KeyAcks, "[1,2"))
	require.NoError(t, kv.Set(ctx, store.KeyDismissedUntil, "yesterday"))
	state := store.NewCheckinState(kv)

	acks, err := state.LoadAcks(ctx)
	require.NoError(t, err)
	assert.Empty(t, acks)

	until, err := state.LoadDismissedUntil(ctx)
	require.NoError(t, err)
	assert.True(t, until.IsZero())
}

func TestCheckinState_WriteFailureIsTyped(t *testing.T) {
	kv := testutil.NewFlakyKV()
	kv.FailWrites(true)
	state := store.NewCheckinState(kv)

	err := state.SaveAcks(context.Background(), store.Records{})

	assert.True(t, errors.Is(err, store.ErrStorageWriteFailed))
}

func TestCheckinState_Reset(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewFlakyKV()
	state := store.NewCheckinState(kv)
	require.NoError(t, state.SaveDismissals(ctx, store.Records{
		model.SentInvoices: {Category: model.SentInvoices, Count: 1},
	}))
	require.NoError(t, state.SaveDismissedUntil(ctx, time.Now()))

	require.NoError(t, state.Reset(ctx))

	for _, key := range []string{store.KeyAcks, store.KeyDismissals, store.KeyDismissedUntil} {
		_, ok := kv.Raw(key)
		assert.False(t, ok, key)
	}
}

func TestComposite_ClosesAll(t *testing.T) {
	var closed []string
	c := store.NewComposite(testutil.NewFlakyKV(), testutil.NewTestStore(t),
		closerFunc(func() error { closed = append(closed, "kv"); return nil }),
		closerFunc(func() error { closed = append(closed, "log"); return errors.New("boom") }),
	)

	err := c.Close()

	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"kv", "log"}, closed)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
