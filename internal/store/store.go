package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/pulse/internal/model"
)

// ErrStorageWriteFailed is matched by every failed write to local state.
var ErrStorageWriteFailed = errors.New("storage write failed")

// KV is a process-local durable key-value store. Get reports false when
// the key is absent.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// EventFilter narrows an event history query.
type EventFilter struct {
	Category *model.CategoryKey
	Kind     *model.EventKind
	Since    *time.Time
	Limit    int
}

// EventLog is the append-only check-in history.
type EventLog interface {
	RecordEvent(ctx context.Context, e model.CheckinEvent) error
	GetEvents(ctx context.Context, filter EventFilter) ([]model.CheckinEvent, error)
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}

// Store combines the key-value state and the event history.
type Store interface {
	KV
	EventLog
	Close() error
}
