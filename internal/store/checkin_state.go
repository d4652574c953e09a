package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nhle/pulse/internal/model"
)

// Keys under which check-in state is kept in the KV store.
const (
	KeyAcks           = "checkin.acks"
	KeyDismissals     = "checkin.dismissals"
	KeyDismissedUntil = "checkin.dismissed_until"
)

// Records maps a category to its single latest record.
type Records map[model.CategoryKey]model.CategoryRecord

// CheckinState reads and writes acknowledgement, dismissal and global
// suppression state as JSON values in a KV store. Unreadable values load
// as empty.
type CheckinState struct {
	kv KV
}

// NewCheckinState wraps kv.
func NewCheckinState(kv KV) *CheckinState {
	return &CheckinState{kv: kv}
}

// LoadAcks returns the acknowledgement records.
func (s *CheckinState) LoadAcks(ctx context.Context) (Records, error) {
	return s.loadRecords(ctx, KeyAcks)
}

// SaveAcks replaces the acknowledgement records.
func (s *CheckinState) SaveAcks(ctx context.Context, recs Records) error {
	return s.saveRecords(ctx, KeyAcks, recs)
}

// LoadDismissals returns the per-category dismissal records.
func (s *CheckinState) LoadDismissals(ctx context.Context) (Records, error) {
	return s.loadRecords(ctx, KeyDismissals)
}

// SaveDismissals replaces the per-category dismissal records.
func (s *CheckinState) SaveDismissals(ctx context.Context, recs Records) error {
	return s.saveRecords(ctx, KeyDismissals, recs)
}

// LoadDismissedUntil returns the end of the global suppression window, or
// the zero time when none was set.
func (s *CheckinState) LoadDismissedUntil(ctx context.Context) (time.Time, error) {
	v, ok, err := s.kv.Get(ctx, KeyDismissedUntil)
	if err != nil || !ok {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

// SaveDismissedUntil stores the end of the global suppression window.
func (s *CheckinState) SaveDismissedUntil(ctx context.Context, t time.Time) error {
	return s.kv.Set(ctx, KeyDismissedUntil, t.UTC().Format(time.RFC3339Nano))
}

// Reset removes all check-in state.
func (s *CheckinState) Reset(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyAcks, KeyDismissals, KeyDismissedUntil} {
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *CheckinState) loadRecords(ctx context.Context, key string) (Records, error) {
	recs := make(Records)
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return recs, err
	}
	if !ok || v == "" {
		return recs, nil
	}
	if err := json.Unmarshal([]byte(v), &recs); err != nil {
		return make(Records), nil
	}
	return recs, nil
}

func (s *CheckinState) saveRecords(ctx context.Context, key string, recs Records) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrStorageWriteFailed, key, err)
	}
	return s.kv.Set(ctx, key, string(data))
}

// Composite serves KV and EventLog from separate backends.
type Composite struct {
	KV
	EventLog
	closers []io.Closer
}

// NewComposite combines kv and log. Close closes every closer in order.
func NewComposite(kv KV, log EventLog, closers ...io.Closer) *Composite {
	return &Composite{KV: kv, EventLog: log, closers: closers}
}

// Close closes the underlying backends.
func (c *Composite) Close() error {
	var errs []error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
