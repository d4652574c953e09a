package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/pulse/internal/model"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.Tick("regular", OutcomeShown)
	m.Tick("regular", OutcomeShown)
	m.Tick("progress", OutcomeBusy)
	m.FetchFailed()
	m.ObserveFetch(120 * time.Millisecond)
	m.Shown(model.StageFollowUp)
	m.Action(model.ActionSnooze)
	m.StorageWriteFailed()
	m.SetCounts(model.Stats{model.PendingMaintenance: 5})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TicksTotal.WithLabelValues("regular", OutcomeShown)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TicksTotal.WithLabelValues("progress", OutcomeBusy)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckinsShown.WithLabelValues("followup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionsTotal.WithLabelValues("snooze")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageWriteFailures))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.CategoryCount.WithLabelValues("pendingMaintenance")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Tick("regular", OutcomeIdle)
		m.FetchFailed()
		m.ObserveFetch(time.Second)
		m.Shown(model.StageInitial)
		m.Action(model.ActionAttend)
		m.StorageWriteFailed()
		m.SetCounts(model.Stats{model.SentInvoices: 1})
	})
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.FetchFailed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "pulse_fetch_failures_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
