// Package metrics exposes the check-in engine's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nhle/pulse/internal/model"
)

// Tick outcomes.
const (
	OutcomeShown      = "shown"
	OutcomeIdle       = "idle"
	OutcomeSuppressed = "suppressed"
	OutcomeBusy       = "busy"
	OutcomeFailed     = "failed"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	TicksTotal           *prometheus.CounterVec
	FetchFailures        prometheus.Counter
	FetchDuration        prometheus.Histogram
	CheckinsShown        *prometheus.CounterVec
	ActionsTotal         *prometheus.CounterVec
	StorageWriteFailures prometheus.Counter
	CategoryCount        *prometheus.GaugeVec
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		TicksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_ticks_total",
				Help: "Total number of poll ticks by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		FetchFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "pulse_fetch_failures_total",
			Help: "Total number of failed snapshot fetches",
		}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulse_fetch_duration_seconds",
			Help:    "Duration of snapshot fetches",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		CheckinsShown: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_checkins_shown_total",
				Help: "Total number of check-ins shown by stage",
			},
			[]string{"stage"},
		),
		ActionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_actions_total",
				Help: "Total number of user actions by action",
			},
			[]string{"action"},
		),
		StorageWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "pulse_storage_write_failures_total",
			Help: "Total number of failed writes to local state",
		}),
		CategoryCount: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pulse_category_count",
				Help: "Latest count per category",
			},
			[]string{"category"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Tick counts one poll tick.
func (m *Metrics) Tick(kind, outcome string) {
	if m == nil {
		return
	}
	m.TicksTotal.WithLabelValues(kind, outcome).Inc()
}

// FetchFailed counts a failed fetch.
func (m *Metrics) FetchFailed() {
	if m == nil {
		return
	}
	m.FetchFailures.Inc()
}

// ObserveFetch records how long a fetch took.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// Shown counts a check-in entering stage.
func (m *Metrics) Shown(stage model.Stage) {
	if m == nil {
		return
	}
	m.CheckinsShown.WithLabelValues(string(stage)).Inc()
}

// Action counts a user action.
func (m *Metrics) Action(a model.Action) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(string(a)).Inc()
}

// StorageWriteFailed counts a failed state write.
func (m *Metrics) StorageWriteFailed() {
	if m == nil {
		return
	}
	m.StorageWriteFailures.Inc()
}

// SetCounts publishes the latest count of every category.
func (m *Metrics) SetCounts(stats model.Stats) {
	if m == nil {
		return
	}
	for key, n := range stats {
		m.CategoryCount.WithLabelValues(string(key)).Set(float64(n))
	}
}
