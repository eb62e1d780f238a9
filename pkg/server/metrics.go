package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reflow-dev/reflow/pkg/reactive"
)

// Metrics holds the Prometheus instruments for session and scheduler
// activity. One instance is shared by every session of a Server.
type Metrics struct {
	sessionsActive prometheus.Gauge
	sessionsTotal  prometheus.Counter
	sessionsClosed prometheus.Counter

	eventsTotal   *prometheus.CounterVec
	eventDuration prometheus.Histogram

	patchFrames prometheus.Counter
	patchOps    prometheus.Counter

	flushesTotal  prometheus.Counter
	flushWatchers prometheus.Histogram
	runawayTotal  prometheus.Counter
}

// NewMetrics registers the server's instruments with reg. Pass
// prometheus.DefaultRegisterer outside of tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "reflow",
			Name:      "sessions_active",
			Help:      "Number of live WebSocket sessions.",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reflow",
			Name:      "sessions_total",
			Help:      "Total sessions created.",
		}),
		sessionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reflow",
			Name:      "sessions_closed_total",
			Help:      "Total sessions closed.",
		}),
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reflow",
			Name:      "events_total",
			Help:      "Client events processed, by outcome.",
		}, []string{"status"}),
		eventDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reflow",
			Name:      "event_duration_seconds",
			Help:      "Time from event receipt to patch frame sent.",
			Buckets:   prometheus.DefBuckets,
		}),
		patchFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reflow",
			Name:      "patch_frames_total",
			Help:      "Patch frames sent to clients.",
		}),
		patchOps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reflow",
			Name:      "patch_ops_total",
			Help:      "Document operations shipped in patch frames.",
		}),
		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reflow",
			Name:      "scheduler_flushes_total",
			Help:      "Scheduler flushes across all sessions.",
		}),
		flushWatchers: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reflow",
			Name:      "scheduler_flush_watchers",
			Help:      "Watchers run per flush.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),
		runawayTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reflow",
			Name:      "scheduler_runaway_total",
			Help:      "Flushes aborted by the circular-update guard.",
		}),
	}
}

// SchedulerHooks returns hooks that feed a session scheduler's flush
// activity into the shared instruments.
func (m *Metrics) SchedulerHooks() reactive.SchedulerHooks {
	if m == nil {
		return reactive.SchedulerHooks{}
	}
	return reactive.SchedulerHooks{
		OnFlushEnd: func(ran int) {
			m.flushesTotal.Inc()
			m.flushWatchers.Observe(float64(ran))
		},
		OnRunaway: func(uint64, string, bool) {
			m.runawayTotal.Inc()
		},
	}
}

func (m *Metrics) sessionCreated() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
	m.sessionsTotal.Inc()
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
	m.sessionsClosed.Inc()
}

func (m *Metrics) eventProcessed(status string, seconds float64) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(status).Inc()
	m.eventDuration.Observe(seconds)
}

func (m *Metrics) patchSent(ops int) {
	if m == nil {
		return
	}
	m.patchFrames.Inc()
	m.patchOps.Add(float64(ops))
}
