package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	poolIdle          *prometheus.GaugeVec
	checkoutTotal     *prometheus.CounterVec
	sessionsDiscarded *prometheus.CounterVec

	sinkQueueDepth  prometheus.Gauge
	recordsPersist  prometheus.Counter
	recordsDropped  prometheus.Counter
	persistFailures prometheus.Counter
	persistDuration prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			poolIdle: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "store_pool_idle_sessions",
					Help: "Current idle sessions cached by kind.",
				},
				[]string{"kind"},
			),
			checkoutTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "store_checkout_total",
					Help: "Total session checkouts by kind and source (pool or dial).",
				},
				[]string{"kind", "source"},
			),
			sessionsDiscarded: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "store_sessions_discarded_total",
					Help: "Total sessions closed instead of pooled by kind.",
				},
				[]string{"kind"},
			),
			sinkQueueDepth: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "sink_queue_depth",
					Help: "Records currently queued for persistence.",
				},
			),
			recordsPersist: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "sink_records_persisted_total",
					Help: "Total records written to the store.",
				},
			),
			recordsDropped: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "sink_records_dropped_total",
					Help: "Total records dropped because the queue was full.",
				},
			),
			persistFailures: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "sink_persist_failures_total",
					Help: "Total persistence attempts that failed.",
				},
			),
			persistDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "sink_persist_duration_seconds",
					Help:    "Record persistence duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
		}

		prometheus.MustRegister(
			m.poolIdle,
			m.checkoutTotal,
			m.sessionsDiscarded,
			m.sinkQueueDepth,
			m.recordsPersist,
			m.recordsDropped,
			m.persistFailures,
			m.persistDuration,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

// SetPoolIdle records the current idle-session count for a kind.
func SetPoolIdle(kind string, n int) {
	getMetrics().poolIdle.WithLabelValues(kind).Set(float64(n))
}

// CheckoutHit counts a checkout satisfied from the pool.
func CheckoutHit(kind string) {
	getMetrics().checkoutTotal.WithLabelValues(kind, "pool").Inc()
}

// CheckoutDial counts a checkout that dialed a new session.
func CheckoutDial(kind string) {
	getMetrics().checkoutTotal.WithLabelValues(kind, "dial").Inc()
}

// SessionDiscarded counts a session closed instead of pooled.
func SessionDiscarded(kind string) {
	getMetrics().sessionsDiscarded.WithLabelValues(kind).Inc()
}

// SetSinkQueueDepth records the current persistence queue depth.
func SetSinkQueueDepth(n int) {
	getMetrics().sinkQueueDepth.Set(float64(n))
}

// RecordPersisted counts a successful write and its duration.
func RecordPersisted(seconds float64) {
	getMetrics().recordsPersist.Inc()
	getMetrics().persistDuration.Observe(seconds)
}

// RecordDropped counts a record dropped on a full queue.
func RecordDropped() {
	getMetrics().recordsDropped.Inc()
}

// PersistFailed counts a persistence attempt that failed.
func PersistFailed() {
	getMetrics().persistFailures.Inc()
}
