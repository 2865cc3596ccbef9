package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ClassificationsTotal counts analyze-report requests by classifier mode and result.
	ClassificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ciudamos",
		Subsystem: "ai",
		Name:      "classifications_total",
		Help:      "Total number of image classifications, labeled by classifier mode and result.",
	}, []string{"mode", "result"})

	// ClassificationDurationSeconds is the time spent in the classifier per request.
	ClassificationDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ciudamos",
		Subsystem: "ai",
		Name:      "classification_duration_seconds",
		Help:      "Time spent classifying one image.",
		Buckets:   []float64{0.01, 0.05, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"mode"})

	// LowConfidenceTotal counts results below the review threshold.
	LowConfidenceTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ciudamos",
		Subsystem: "ai",
		Name:      "low_confidence_total",
		Help:      "Total number of classifications whose confidence is below the review threshold.",
	})

	// ReportsStored is the number of reports in the last persisted envelope.
	ReportsStored = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ciudamos",
		Subsystem: "store",
		Name:      "reports",
		Help:      "Number of reports in the last successfully persisted envelope.",
	})

	// LastPersistSeconds is a unix timestamp (seconds) of the last successful write.
	LastPersistSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ciudamos",
		Subsystem: "store",
		Name:      "last_persist_timestamp_seconds",
		Help:      "Unix timestamp (seconds) of the last successful store write.",
	})

	PersistErrorTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ciudamos",
		Subsystem: "store",
		Name:      "persist_error_total",
		Help:      "Total number of store mutations that could not be persisted after a retry, labeled by operation.",
	}, []string{"op"})

	MirrorRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ciudamos",
		Subsystem: "store",
		Name:      "mirror_runs_total",
		Help:      "Total number of scheduled envelope mirror runs, labeled by result.",
	}, []string{"result"})
)

// Register registers the service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ClassificationsTotal,
			ClassificationDurationSeconds,
			LowConfidenceTotal,
			ReportsStored,
			LastPersistSeconds,
			PersistErrorTotal,
			MirrorRunsTotal,
		)
	})
}

func NowUnixSeconds() float64 {
	return float64(time.Now().Unix())
}

// StoreObserver feeds store persistence events into the store metrics.
type StoreObserver struct{}

func (StoreObserver) Persisted(reports int) {
	ReportsStored.Set(float64(reports))
	LastPersistSeconds.Set(NowUnixSeconds())
}

func (StoreObserver) PersistFailed(op string) {
	PersistErrorTotal.WithLabelValues(op).Inc()
}
