package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Source metrics
	SourceFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_source_fetches_total",
			Help: "Total number of external source fetches",
		},
		[]string{"source", "status"}, // status: success|unavailable|missing
	)

	SourceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_source_latency_seconds",
			Help:    "External source fetch latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"source"},
	)

	// Sentiment metrics
	SentimentLabels = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_sentiment_labels_total",
			Help: "Aggregated sentiment labels produced",
		},
		[]string{"backend", "label"},
	)

	HeadlineClassifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_headline_classifications_total",
			Help: "Per-headline classifications by backend",
		},
		[]string{"backend", "status"},
	)

	// Prediction metrics
	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_predictions_total",
			Help: "Trend predictions by outcome",
		},
		[]string{"symbol", "outcome"}, // outcome: Up|Down|Neutral|insufficient_data
	)

	PutCallRatio = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pulse_put_call_ratio",
			Help: "Last computed put-call open interest ratio",
		},
		[]string{"symbol"},
	)

	SnapshotDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pulse_snapshot_duration_seconds",
			Help:    "Time to assemble one dashboard snapshot",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
	)
)

var initOnce sync.Once

// Init registers all collectors with the default registry. Safe to call
// more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(SourceFetches)
		prometheus.MustRegister(SourceLatency)
		prometheus.MustRegister(SentimentLabels)
		prometheus.MustRegister(HeadlineClassifications)
		prometheus.MustRegister(Predictions)
		prometheus.MustRegister(PutCallRatio)
		prometheus.MustRegister(SnapshotDuration)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordFetch records one source fetch outcome and its latency.
func RecordFetch(source, status string, started time.Time) {
	SourceFetches.WithLabelValues(source, status).Inc()
	SourceLatency.WithLabelValues(source).Observe(time.Since(started).Seconds())
}
