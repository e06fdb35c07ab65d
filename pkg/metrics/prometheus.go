package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	stageDuration  *prometheus.HistogramVec
	stageSurvivors *prometheus.GaugeVec
	resultsSent    *prometheus.CounterVec
	signalsTotal   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lurescan_stage_duration_seconds",
				Help:    "Wall-clock duration of each funnel stage",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		stageSurvivors: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lurescan_stage_survivors",
				Help: "Symbols surviving each funnel stage in the last pass",
			},
			[]string{"stage"},
		),
		resultsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lurescan_results_sent_total",
				Help: "Total scan results written to a backend",
			},
			[]string{"backend", "symbol"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lurescan_signals_total",
				Help: "Final signals emitted, by classification",
			},
			[]string{"signal"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lurescan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lurescan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordStage records one funnel stage's survivor count and duration.
func (r *Recorder) RecordStage(stage string, survivors int, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
	r.stageSurvivors.WithLabelValues(stage).Set(float64(survivors))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordResultSent records one result delivered to a backend.
func (r *Recorder) RecordResultSent(backend, symbol string) {
	r.resultsSent.WithLabelValues(backend, symbol).Inc()
}

// RecordSignal counts a final classification.
func (r *Recorder) RecordSignal(signal string) {
	r.signalsTotal.WithLabelValues(signal).Inc()
}
