// Package metrics provides Prometheus metrics for model evaluation and
// training.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ForwardPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fatigue_forward_passes_total",
			Help: "Total number of batched forward passes",
		},
		[]string{"variant"},
	)

	ForwardDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fatigue_forward_duration_seconds",
			Help:    "Time taken by a batched forward pass",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"variant"},
	)

	TrainingEpochs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fatigue_training_epochs_total",
			Help: "Total number of completed training epochs",
		},
		[]string{"variant", "optimizer"},
	)

	TrainingLoss = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fatigue_training_loss",
			Help: "Loss at the end of the most recent training epoch",
		},
		[]string{"variant"},
	)
)

// ModelMetrics records metrics for one model variant.
type ModelMetrics struct {
	variant string
}

func NewModelMetrics(variant string) *ModelMetrics {
	return &ModelMetrics{variant: variant}
}

func (m *ModelMetrics) RecordForward(duration time.Duration) {
	ForwardPasses.WithLabelValues(m.variant).Inc()
	ForwardDuration.WithLabelValues(m.variant).Observe(duration.Seconds())
}

func (m *ModelMetrics) RecordEpoch(optimizer string, loss float64) {
	TrainingEpochs.WithLabelValues(m.variant, optimizer).Inc()
	TrainingLoss.WithLabelValues(m.variant).Set(loss)
}

// Timer measures elapsed time from its creation.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
