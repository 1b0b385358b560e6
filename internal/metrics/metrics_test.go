package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordForward(t *testing.T) {
	m := NewModelMetrics("metrics_test_forward")
	before := testutil.ToFloat64(ForwardPasses.WithLabelValues("metrics_test_forward"))

	m.RecordForward(5 * time.Millisecond)
	m.RecordForward(7 * time.Millisecond)

	after := testutil.ToFloat64(ForwardPasses.WithLabelValues("metrics_test_forward"))
	assert.Equal(t, before+2, after)
}

func TestRecordEpoch(t *testing.T) {
	m := NewModelMetrics("metrics_test_epoch")

	m.RecordEpoch("rmsprop", 0.5)
	m.RecordEpoch("rmsprop", 0.25)

	assert.Equal(t, 2.0, testutil.ToFloat64(TrainingEpochs.WithLabelValues("metrics_test_epoch", "rmsprop")))
	assert.Equal(t, 0.25, testutil.ToFloat64(TrainingLoss.WithLabelValues("metrics_test_epoch")))
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	assert.GreaterOrEqual(t, timer.Duration(), time.Duration(0))
}
