package pinn

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"fatiguepinn/internal/interp"
	"fatiguepinn/internal/metrics"
	"fatiguepinn/internal/tuning"
)

// Variant names the damage graph a model is built around.
type Variant string

const (
	VariantPhysics Variant = "physics"
	VariantLearned Variant = "learned"
)

// OptimizerConfig is the training setup compiled into a model.
type OptimizerConfig struct {
	Name         string  `json:"name"`
	LearningRate float64 `json:"learning_rate"`
}

// Params is a flat view over trainable values.
type Params interface {
	Values() []float64
	SetValues(values []float64) error
}

// Evaluation is the loss and the named metrics over a batch.
type Evaluation struct {
	Loss    float64            `json:"loss"`
	Metrics map[string]float64 `json:"metrics"`
}

// FrozenTable is a snapshot of one non-trainable table layer.
type FrozenTable struct {
	Shape  [4]int        `json:"table_shape"`
	Data   []float64     `json:"data"`
	Bounds [2][2]float64 `json:"bounds"`
}

// Model is a compiled sequence model: a cumulative-damage cell driven by an
// RNN, a loss, metrics, an optimizer setup and the trainable parameter view.
// Predict and Evaluate are safe for concurrent use; Fit is not.
type Model struct {
	variant   Variant
	cell      *CumulativeDamageCell
	rnn       RNN
	loss      NamedLoss
	metrics   []NamedLoss
	optimizer OptimizerConfig
	trainable Params
	frozen    []*interp.TableLayer
	mask      InspectionMask
	logger    *zap.Logger
	recorder  *metrics.ModelMetrics
}

func (m *Model) Variant() Variant { return m.variant }

func (m *Model) Cell() *CumulativeDamageCell { return m.cell }

func (m *Model) ReturnSequences() bool { return m.rnn.ReturnSequences }

func (m *Model) Unroll() bool { return m.rnn.Unroll }

func (m *Model) Loss() NamedLoss { return m.loss }

func (m *Model) Metrics() []NamedLoss { return append([]NamedLoss(nil), m.metrics...) }

func (m *Model) Optimizer() OptimizerConfig { return m.optimizer }

// InspectionMask returns the supervised step indices of a physics model, nil
// for a densely supervised one.
func (m *Model) InspectionMask() InspectionMask {
	if m.mask == nil {
		return nil
	}
	return append(InspectionMask(nil), m.mask...)
}

// NewOptimizer returns the compiled RMSprop optimizer.
func (m *Model) NewOptimizer() tuning.Tuner {
	return &tuning.RMSprop{LearningRate: m.optimizer.LearningRate}
}

// Predict evaluates x shaped [batch][steps][features].
func (m *Model) Predict(ctx context.Context, x [][][]float64) ([][]float64, error) {
	timer := metrics.NewTimer()
	out, err := m.rnn.Run(ctx, x)
	if err != nil {
		return nil, err
	}
	m.recorder.RecordForward(timer.Duration())
	return out, nil
}

// Evaluate runs a forward pass and reduces it against y with the loss and
// every metric.
func (m *Model) Evaluate(ctx context.Context, x [][][]float64, y [][]float64) (Evaluation, error) {
	pred, err := m.Predict(ctx, x)
	if err != nil {
		return Evaluation{}, err
	}
	loss, err := m.loss.Fn(y, pred)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%s: %w", m.loss.Name, err)
	}
	out := Evaluation{Loss: loss, Metrics: make(map[string]float64, len(m.metrics))}
	for _, metric := range m.metrics {
		v, err := metric.Fn(y, pred)
		if err != nil {
			return Evaluation{}, fmt.Errorf("%s: %w", metric.Name, err)
		}
		out.Metrics[metric.Name] = v
	}
	return out, nil
}

// TrainableParams returns a copy of the trainable values; nil when the model
// has none.
func (m *Model) TrainableParams() []float64 {
	if m.trainable == nil {
		return nil
	}
	return m.trainable.Values()
}

func (m *Model) SetTrainableParams(values []float64) error {
	if m.trainable == nil {
		if len(values) == 0 {
			return nil
		}
		return fmt.Errorf("%w: model has no trainable parameters", ErrInvalidConfig)
	}
	return m.trainable.SetValues(values)
}

// FrozenWeights snapshots every table layer by name.
func (m *Model) FrozenWeights() map[string]FrozenTable {
	out := make(map[string]FrozenTable, len(m.frozen))
	for _, layer := range m.frozen {
		data, bounds, ok := layer.Weights()
		if !ok {
			continue
		}
		out[layer.Name()] = FrozenTable{Shape: layer.Shape(), Data: data, Bounds: bounds}
	}
	return out
}

// Fit minimizes the compiled loss over the trainable parameters with tuner,
// or with the compiled optimizer when tuner is nil. A model without
// trainable parameters is left unchanged.
func (m *Model) Fit(ctx context.Context, x [][][]float64, y [][]float64, tuner tuning.Tuner, epochs int) (tuning.Result, error) {
	if tuner == nil {
		tuner = m.NewOptimizer()
	}
	if m.trainable == nil || len(m.trainable.Values()) == 0 {
		eval, err := m.Evaluate(ctx, x, y)
		if err != nil {
			return tuning.Result{}, err
		}
		m.logger.Info("no trainable parameters, skipping fit",
			zap.String("variant", string(m.variant)),
			zap.Float64("loss", eval.Loss),
		)
		return tuning.Result{Loss: eval.Loss, History: []float64{}, Report: tuning.TuneReport{EpochsPlanned: max(epochs, 0)}}, nil
	}

	initial := m.trainable.Values()
	objective := func(ctx context.Context, params []float64) (float64, error) {
		if err := m.trainable.SetValues(params); err != nil {
			return 0, err
		}
		pred, err := m.rnn.Run(ctx, x)
		if err != nil {
			return 0, err
		}
		return m.loss.Fn(y, pred)
	}
	observe := func(epoch int, loss float64) {
		m.recorder.RecordEpoch(tuner.Name(), loss)
		m.logger.Debug("epoch complete",
			zap.String("variant", string(m.variant)),
			zap.String("optimizer", tuner.Name()),
			zap.Int("epoch", epoch+1),
			zap.Float64(m.loss.Name, loss),
		)
	}

	m.logger.Info("fit started",
		zap.String("variant", string(m.variant)),
		zap.String("optimizer", tuner.Name()),
		zap.Int("epochs", epochs),
		zap.Int("params", len(initial)),
	)
	result, err := tuner.Tune(ctx, initial, epochs, objective, observe)
	if err != nil {
		if restoreErr := m.trainable.SetValues(initial); restoreErr != nil {
			return tuning.Result{}, errors.Join(err, fmt.Errorf("restore parameters: %w", restoreErr))
		}
		return tuning.Result{}, err
	}
	if err := m.trainable.SetValues(result.Params); err != nil {
		return tuning.Result{}, err
	}
	m.logger.Info("fit finished",
		zap.String("variant", string(m.variant)),
		zap.Int("epochs", result.Report.EpochsExecuted),
		zap.Float64(m.loss.Name, result.Loss),
	)
	return result, nil
}
