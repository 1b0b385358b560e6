package pinn

import (
	"fmt"

	"go.uber.org/zap"

	"fatiguepinn/internal/interp"
	"fatiguepinn/internal/logging"
	"fatiguepinn/internal/metrics"
	"fatiguepinn/internal/model"
)

const (
	DefaultPINNLearningRate = 5e-4
	DefaultRNNLearningRate  = 1e-3
	optimizerRMSprop        = "rmsprop"
)

// TableInput is a prepared table and the shape its lookup layer is declared
// with. A zero DeclaredShape declares the table's own shape.
type TableInput struct {
	Table         model.GriddedTable
	DeclaredShape [4]int
}

type PINNOptions struct {
	A           float64
	B           float64
	Pu          float64
	TrainableSN bool

	Kappa TableInput
	Etac  TableInput
	ASKF  TableInput

	InitialDamage   []float64
	BatchInputShape [3]int
	Features        FeatureRouter

	DType           DType
	ReturnSequences bool
	Unroll          bool

	Inspection   InspectionSchedule
	LearningRate float64
	Logger       *zap.Logger
}

type RNNOptions struct {
	SubModel        SubModel
	InitialDamage   []float64
	BatchInputShape [3]int
	LowBound        float64
	UpBound         float64

	DType           DType
	ReturnSequences bool
	Unroll          bool

	LearningRate float64
	Logger       *zap.Logger
}

// CreatePINNModel builds the physics variant: frozen kappa, etac and aSKF
// lookups chained with an SN-curve, supervised at the inspection schedule.
func CreatePINNModel(opts PINNOptions) (*Model, error) {
	logger := logging.OrNop(opts.Logger)

	kappa, err := buildTableLayer("kappa", opts.Kappa)
	if err != nil {
		return nil, err
	}
	etac, err := buildTableLayer("etac", opts.Etac)
	if err != nil {
		return nil, err
	}
	askf, err := buildTableLayer("askf", opts.ASKF)
	if err != nil {
		return nil, err
	}

	sn := &SNCurve{A: opts.A, B: opts.B}
	width := opts.BatchInputShape[2] + 1
	graph, err := NewPhysicsGraph(PhysicsTables{Kappa: kappa, Etac: etac, ASKF: askf}, sn, opts.Pu, opts.Features, width, opts.DType)
	if err != nil {
		return nil, err
	}
	cell, err := NewCumulativeDamageCell(graph, opts.InitialDamage, opts.BatchInputShape, opts.DType)
	if err != nil {
		return nil, err
	}

	schedule := opts.Inspection
	if schedule == (InspectionSchedule{}) {
		schedule = DefaultInspectionSchedule
	}
	mask, err := schedule.Mask()
	if err != nil {
		return nil, err
	}
	if !opts.ReturnSequences {
		return nil, fmt.Errorf("%w: the masked loss needs return_sequences to see the full trajectory", ErrInvalidConfig)
	}
	if opts.BatchInputShape[1] > 0 && opts.BatchInputShape[1] <= mask.Last() {
		return nil, fmt.Errorf("%w: %d steps cannot reach inspection index %d", ErrIndexOutOfRange, opts.BatchInputShape[1], mask.Last())
	}

	lr := opts.LearningRate
	if lr == 0 {
		lr = DefaultPINNLearningRate
	}

	m := &Model{
		variant:   VariantPhysics,
		cell:      cell,
		rnn:       RNN{Cell: cell, ReturnSequences: opts.ReturnSequences, Unroll: opts.Unroll},
		loss:      NamedLoss{Name: "masked_mse", Fn: MaskedMSE(mask)},
		metrics:   []NamedLoss{{Name: "masked_mse", Fn: MaskedMSE(mask)}},
		optimizer: OptimizerConfig{Name: optimizerRMSprop, LearningRate: lr},
		frozen:    []*interp.TableLayer{kappa, etac, askf},
		mask:      mask,
		logger:    logger,
		recorder:  metrics.NewModelMetrics(string(VariantPhysics)),
	}
	if opts.TrainableSN {
		m.trainable = sn
	}

	logger.Info("model built",
		zap.String("variant", string(VariantPhysics)),
		zap.Ints("batch_input_shape", opts.BatchInputShape[:]),
		zap.String("dtype", string(opts.DType)),
		zap.Bool("trainable_sn", opts.TrainableSN),
		zap.Ints("inspection", mask),
	)
	return m, nil
}

// CreateRNNModel builds the learned variant around a feed-forward sub-model
// whose unit output is rescaled onto [LowBound, UpBound].
func CreateRNNModel(opts RNNOptions) (*Model, error) {
	logger := logging.OrNop(opts.Logger)

	graph, err := NewLearnedGraph(opts.SubModel, opts.LowBound, opts.UpBound, opts.DType)
	if err != nil {
		return nil, err
	}
	cell, err := NewCumulativeDamageCell(graph, opts.InitialDamage, opts.BatchInputShape, opts.DType)
	if err != nil {
		return nil, err
	}

	lr := opts.LearningRate
	if lr == 0 {
		lr = DefaultRNNLearningRate
	}

	m := &Model{
		variant:   VariantLearned,
		cell:      cell,
		rnn:       RNN{Cell: cell, ReturnSequences: opts.ReturnSequences, Unroll: opts.Unroll},
		loss:      NamedLoss{Name: "mse", Fn: MSE},
		metrics:   []NamedLoss{{Name: "mae", Fn: MAE}},
		optimizer: OptimizerConfig{Name: optimizerRMSprop, LearningRate: lr},
		logger:    logger,
		recorder:  metrics.NewModelMetrics(string(VariantLearned)),
	}
	if params, ok := opts.SubModel.(Params); ok {
		m.trainable = params
	}

	logger.Info("model built",
		zap.String("variant", string(VariantLearned)),
		zap.Ints("batch_input_shape", opts.BatchInputShape[:]),
		zap.String("dtype", string(opts.DType)),
		zap.Float64("low_bound", opts.LowBound),
		zap.Float64("up_bound", opts.UpBound),
	)
	return m, nil
}

func buildTableLayer(name string, in TableInput) (*interp.TableLayer, error) {
	declared := in.DeclaredShape
	if declared == ([4]int{}) {
		declared = in.Table.Shape
	}
	layer, err := interp.NewTableLayer(name, declared)
	if err != nil {
		return nil, err
	}
	if err := layer.SetWeights(in.Table.Shape, in.Table.Data, in.Table.Bounds); err != nil {
		return nil, err
	}
	return layer, nil
}
