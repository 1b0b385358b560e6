// Package fatiguepinn is the public entry point for building, running and
// training cumulative bearing-damage models.
package fatiguepinn

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fatiguepinn/internal/config"
	"fatiguepinn/internal/dataextract"
	"fatiguepinn/internal/logging"
	"fatiguepinn/internal/model"
	"fatiguepinn/internal/nn"
	"fatiguepinn/internal/pinn"
	"fatiguepinn/internal/storage"
	"fatiguepinn/internal/tuning"
)

const (
	defaultDBPath    = "fatiguepinn.db"
	defaultRunsLimit = 20
)

var (
	ErrRunNotFound      = errors.New("run not found")
	ErrFeatureMismatch  = errors.New("input features do not match the model")
	ErrTargetsMismatch  = errors.New("targets do not match the inputs")
	ErrUnknownOptimizer = errors.New("unknown optimizer")
)

type (
	Table        = model.Table
	GriddedTable = model.GriddedTable
	Model        = pinn.Model
	PINNOptions  = pinn.PINNOptions
	RNNOptions   = pinn.RNNOptions
)

// ArrangeTable converts a labeled table into its gridded layout.
func ArrangeTable(table Table) (GriddedTable, error) {
	return dataextract.ArrangeTable(table)
}

// CreatePINNModel builds the physics-graph model.
func CreatePINNModel(opts PINNOptions) (*Model, error) {
	return pinn.CreatePINNModel(opts)
}

// CreateRNNModel builds the learned-graph model.
func CreateRNNModel(opts RNNOptions) (*Model, error) {
	return pinn.CreateRNNModel(opts)
}

type Options struct {
	StoreKind string
	DBPath    string
	Logger    *zap.Logger
}

type Client struct {
	store  storage.Store
	logger *zap.Logger

	initOnce sync.Once
	initErr  error
}

// BuiltModel is a compiled model together with the config it was built from
// and the id it is stored under.
type BuiltModel struct {
	ID     string
	Config config.Config
	Model  *Model
}

type PredictRequest struct {
	Inputs dataextract.SequenceSet
}

type Prediction struct {
	IDs    []string
	Damage [][]float64
	Rows   []dataextract.TrajectoryRow
}

type TrainRequest struct {
	Inputs  dataextract.SequenceSet
	// Targets must sit on the inspection mask of a physics model and on every
	// predicted step of a learned one.
	Targets dataextract.Targets
	// Epochs overrides the configured epoch count when > 0.
	Epochs  int
}

type TrainSummary struct {
	RunID      string
	ModelID    string
	Optimizer  string
	History    []float64
	FinalLoss  float64
	Evaluation pinn.Evaluation
	Report     tuning.TuneReport
}

type RunsRequest struct {
	Limit int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, logger: logging.OrNop(opts.Logger)}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// BuildModel compiles the model cfg describes. Physics tables are read from
// their CSV files, arranged and recorded in the store with the model.
func (c *Client) BuildModel(ctx context.Context, cfg config.Config) (*BuiltModel, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	dtype, err := pinn.ParseDType(cfg.DType)
	if err != nil {
		return nil, err
	}
	returnSequences := cfg.ReturnSequences == nil || *cfg.ReturnSequences

	id := uuid.NewString()
	record := model.ModelRecord{
		ID:      id,
		Variant: cfg.Variant,
		Config:  configSnapshot(cfg),
	}

	var (
		m      *Model
		tables map[string]model.GriddedTable
	)
	switch pinn.Variant(cfg.Variant) {
	case pinn.VariantPhysics:
		tables = make(map[string]model.GriddedTable, 3)
		for role, path := range map[string]string{
			"kappa": cfg.Physics.Tables.Kappa,
			"etac":  cfg.Physics.Tables.Etac,
			"askf":  cfg.Physics.Tables.ASKF,
		} {
			raw, err := dataextract.ReadTableFileCSV(path)
			if err != nil {
				return nil, err
			}
			gridded, err := dataextract.ArrangeTable(raw)
			if err != nil {
				return nil, fmt.Errorf("%s table: %w", role, err)
			}
			gridded.Name = id + ":" + role
			tables[role] = gridded
		}
		m, err = pinn.CreatePINNModel(pinn.PINNOptions{
			A:               cfg.Physics.A,
			B:               cfg.Physics.B,
			Pu:              cfg.Physics.Pu,
			TrainableSN:     cfg.Physics.TrainableSN,
			Kappa:           pinn.TableInput{Table: tables["kappa"]},
			Etac:            pinn.TableInput{Table: tables["etac"]},
			ASKF:            pinn.TableInput{Table: tables["askf"]},
			InitialDamage:   cfg.InitialDamage,
			BatchInputShape: cfg.BatchInputShape,
			Features:        cfg.Physics.Features,
			DType:           dtype,
			ReturnSequences: returnSequences,
			Unroll:          cfg.Unroll,
			Inspection:      cfg.Inspection,
			LearningRate:    cfg.Optimizer.LearningRate,
			Logger:          c.logger,
		})
	case pinn.VariantLearned:
		var mlp *nn.MLP
		mlp, err = newSubModel(cfg)
		if err != nil {
			return nil, err
		}
		m, err = pinn.CreateRNNModel(pinn.RNNOptions{
			SubModel:        mlp,
			InitialDamage:   cfg.InitialDamage,
			BatchInputShape: cfg.BatchInputShape,
			LowBound:        cfg.Learned.LowBound,
			UpBound:         cfg.Learned.UpBound,
			DType:           dtype,
			ReturnSequences: returnSequences,
			Unroll:          cfg.Unroll,
			LearningRate:    cfg.Optimizer.LearningRate,
			Logger:          c.logger,
		})
	default:
		return nil, fmt.Errorf("%w: unknown variant %q", config.ErrInvalidConfig, cfg.Variant)
	}
	if err != nil {
		return nil, err
	}

	// Nothing is persisted until the model is fully built.
	if len(tables) > 0 {
		record.Tables = make(map[string]string, len(tables))
		for _, role := range []string{"kappa", "etac", "askf"} {
			if err := c.store.SaveTable(ctx, tables[role]); err != nil {
				return nil, err
			}
			record.Tables[role] = tables[role].Name
		}
	}
	record.Trainable = m.TrainableParams()
	if err := c.store.SaveModel(ctx, record); err != nil {
		return nil, err
	}
	c.logger.Info("model stored", zap.String("model_id", id), zap.String("variant", cfg.Variant))
	return &BuiltModel{ID: id, Config: cfg, Model: m}, nil
}

func (c *Client) Predict(ctx context.Context, built *BuiltModel, req PredictRequest) (Prediction, error) {
	if err := checkFeatures(built, req.Inputs); err != nil {
		return Prediction{}, err
	}
	damage, err := built.Model.Predict(ctx, req.Inputs.Inputs)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{
		IDs:    append([]string(nil), req.Inputs.IDs...),
		Damage: damage,
		Rows:   dataextract.TrajectoryRows(req.Inputs.IDs, damage, req.Inputs.Steps()),
	}, nil
}

// Train fits the model to the targets and records the run and the updated
// trainable parameters.
func (c *Client) Train(ctx context.Context, built *BuiltModel, req TrainRequest) (TrainSummary, error) {
	if err := c.Init(ctx); err != nil {
		return TrainSummary{}, err
	}
	if err := checkFeatures(built, req.Inputs); err != nil {
		return TrainSummary{}, err
	}
	if err := checkTargets(built.Model, req.Inputs, req.Targets); err != nil {
		return TrainSummary{}, err
	}
	epochs := built.Config.Optimizer.Epochs
	if req.Epochs > 0 {
		epochs = req.Epochs
	}
	tuner, err := tunerFromConfig(built.Config, built.Model)
	if err != nil {
		return TrainSummary{}, err
	}

	runID := uuid.NewString()
	logger := c.logger.With(zap.String("run_id", runID), zap.String("model_id", built.ID))
	logger.Info("training started", zap.String("optimizer", tuner.Name()), zap.Int("epochs", epochs))

	result, err := built.Model.Fit(ctx, req.Inputs.Inputs, req.Targets.Values, tuner, epochs)
	if err != nil {
		return TrainSummary{}, err
	}
	eval, err := built.Model.Evaluate(ctx, req.Inputs.Inputs, req.Targets.Values)
	if err != nil {
		return TrainSummary{}, err
	}

	if err := c.store.SaveRun(ctx, model.RunRecord{
		ID:           runID,
		ModelID:      built.ID,
		Variant:      string(built.Model.Variant()),
		Optimizer:    tuner.Name(),
		CreatedAtUTC: time.Now().UTC(),
		Epochs:       result.Report.EpochsExecuted,
		LossHistory:  result.History,
		FinalLoss:    eval.Loss,
	}); err != nil {
		return TrainSummary{}, err
	}
	record, ok, err := c.store.GetModel(ctx, built.ID)
	if err != nil {
		return TrainSummary{}, err
	}
	if ok {
		record.Trainable = built.Model.TrainableParams()
		if err := c.store.SaveModel(ctx, record); err != nil {
			return TrainSummary{}, err
		}
	}
	logger.Info("training finished", zap.Float64("final_loss", eval.Loss), zap.Int("epochs", result.Report.EpochsExecuted))

	return TrainSummary{
		RunID:      runID,
		ModelID:    built.ID,
		Optimizer:  tuner.Name(),
		History:    append([]float64(nil), result.History...),
		FinalLoss:  eval.Loss,
		Evaluation: eval,
		Report:     result.Report,
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}
	return c.store.ListRuns(ctx, req.Limit)
}

func (c *Client) Run(ctx context.Context, id string) (model.RunRecord, error) {
	if err := c.Init(ctx); err != nil {
		return model.RunRecord{}, err
	}
	run, ok, err := c.store.GetRun(ctx, id)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok {
		return model.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, nil
}

func newSubModel(cfg config.Config) (*nn.MLP, error) {
	specs := make([]nn.LayerSpec, 0, len(cfg.Learned.Hidden)+1)
	for _, units := range cfg.Learned.Hidden {
		specs = append(specs, nn.LayerSpec{Units: units, Activation: cfg.Learned.Activation})
	}
	specs = append(specs, nn.LayerSpec{Units: 1, Activation: "sigmoid"})
	return nn.NewMLP(cfg.BatchInputShape[2]+1, specs, rand.New(rand.NewSource(cfg.Learned.Seed)))
}

func tunerFromConfig(cfg config.Config, m *Model) (tuning.Tuner, error) {
	lr := cfg.Optimizer.LearningRate
	if lr == 0 {
		lr = m.Optimizer().LearningRate
	}
	switch cfg.Optimizer.Name {
	case "", config.OptimizerRMSprop:
		return &tuning.RMSprop{LearningRate: lr, Rho: cfg.Optimizer.Rho, Epsilon: cfg.Optimizer.Epsilon}, nil
	case config.OptimizerSGD:
		return &tuning.GradientDescent{LearningRate: lr}, nil
	case config.OptimizerExoself:
		return &tuning.Exoself{
			Rand:     rand.New(rand.NewSource(cfg.Learned.Seed)),
			Steps:    cfg.Optimizer.Steps,
			StepSize: cfg.Optimizer.StepSize,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOptimizer, cfg.Optimizer.Name)
	}
}

func checkFeatures(built *BuiltModel, inputs dataextract.SequenceSet) error {
	if built == nil || built.Model == nil {
		return fmt.Errorf("%w: model is required", config.ErrInvalidConfig)
	}
	want := built.Model.Cell().InputShape()[2]
	if len(inputs.Features) != want {
		return fmt.Errorf("%w: got %d features, model expects %d", ErrFeatureMismatch, len(inputs.Features), want)
	}
	return nil
}

// checkTargets requires every target series to be recorded at exactly the
// steps the model's loss compares against.
func checkTargets(m *Model, inputs dataextract.SequenceSet, targets dataextract.Targets) error {
	if len(targets.Values) != len(inputs.Inputs) || len(targets.Indices) != len(inputs.Inputs) {
		return fmt.Errorf("%w: %d target series for %d sequences", ErrTargetsMismatch, len(targets.Values), len(inputs.Inputs))
	}
	steps := inputs.Steps()
	want := expectedTargetIndices(m, steps)
	for i, indices := range targets.Indices {
		if len(indices) != len(targets.Values[i]) {
			return fmt.Errorf("%w: sequence %s has %d indices for %d values", ErrTargetsMismatch, inputs.IDs[i], len(indices), len(targets.Values[i]))
		}
		for _, idx := range indices {
			if idx < 0 || idx >= steps {
				return fmt.Errorf("%w: sequence %s target index %d for %d steps", pinn.ErrIndexOutOfRange, inputs.IDs[i], idx, steps)
			}
		}
		if len(indices) != len(want) {
			return fmt.Errorf("%w: sequence %s has targets at %v, model supervises %v", ErrTargetsMismatch, inputs.IDs[i], indices, want)
		}
		for j, idx := range indices {
			if idx != want[j] {
				return fmt.Errorf("%w: sequence %s has targets at %v, model supervises %v", ErrTargetsMismatch, inputs.IDs[i], indices, want)
			}
		}
	}
	return nil
}

func expectedTargetIndices(m *Model, steps int) []int {
	if mask := m.InspectionMask(); mask != nil {
		return mask
	}
	if !m.ReturnSequences() {
		return []int{steps - 1}
	}
	want := make([]int, steps)
	for i := range want {
		want[i] = i
	}
	return want
}

func configSnapshot(cfg config.Config) map[string]any {
	snapshot := map[string]any{
		"variant":           cfg.Variant,
		"dtype":             cfg.DType,
		"unroll":            cfg.Unroll,
		"initial_damage":    cfg.InitialDamage,
		"batch_input_shape": cfg.BatchInputShape[:],
		"optimizer":         cfg.Optimizer.Name,
	}
	if cfg.ReturnSequences != nil {
		snapshot["return_sequences"] = *cfg.ReturnSequences
	}
	switch pinn.Variant(cfg.Variant) {
	case pinn.VariantPhysics:
		snapshot["pu"] = cfg.Physics.Pu
		snapshot["trainable_sn"] = cfg.Physics.TrainableSN
		snapshot["inspection"] = cfg.Inspection
	case pinn.VariantLearned:
		snapshot["hidden"] = cfg.Learned.Hidden
		snapshot["activation"] = cfg.Learned.Activation
		snapshot["low_bound"] = cfg.Learned.LowBound
		snapshot["up_bound"] = cfg.Learned.UpBound
	}
	return snapshot
}
