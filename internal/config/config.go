// Package config loads the YAML description of a model and its training run.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fatiguepinn/internal/logging"
	"fatiguepinn/internal/nn"
	"fatiguepinn/internal/pinn"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config describes one model variant, its training setup and the store the
// runs are recorded in.
type Config struct {
	Variant         string    `yaml:"variant"`
	DType           string    `yaml:"dtype"`
	ReturnSequences *bool     `yaml:"return_sequences"`
	Unroll          bool      `yaml:"unroll"`
	InitialDamage   []float64 `yaml:"initial_damage"`
	BatchInputShape [3]int    `yaml:"batch_input_shape"`

	Physics    PhysicsConfig           `yaml:"physics"`
	Learned    LearnedConfig           `yaml:"learned"`
	Inspection pinn.InspectionSchedule `yaml:"inspection"`
	Optimizer  OptimizerConfig         `yaml:"optimizer"`
	Store      StoreConfig             `yaml:"store"`
	Log        logging.Config          `yaml:"log"`
}

type PhysicsConfig struct {
	A           float64            `yaml:"a"`
	B           float64            `yaml:"b"`
	Pu          float64            `yaml:"pu"`
	TrainableSN bool               `yaml:"trainable_sn"`
	Tables      TablePaths         `yaml:"tables"`
	Features    pinn.FeatureRouter `yaml:"features"`
}

// TablePaths point at CSV tables. Relative paths resolve against the config
// file's directory.
type TablePaths struct {
	Kappa string `yaml:"kappa"`
	Etac  string `yaml:"etac"`
	ASKF  string `yaml:"askf"`
}

type LearnedConfig struct {
	Hidden     []int   `yaml:"hidden"`
	Activation string  `yaml:"activation"`
	LowBound   float64 `yaml:"low_bound"`
	UpBound    float64 `yaml:"up_bound"`
	Seed       int64   `yaml:"seed"`
}

type OptimizerConfig struct {
	Name         string  `yaml:"name"`
	LearningRate float64 `yaml:"learning_rate"`
	Epochs       int     `yaml:"epochs"`
	Rho          float64 `yaml:"rho"`
	Epsilon      float64 `yaml:"epsilon"`
	Steps        int     `yaml:"steps"`
	StepSize     float64 `yaml:"step_size"`
}

type StoreConfig struct {
	Kind   string `yaml:"kind"`
	DBPath string `yaml:"db_path"`
}

const (
	OptimizerRMSprop = "rmsprop"
	OptimizerSGD     = "sgd"
	OptimizerExoself = "exoself"
)

// Load reads, defaults and validates the config at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes YAML, rejecting unknown fields, then applies defaults and
// validates the result.
func Parse(data []byte) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.DType == "" {
		c.DType = string(pinn.Float64)
	}
	if c.ReturnSequences == nil {
		returnSequences := true
		c.ReturnSequences = &returnSequences
	}
	if len(c.InitialDamage) == 0 {
		c.InitialDamage = []float64{0}
	}
	if c.Inspection == (pinn.InspectionSchedule{}) {
		c.Inspection = pinn.DefaultInspectionSchedule
	}
	if len(c.Learned.Hidden) == 0 {
		c.Learned.Hidden = []int{8}
	}
	if c.Learned.Activation == "" {
		c.Learned.Activation = "tanh"
	}
	if c.Learned.Seed == 0 {
		c.Learned.Seed = 1
	}
	if c.Optimizer.Name == "" {
		c.Optimizer.Name = OptimizerRMSprop
	}
	if c.Optimizer.Epochs == 0 {
		c.Optimizer.Epochs = 10
	}
	if c.Optimizer.Name == OptimizerExoself {
		if c.Optimizer.Steps == 0 {
			c.Optimizer.Steps = 4
		}
		if c.Optimizer.StepSize == 0 {
			c.Optimizer.StepSize = 0.1
		}
	}
	if c.Store.Kind == "" {
		c.Store.Kind = "memory"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func (c Config) Validate() error {
	switch pinn.Variant(c.Variant) {
	case pinn.VariantPhysics:
		if c.Physics.Tables.Kappa == "" || c.Physics.Tables.Etac == "" || c.Physics.Tables.ASKF == "" {
			return fmt.Errorf("%w: physics.tables needs kappa, etac and askf", ErrInvalidConfig)
		}
		f := c.Physics.Features
		if len(f.DamageProxy) == 0 || len(f.Cycle) == 0 || len(f.Load) == 0 || len(f.BearingTemp) == 0 {
			return fmt.Errorf("%w: physics.features needs damage_proxy, cycle, load and bearing_temp", ErrInvalidConfig)
		}
		if c.ReturnSequences != nil && !*c.ReturnSequences {
			return fmt.Errorf("%w: the physics variant is supervised on the full trajectory and needs return_sequences", ErrInvalidConfig)
		}
	case pinn.VariantLearned:
		if c.Learned.UpBound <= c.Learned.LowBound {
			return fmt.Errorf("%w: learned.up_bound %g must exceed low_bound %g", ErrInvalidConfig, c.Learned.UpBound, c.Learned.LowBound)
		}
		for i, units := range c.Learned.Hidden {
			if units <= 0 {
				return fmt.Errorf("%w: learned.hidden[%d] must be > 0", ErrInvalidConfig, i)
			}
		}
		if _, err := nn.GetActivation(c.Learned.Activation); err != nil {
			return fmt.Errorf("%w: learned.activation: %v (known: %v)", ErrInvalidConfig, err, nn.ActivationNames())
		}
	default:
		return fmt.Errorf("%w: variant must be %q or %q, got %q", ErrInvalidConfig, pinn.VariantPhysics, pinn.VariantLearned, c.Variant)
	}
	if _, err := pinn.ParseDType(c.DType); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.BatchInputShape[2] <= 0 {
		return fmt.Errorf("%w: batch_input_shape needs a feature width > 0", ErrInvalidConfig)
	}
	if c.BatchInputShape[0] < 0 || c.BatchInputShape[1] < 0 {
		return fmt.Errorf("%w: batch_input_shape entries must be >= 0", ErrInvalidConfig)
	}
	if _, err := c.Inspection.StepsPerPeriod(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.Optimizer.Name {
	case OptimizerRMSprop, OptimizerSGD, OptimizerExoself:
	default:
		return fmt.Errorf("%w: unsupported optimizer %q", ErrInvalidConfig, c.Optimizer.Name)
	}
	if c.Optimizer.Epochs < 0 || c.Optimizer.LearningRate < 0 {
		return fmt.Errorf("%w: optimizer epochs and learning_rate must be >= 0", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.Physics.Tables.Kappa, &c.Physics.Tables.Etac, &c.Physics.Tables.ASKF} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}
