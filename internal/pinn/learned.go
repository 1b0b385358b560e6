package pinn

import (
	"fmt"

	"fatiguepinn/internal/nn"
)

// SubModel is the trainable black box of the learned graph.
type SubModel interface {
	InputWidth() int
	OutputWidth() int
	Forward(x []float64) ([]float64, error)
}

// LearnedGraph rescales the unit-interval output of a sub-model onto the
// fixed range [low, up].
type LearnedGraph struct {
	model SubModel
	low   float64
	up    float64
	dtype DType
}

func NewLearnedGraph(model SubModel, low, up float64, dtype DType) (*LearnedGraph, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: sub-model is required", ErrInvalidConfig)
	}
	if model.OutputWidth() != 1 {
		return nil, fmt.Errorf("%w: sub-model must produce one output, got %d", ErrInvalidConfig, model.OutputWidth())
	}
	if up <= low {
		return nil, fmt.Errorf("%w: upper bound %g must exceed lower bound %g", ErrInvalidConfig, up, low)
	}
	return &LearnedGraph{model: model, low: low, up: up, dtype: dtype}, nil
}

func (g *LearnedGraph) InputWidth() int { return g.model.InputWidth() }

func (g *LearnedGraph) Bounds() (float64, float64) { return g.low, g.up }

func (g *LearnedGraph) DamageRate(x []float64) (float64, error) {
	out, err := g.model.Forward(x)
	if err != nil {
		return 0, fmt.Errorf("sub-model: %w", err)
	}
	return g.dtype.Cast(nn.Rescale(g.dtype.Cast(out[0]), g.low, g.up)), nil
}
