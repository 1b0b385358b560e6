package pinn

import "fmt"

// CumulativeDamageCell wraps a damage graph as a recurrent step: the current
// damage is appended to the step features, the graph yields the increment and
// the new damage is state + increment.
type CumulativeDamageCell struct {
	graph         DamageGraph
	initialDamage []float64
	inputShape    [3]int
	dtype         DType
}

// NewCumulativeDamageCell binds graph to a (batch, steps, features) input
// shape. initialDamage holds one value shared by every sequence or one value
// per sequence of the batch. A zero batch or steps entry leaves that axis
// unconstrained.
func NewCumulativeDamageCell(graph DamageGraph, initialDamage []float64, inputShape [3]int, dtype DType) (*CumulativeDamageCell, error) {
	if graph == nil {
		return nil, fmt.Errorf("%w: damage graph is required", ErrInvalidConfig)
	}
	if inputShape[2] <= 0 {
		return nil, fmt.Errorf("%w: feature width must be > 0, got %d", ErrInvalidConfig, inputShape[2])
	}
	if inputShape[0] < 0 || inputShape[1] < 0 {
		return nil, fmt.Errorf("%w: negative batch input shape %v", ErrInvalidConfig, inputShape)
	}
	if graph.InputWidth() != inputShape[2]+1 {
		return nil, fmt.Errorf("%w: graph expects width %d, step vector has %d features plus damage", ErrInvalidConfig, graph.InputWidth(), inputShape[2])
	}
	if len(initialDamage) == 0 {
		initialDamage = []float64{0}
	}
	if len(initialDamage) > 1 && inputShape[0] > 0 && len(initialDamage) != inputShape[0] {
		return nil, fmt.Errorf("%w: %d initial damage values for batch size %d", ErrInvalidConfig, len(initialDamage), inputShape[0])
	}
	return &CumulativeDamageCell{
		graph:         graph,
		initialDamage: append([]float64(nil), initialDamage...),
		inputShape:    inputShape,
		dtype:         dtype,
	}, nil
}

func (c *CumulativeDamageCell) Graph() DamageGraph { return c.graph }

func (c *CumulativeDamageCell) InputShape() [3]int { return c.inputShape }

func (c *CumulativeDamageCell) DType() DType { return c.dtype }

// StateSize is the width of the carried state.
func (c *CumulativeDamageCell) StateSize() int { return 1 }

func (c *CumulativeDamageCell) InitialState(sequence int) (float64, error) {
	if len(c.initialDamage) == 1 {
		return c.dtype.Cast(c.initialDamage[0]), nil
	}
	if sequence < 0 || sequence >= len(c.initialDamage) {
		return 0, fmt.Errorf("%w: no initial damage for sequence %d of %d", ErrIndexOutOfRange, sequence, len(c.initialDamage))
	}
	return c.dtype.Cast(c.initialDamage[sequence]), nil
}

func (c *CumulativeDamageCell) Step(state float64, input []float64) (float64, error) {
	if len(input) != c.inputShape[2] {
		return 0, fmt.Errorf("%w: step input has %d features, want %d", ErrIndexOutOfRange, len(input), c.inputShape[2])
	}
	x := make([]float64, len(input)+1)
	copy(x, input)
	x[len(input)] = state

	rate, err := c.graph.DamageRate(x)
	if err != nil {
		return 0, err
	}
	return c.dtype.Cast(state + rate), nil
}
