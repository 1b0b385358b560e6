package pinn

import (
	"context"
	"fmt"
)

// StepFunction advances a scalar state by one time step.
type StepFunction interface {
	Step(state float64, input []float64) (float64, error)
}

// StepFunc adapts a plain function to StepFunction.
type StepFunc func(state float64, input []float64) (float64, error)

func (f StepFunc) Step(state float64, input []float64) (float64, error) {
	return f(state, input)
}

// RunSequence carries initial across inputs through step. It returns every
// state when returnSequences is set, otherwise only the final one.
func RunSequence(step StepFunction, initial float64, inputs [][]float64, returnSequences bool) ([]float64, error) {
	if step == nil {
		return nil, fmt.Errorf("%w: step function is required", ErrInvalidConfig)
	}
	var out []float64
	if returnSequences {
		out = make([]float64, 0, len(inputs))
	}
	state := initial
	for t, input := range inputs {
		next, err := step.Step(state, input)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}
		state = next
		if returnSequences {
			out = append(out, state)
		}
	}
	if !returnSequences {
		out = []float64{state}
	}
	return out, nil
}

// StatefulCell is a step function that also provides the initial state of
// each sequence in a batch.
type StatefulCell interface {
	StepFunction
	InitialState(sequence int) (float64, error)
}

// RNN drives a cell across a batch of sequences; each sequence carries its
// own state. Unroll is kept for configuration parity and does not change the
// evaluation.
type RNN struct {
	Cell            StatefulCell
	ReturnSequences bool
	Unroll          bool
}

// Run evaluates x shaped [batch][steps][features] and returns [batch][steps]
// or [batch][1].
func (r RNN) Run(ctx context.Context, x [][][]float64) ([][]float64, error) {
	if r.Cell == nil {
		return nil, fmt.Errorf("%w: rnn cell is required", ErrInvalidConfig)
	}
	out := make([][]float64, len(x))
	for b, sequence := range x {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		initial, err := r.Cell.InitialState(b)
		if err != nil {
			return nil, err
		}
		trajectory, err := RunSequence(r.Cell, initial, sequence, r.ReturnSequences)
		if err != nil {
			return nil, fmt.Errorf("sequence %d: %w", b, err)
		}
		out[b] = trajectory
	}
	return out, nil
}
