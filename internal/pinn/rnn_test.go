package pinn

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var addOne = StepFunc(func(state float64, _ []float64) (float64, error) {
	return state + 1, nil
})

func TestRunSequenceAccumulates(t *testing.T) {
	inputs := make([][]float64, 5)
	out, err := RunSequence(addOne, 0, inputs, true)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, out)
}

func TestRunSequenceFinalOnly(t *testing.T) {
	out, err := RunSequence(addOne, 0, make([][]float64, 5), false)
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, out)
}

func TestRunSequenceEmptyInputs(t *testing.T) {
	out, err := RunSequence(addOne, 2, nil, true)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = RunSequence(addOne, 2, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, out)
}

func TestRunSequencePropagatesStepError(t *testing.T) {
	boom := errors.New("boom")
	step := StepFunc(func(state float64, _ []float64) (float64, error) {
		if state >= 2 {
			return 0, boom
		}
		return state + 1, nil
	})
	_, err := RunSequence(step, 0, make([][]float64, 5), true)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "step 2")
}

type offsetCell struct {
	initial []float64
}

func (c offsetCell) Step(state float64, input []float64) (float64, error) {
	return state + input[0], nil
}

func (c offsetCell) InitialState(sequence int) (float64, error) {
	return c.initial[sequence], nil
}

func TestRNNIsolatesSequences(t *testing.T) {
	rnn := RNN{Cell: offsetCell{initial: []float64{0, 10}}, ReturnSequences: true}
	x := [][][]float64{
		{{1}, {1}, {1}},
		{{2}, {2}, {2}},
	}
	out, err := rnn.Run(context.Background(), x)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}, {12, 14, 16}}, out)
}

func TestRNNUnrollDoesNotChangeResults(t *testing.T) {
	x := [][][]float64{{{0.5}, {0.25}}}
	eager, err := RNN{Cell: offsetCell{initial: []float64{1}}}.Run(context.Background(), x)
	require.NoError(t, err)
	unrolled, err := RNN{Cell: offsetCell{initial: []float64{1}}, Unroll: true}.Run(context.Background(), x)
	require.NoError(t, err)
	assert.Equal(t, eager, unrolled)
	assert.Equal(t, [][]float64{{1.75}}, eager)
}

func TestRNNHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RNN{Cell: offsetCell{initial: []float64{0}}}.Run(ctx, [][][]float64{{{1}}})
	require.ErrorIs(t, err, context.Canceled)
}
