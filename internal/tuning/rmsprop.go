package tuning

import (
	"context"
	"fmt"
	"math"
)

const (
	defaultRho            = 0.9
	defaultEpsilon        = 1e-7
	defaultFiniteDiffStep = 1e-6
)

// RMSprop scales each step by a running average of squared gradients.
// Gradients are estimated by central finite differences over the objective.
type RMSprop struct {
	LearningRate   float64
	Rho            float64
	Epsilon        float64
	FiniteDiffStep float64
}

func (o *RMSprop) Name() string { return "rmsprop" }

func (o *RMSprop) Tune(ctx context.Context, params []float64, epochs int, objective ObjectiveFn, observe EpochFn) (Result, error) {
	if o == nil || o.LearningRate <= 0 {
		return Result{}, fmt.Errorf("%w: learning rate must be > 0", ErrInvalidTuner)
	}
	rho := o.Rho
	if rho == 0 {
		rho = defaultRho
	}
	if rho < 0 || rho >= 1 {
		return Result{}, fmt.Errorf("%w: rho must be in [0, 1), got %g", ErrInvalidTuner, rho)
	}
	eps := o.Epsilon
	if eps == 0 {
		eps = defaultEpsilon
	}
	meanSquare := make([]float64, len(params))
	return descend(ctx, params, epochs, objective, observe, o.FiniteDiffStep, func(i int, grad float64) float64 {
		meanSquare[i] = rho*meanSquare[i] + (1-rho)*grad*grad
		return o.LearningRate * grad / (math.Sqrt(meanSquare[i]) + eps)
	})
}

// GradientDescent is plain steepest descent with a fixed learning rate.
type GradientDescent struct {
	LearningRate   float64
	FiniteDiffStep float64
}

func (o *GradientDescent) Name() string { return "sgd" }

func (o *GradientDescent) Tune(ctx context.Context, params []float64, epochs int, objective ObjectiveFn, observe EpochFn) (Result, error) {
	if o == nil || o.LearningRate <= 0 {
		return Result{}, fmt.Errorf("%w: learning rate must be > 0", ErrInvalidTuner)
	}
	return descend(ctx, params, epochs, objective, observe, o.FiniteDiffStep, func(_ int, grad float64) float64 {
		return o.LearningRate * grad
	})
}

func descend(ctx context.Context, params []float64, epochs int, objective ObjectiveFn, observe EpochFn, h float64, step func(i int, grad float64) float64) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if objective == nil {
		return Result{}, ErrNoObjective
	}
	if h == 0 {
		h = defaultFiniteDiffStep
	}
	if h < 0 {
		return Result{}, fmt.Errorf("%w: finite difference step must be > 0", ErrInvalidTuner)
	}
	report := TuneReport{EpochsPlanned: max(epochs, 0)}
	eval := countingObjective(objective, &report)

	current := cloneParams(params)
	loss, err := eval(ctx, current)
	if err != nil {
		return Result{}, err
	}
	history := make([]float64, 0, report.EpochsPlanned)
	if len(current) == 0 {
		return Result{Params: current, Loss: loss, History: history, Report: report}, nil
	}

	grad := make([]float64, len(current))
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		for i := range current {
			if grad[i], err = partial(ctx, eval, current, i, h); err != nil {
				return Result{}, err
			}
		}
		for i, g := range grad {
			current[i] -= step(i, g)
		}
		if loss, err = eval(ctx, current); err != nil {
			return Result{}, err
		}
		history = append(history, loss)
		report.EpochsExecuted++
		if observe != nil {
			observe(epoch, loss)
		}
	}
	return Result{Params: current, Loss: loss, History: history, Report: report}, nil
}

func partial(ctx context.Context, eval ObjectiveFn, params []float64, i int, h float64) (float64, error) {
	delta := h * math.Max(1, math.Abs(params[i]))
	original := params[i]
	defer func() { params[i] = original }()

	params[i] = original + delta
	up, err := eval(ctx, params)
	if err != nil {
		return 0, err
	}
	params[i] = original - delta
	down, err := eval(ctx, params)
	if err != nil {
		return 0, err
	}
	return (up - down) / (2 * delta), nil
}
