package tuning

import (
	"context"
	"errors"
)

var (
	ErrNoObjective  = errors.New("objective function is required")
	ErrInvalidTuner = errors.New("invalid tuner configuration")
)

// ObjectiveFn returns the loss of the model with params applied. Tuners
// minimize it.
type ObjectiveFn func(ctx context.Context, params []float64) (float64, error)

// EpochFn observes the loss reached at the end of each epoch.
type EpochFn func(epoch int, loss float64)

type Result struct {
	Params  []float64  `json:"params"`
	Loss    float64    `json:"loss"`
	History []float64  `json:"history"`
	Report  TuneReport `json:"report"`
}

type TuneReport struct {
	EpochsPlanned        int `json:"epochs_planned"`
	EpochsExecuted       int `json:"epochs_executed"`
	ObjectiveEvaluations int `json:"objective_evaluations"`
	AcceptedCandidates   int `json:"accepted_candidates"`
	RejectedCandidates   int `json:"rejected_candidates"`
}

type Tuner interface {
	Name() string
	Tune(ctx context.Context, params []float64, epochs int, objective ObjectiveFn, observe EpochFn) (Result, error)
}

// countingObjective wraps objective so every call is reported.
func countingObjective(objective ObjectiveFn, report *TuneReport) ObjectiveFn {
	return func(ctx context.Context, params []float64) (float64, error) {
		report.ObjectiveEvaluations++
		return objective(ctx, params)
	}
}

func cloneParams(params []float64) []float64 {
	return append([]float64(nil), params...)
}
