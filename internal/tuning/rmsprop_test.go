package tuning

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestRMSpropConvergesOnQuadratic(t *testing.T) {
	opt := &RMSprop{LearningRate: 0.05}
	result, err := opt.Tune(context.Background(), []float64{3}, 200, quadratic(1), nil)
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	if math.Abs(result.Params[0]-1) > 0.1 {
		t.Fatalf("unexpected converged param: got=%f want=1", result.Params[0])
	}
	if result.Report.EpochsExecuted != 200 || len(result.History) != 200 {
		t.Fatalf("unexpected report: %+v", result.Report)
	}
	// one baseline plus two perturbed evaluations and one evaluation per epoch
	if want := 1 + 200*3; result.Report.ObjectiveEvaluations != want {
		t.Fatalf("unexpected objective evaluations: got=%d want=%d", result.Report.ObjectiveEvaluations, want)
	}
}

func TestRMSpropFirstStepMatchesClosedForm(t *testing.T) {
	// with zero history the first update is lr * g / (sqrt((1-rho) g^2) + eps)
	opt := &RMSprop{LearningRate: 0.01, Rho: 0.9, Epsilon: 1e-7}
	result, err := opt.Tune(context.Background(), []float64{2}, 1, quadratic(0), nil)
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	g := 4.0
	want := 2 - 0.01*g/(math.Sqrt(0.1*g*g)+1e-7)
	if math.Abs(result.Params[0]-want) > 1e-6 {
		t.Fatalf("unexpected first step: got=%f want=%f", result.Params[0], want)
	}
}

func TestGradientDescentStep(t *testing.T) {
	opt := &GradientDescent{LearningRate: 0.1}
	result, err := opt.Tune(context.Background(), []float64{2}, 1, quadratic(0), nil)
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	if math.Abs(result.Params[0]-1.6) > 1e-6 {
		t.Fatalf("unexpected step: got=%f want=1.6", result.Params[0])
	}
	if opt.Name() != "sgd" {
		t.Fatalf("unexpected name: %s", opt.Name())
	}
}

func TestRMSpropValidation(t *testing.T) {
	if _, err := (&RMSprop{}).Tune(context.Background(), []float64{1}, 1, quadratic(0), nil); !errors.Is(err, ErrInvalidTuner) {
		t.Fatalf("expected ErrInvalidTuner for zero learning rate, got %v", err)
	}
	if _, err := (&RMSprop{LearningRate: 0.1, Rho: 1.5}).Tune(context.Background(), []float64{1}, 1, quadratic(0), nil); !errors.Is(err, ErrInvalidTuner) {
		t.Fatalf("expected ErrInvalidTuner for rho, got %v", err)
	}
	if _, err := (&RMSprop{LearningRate: 0.1}).Tune(context.Background(), []float64{1}, 1, nil, nil); !errors.Is(err, ErrNoObjective) {
		t.Fatalf("expected ErrNoObjective, got %v", err)
	}
}

func TestRMSpropEmptyParamsNoop(t *testing.T) {
	calls := 0
	result, err := (&RMSprop{LearningRate: 0.1}).Tune(context.Background(), nil, 10, func(context.Context, []float64) (float64, error) {
		calls++
		return 0.25, nil
	}, nil)
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	if calls != 1 || result.Loss != 0.25 || result.Report.EpochsExecuted != 0 {
		t.Fatalf("unexpected no-op result: calls=%d result=%+v", calls, result)
	}
}

func TestRMSpropHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&RMSprop{LearningRate: 0.1}).Tune(ctx, []float64{1}, 1, quadratic(0), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
