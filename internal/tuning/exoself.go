package tuning

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
)

// Exoself is a stochastic hill climber: each epoch perturbs one or more base
// parameter vectors and keeps the best candidate when it lowers the loss by
// more than MinImprovement.
type Exoself struct {
	Rand               *rand.Rand
	Steps              int
	StepSize           float64
	PerturbationRange  float64
	AnnealingFactor    float64
	MinImprovement     float64
	GoalLoss           float64
	CandidateSelection string
	mu                 sync.Mutex
}

const (
	CandidateSelectBestSoFar = "best_so_far"
	CandidateSelectOriginal  = "original"
	CandidateSelectDynamicA  = "dynamic"
	CandidateSelectDynamic   = "dynamic_random"
	CandidateSelectAll       = "all"
	CandidateSelectAllRandom = "all_random"
	CandidateSelectRecent    = "recent"
	CandidateSelectRecentRnd = "recent_random"
)

func (e *Exoself) Name() string {
	return "exoself_hillclimb"
}

func (e *Exoself) Tune(ctx context.Context, params []float64, epochs int, objective ObjectiveFn, observe EpochFn) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if e == nil || e.Rand == nil {
		return Result{}, errors.New("random source is required")
	}
	if e.Steps <= 0 {
		return Result{}, errors.New("steps must be > 0")
	}
	if e.StepSize <= 0 {
		return Result{}, errors.New("step size must be > 0")
	}
	if e.PerturbationRange < 0 {
		return Result{}, errors.New("perturbation range must be >= 0")
	}
	if e.AnnealingFactor < 0 {
		return Result{}, errors.New("annealing factor must be >= 0")
	}
	if e.MinImprovement < 0 {
		return Result{}, errors.New("min improvement must be >= 0")
	}
	if objective == nil {
		return Result{}, ErrNoObjective
	}
	perturbationRange := e.PerturbationRange
	if perturbationRange == 0 {
		perturbationRange = 1.0
	}
	annealingFactor := e.AnnealingFactor
	if annealingFactor == 0 {
		annealingFactor = 1.0
	}

	report := TuneReport{EpochsPlanned: max(epochs, 0)}
	eval := countingObjective(objective, &report)

	original := cloneParams(params)
	best := cloneParams(params)
	bestLoss, err := eval(ctx, best)
	if err != nil {
		return Result{}, err
	}
	history := make([]float64, 0, report.EpochsPlanned)
	if len(params) == 0 || e.goalReached(bestLoss) {
		return Result{Params: best, Loss: bestLoss, History: history, Report: report}, nil
	}
	recent := cloneParams(best)

	for epoch := 0; epoch < epochs; epoch++ {
		bases, err := e.candidateBases(best, original, recent)
		if err != nil {
			return Result{}, err
		}
		localBest := cloneParams(best)
		localBestLoss := bestLoss
		for _, base := range bases {
			candidate, err := e.perturbCandidate(ctx, base, perturbationRange, annealingFactor)
			if err != nil {
				return Result{}, err
			}
			candidateLoss, err := eval(ctx, candidate)
			if err != nil {
				return Result{}, err
			}
			if candidateLoss < localBestLoss-e.MinImprovement {
				localBest = candidate
				localBestLoss = candidateLoss
				report.AcceptedCandidates++
			} else {
				report.RejectedCandidates++
			}
		}
		recent = cloneParams(localBest)
		if localBestLoss < bestLoss-e.MinImprovement {
			best = localBest
			bestLoss = localBestLoss
		}
		history = append(history, bestLoss)
		report.EpochsExecuted++
		if observe != nil {
			observe(epoch, bestLoss)
		}
		if e.goalReached(bestLoss) {
			break
		}
	}

	return Result{Params: best, Loss: bestLoss, History: history, Report: report}, nil
}

func (e *Exoself) goalReached(loss float64) bool {
	return e.GoalLoss > 0 && loss <= e.GoalLoss
}

func (e *Exoself) randIntn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Rand.Intn(n)
}

func (e *Exoself) randFloat64() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Rand.Float64()
}

func NormalizeCandidateSelectionName(name string) string {
	if name == "" {
		return CandidateSelectBestSoFar
	}
	return name
}

func (e *Exoself) candidateBases(best, original, recent []float64) ([][]float64, error) {
	mode := NormalizeCandidateSelectionName(e.CandidateSelection)
	if isRandomSelection(mode) {
		pool, err := candidateBasesForMode(nonRandomModeFor(mode), best, original, recent)
		if err != nil {
			return nil, err
		}
		return e.randomSubset(pool), nil
	}
	return candidateBasesForMode(mode, best, original, recent)
}

func candidateBasesForMode(mode string, best, original, recent []float64) ([][]float64, error) {
	switch mode {
	case CandidateSelectBestSoFar:
		return [][]float64{cloneParams(best)}, nil
	case CandidateSelectOriginal:
		return [][]float64{cloneParams(original)}, nil
	case CandidateSelectDynamicA:
		return [][]float64{cloneParams(best), cloneParams(original)}, nil
	case CandidateSelectRecent:
		return [][]float64{cloneParams(recent)}, nil
	case CandidateSelectAll:
		return [][]float64{cloneParams(best), cloneParams(original), cloneParams(recent)}, nil
	default:
		return nil, errors.New("unsupported candidate selection")
	}
}

func isRandomSelection(mode string) bool {
	switch mode {
	case CandidateSelectDynamic, CandidateSelectAllRandom, CandidateSelectRecentRnd:
		return true
	default:
		return false
	}
}

func nonRandomModeFor(mode string) string {
	switch mode {
	case CandidateSelectDynamic:
		return CandidateSelectDynamicA
	case CandidateSelectAllRandom:
		return CandidateSelectAll
	case CandidateSelectRecentRnd:
		return CandidateSelectRecent
	default:
		return mode
	}
}

func (e *Exoself) randomSubset(pool [][]float64) [][]float64 {
	if len(pool) <= 1 {
		return pool
	}
	mutationP := 1 / math.Sqrt(float64(len(pool)))
	chosen := make([][]float64, 0, len(pool))
	for i := range pool {
		if e.randFloat64() < mutationP {
			chosen = append(chosen, cloneParams(pool[i]))
		}
	}
	if len(chosen) > 0 {
		return chosen
	}
	return [][]float64{cloneParams(pool[e.randIntn(len(pool))])}
}

func (e *Exoself) perturbCandidate(ctx context.Context, base []float64, perturbationRange, annealingFactor float64) ([]float64, error) {
	candidate := cloneParams(base)
	for s := 0; s < e.Steps; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx := e.randIntn(len(candidate))
		spread := e.StepSize * perturbationRange * math.Pow(annealingFactor, float64(s))
		delta := (e.randFloat64()*2 - 1) * spread
		candidate[idx] += delta
	}
	return candidate, nil
}
