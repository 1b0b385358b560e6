package pinn

import (
	"fmt"
	"math"
)

// InspectionSchedule places Count inspections at the end of consecutive
// periods of PeriodDays, sampled every StepMinutes.
type InspectionSchedule struct {
	StepMinutes int `json:"step_minutes" yaml:"step_minutes"`
	PeriodDays  int `json:"period_days" yaml:"period_days"`
	Count       int `json:"count" yaml:"count"`
}

// DefaultInspectionSchedule is six monthly inspections at 10 minute steps.
var DefaultInspectionSchedule = InspectionSchedule{StepMinutes: 10, PeriodDays: 30, Count: 6}

func (s InspectionSchedule) StepsPerPeriod() (int, error) {
	if s.StepMinutes <= 0 || s.PeriodDays <= 0 || s.Count <= 0 {
		return 0, fmt.Errorf("%w: inspection schedule %+v must be positive", ErrInvalidConfig, s)
	}
	minutes := s.PeriodDays * 24 * 60
	if minutes%s.StepMinutes != 0 {
		return 0, fmt.Errorf("%w: period of %d days is not a whole number of %d minute steps", ErrInvalidConfig, s.PeriodDays, s.StepMinutes)
	}
	return minutes / s.StepMinutes, nil
}

// Mask returns the last step index of each inspected period.
func (s InspectionSchedule) Mask() (InspectionMask, error) {
	steps, err := s.StepsPerPeriod()
	if err != nil {
		return nil, err
	}
	mask := make(InspectionMask, s.Count)
	for k := range mask {
		mask[k] = (k+1)*steps - 1
	}
	return mask, nil
}

// InspectionMask is the strictly increasing set of supervised time indices.
type InspectionMask []int

func (m InspectionMask) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("%w: inspection mask is empty", ErrInvalidConfig)
	}
	for i, idx := range m {
		if idx < 0 {
			return fmt.Errorf("%w: inspection index %d is negative", ErrIndexOutOfRange, idx)
		}
		if i > 0 && idx <= m[i-1] {
			return fmt.Errorf("%w: inspection indices must be strictly increasing at position %d", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Last returns the largest index.
func (m InspectionMask) Last() int { return m[len(m)-1] }

// Gather selects the masked indices of every trajectory in one pass.
func (m InspectionMask) Gather(yPred [][]float64) ([][]float64, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	last := m.Last()
	out := make([][]float64, len(yPred))
	for b, trajectory := range yPred {
		if len(trajectory) <= last {
			return nil, fmt.Errorf("%w: trajectory %d has length %d, inspection index %d", ErrIndexOutOfRange, b, len(trajectory), last)
		}
		selected := make([]float64, len(m))
		for i, idx := range m {
			selected[i] = trajectory[idx]
		}
		out[b] = selected
	}
	return out, nil
}

// LossFunc reduces targets and predictions shaped [batch][values] to a
// scalar.
type LossFunc func(yTrue, yPred [][]float64) (float64, error)

// NamedLoss pairs a loss or metric with the name it is reported under.
type NamedLoss struct {
	Name string
	Fn   LossFunc
}

// MaskedMSE compares the predictions at the mask indices with the sparse
// ground truth.
func MaskedMSE(mask InspectionMask) LossFunc {
	return func(yTrue, yPred [][]float64) (float64, error) {
		selected, err := mask.Gather(yPred)
		if err != nil {
			return 0, err
		}
		return MSE(yTrue, selected)
	}
}

// MaskedMAE is the absolute-error counterpart of MaskedMSE.
func MaskedMAE(mask InspectionMask) LossFunc {
	return func(yTrue, yPred [][]float64) (float64, error) {
		selected, err := mask.Gather(yPred)
		if err != nil {
			return 0, err
		}
		return MAE(yTrue, selected)
	}
}

func MSE(yTrue, yPred [][]float64) (float64, error) {
	return meanReduce(yTrue, yPred, func(d float64) float64 { return d * d })
}

func MAE(yTrue, yPred [][]float64) (float64, error) {
	return meanReduce(yTrue, yPred, math.Abs)
}

func meanReduce(yTrue, yPred [][]float64, f func(float64) float64) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("%w: %d targets for %d predictions", ErrIndexOutOfRange, len(yTrue), len(yPred))
	}
	total := 0.0
	count := 0
	for b := range yPred {
		if len(yTrue[b]) != len(yPred[b]) {
			return 0, fmt.Errorf("%w: batch item %d has %d targets for %d predictions", ErrIndexOutOfRange, b, len(yTrue[b]), len(yPred[b]))
		}
		for i, p := range yPred[b] {
			total += f(yTrue[b][i] - p)
		}
		count += len(yPred[b])
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: nothing to compare", ErrInvalidConfig)
	}
	return total / float64(count), nil
}
