// Package interp evaluates multilinear interpolation over regular grids.
//
// Coordinates outside the declared bounds are clamped to the nearest edge of
// the grid (constant extension); the kernel never extrapolates and never
// fails on out-of-range input.
package interp

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrShapeMismatch = errors.New("table shape mismatch")
	ErrInvalidBounds = errors.New("invalid grid bounds")
	ErrCoordinates   = errors.New("coordinate count mismatch")
)

// Grid is a regular N-axis grid stored row-major (last axis fastest).
type Grid struct {
	Shape  []int
	Values []float64
	Min    []float64
	Max    []float64

	strides []int
}

func NewGrid(shape []int, values, lo, hi []float64) (*Grid, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: grid needs at least one axis", ErrShapeMismatch)
	}
	if len(lo) != len(shape) || len(hi) != len(shape) {
		return nil, fmt.Errorf("%w: %d axes but %d/%d bounds", ErrInvalidBounds, len(shape), len(lo), len(hi))
	}
	size := 1
	for axis, n := range shape {
		if n <= 0 {
			return nil, fmt.Errorf("%w: axis %d has size %d", ErrShapeMismatch, axis, n)
		}
		if math.IsNaN(lo[axis]) || math.IsNaN(hi[axis]) || lo[axis] > hi[axis] {
			return nil, fmt.Errorf("%w: axis %d min=%g max=%g", ErrInvalidBounds, axis, lo[axis], hi[axis])
		}
		size *= n
	}
	if len(values) != size {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShapeMismatch, len(values), shape)
	}

	strides := make([]int, len(shape))
	stride := 1
	for axis := len(shape) - 1; axis >= 0; axis-- {
		strides[axis] = stride
		stride *= shape[axis]
	}
	return &Grid{
		Shape:   append([]int(nil), shape...),
		Values:  append([]float64(nil), values...),
		Min:     append([]float64(nil), lo...),
		Max:     append([]float64(nil), hi...),
		strides: strides,
	}, nil
}

// Interpolate returns the multilinear blend of the 2^N grid points around
// coords.
func (g *Grid) Interpolate(coords []float64) (float64, error) {
	if len(coords) != len(g.Shape) {
		return 0, fmt.Errorf("%w: got %d coordinates for %d axes", ErrCoordinates, len(coords), len(g.Shape))
	}

	axes := len(g.Shape)
	base := make([]int, axes)
	frac := make([]float64, axes)
	for axis, x := range coords {
		base[axis], frac[axis] = g.locate(axis, x)
	}

	total := 0.0
	for corner := 0; corner < 1<<axes; corner++ {
		weight := 1.0
		offset := 0
		for axis := 0; axis < axes; axis++ {
			idx := base[axis]
			if corner&(1<<axis) != 0 {
				weight *= frac[axis]
				idx++
			} else {
				weight *= 1 - frac[axis]
			}
			if weight == 0 {
				break
			}
			offset += idx * g.strides[axis]
		}
		if weight == 0 {
			continue
		}
		total += weight * g.Values[offset]
	}
	return total, nil
}

// locate maps x onto axis and returns the lower grid index with the blend
// fraction towards the next index.
func (g *Grid) locate(axis int, x float64) (int, float64) {
	n := g.Shape[axis]
	span := g.Max[axis] - g.Min[axis]
	if n == 1 || span == 0 || math.IsNaN(x) {
		return 0, 0
	}
	pos := (x - g.Min[axis]) / span * float64(n-1)
	if pos <= 0 {
		return 0, 0
	}
	last := float64(n - 1)
	if pos >= last {
		return n - 2, 1
	}
	lower := math.Floor(pos)
	return int(lower), pos - lower
}
