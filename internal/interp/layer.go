package interp

import (
	"fmt"
	"sync"

	"fatiguepinn/internal/model"
)

// TableLayer is a frozen 2-D lookup over a gridded table. The table shape is
// declared once at construction; weights must match it exactly.
type TableLayer struct {
	name  string
	shape [4]int

	mu   sync.RWMutex
	grid *Grid
}

func NewTableLayer(name string, shape [4]int) (*TableLayer, error) {
	if shape[0] != 1 || shape[3] != 1 {
		return nil, fmt.Errorf("%w: %s declared shape %v must be (1, rows, cols, 1)", ErrShapeMismatch, name, shape)
	}
	if shape[1] < 1 || shape[2] < 1 {
		return nil, fmt.Errorf("%w: %s declared shape %v has an empty axis", ErrShapeMismatch, name, shape)
	}
	return &TableLayer{name: name, shape: shape}, nil
}

// NewTableLayerFromGridded declares the layer with table's own shape and
// loads its weights.
func NewTableLayerFromGridded(table model.GriddedTable) (*TableLayer, error) {
	layer, err := NewTableLayer(table.Name, table.Shape)
	if err != nil {
		return nil, err
	}
	if err := layer.SetWeights(table.Shape, table.Data, table.Bounds); err != nil {
		return nil, err
	}
	return layer, nil
}

func (l *TableLayer) Name() string { return l.name }

func (l *TableLayer) Shape() [4]int { return l.shape }

// SetWeights installs the table data and its [[min...], [max...]] bounds.
func (l *TableLayer) SetWeights(shape [4]int, data []float64, bounds [2][2]float64) error {
	if shape != l.shape {
		return fmt.Errorf("%w: %s declared %v, got %v", ErrShapeMismatch, l.name, l.shape, shape)
	}
	grid, err := NewGrid(
		[]int{shape[1], shape[2]},
		data,
		[]float64{bounds[0][0], bounds[0][1]},
		[]float64{bounds[1][0], bounds[1][1]},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", l.name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.grid = grid
	return nil
}

// Weights returns copies of the installed data and bounds.
func (l *TableLayer) Weights() ([]float64, [2][2]float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.grid == nil {
		return nil, [2][2]float64{}, false
	}
	bounds := [2][2]float64{
		{l.grid.Min[0], l.grid.Min[1]},
		{l.grid.Max[0], l.grid.Max[1]},
	}
	return append([]float64(nil), l.grid.Values...), bounds, true
}

// Lookup interpolates at (row coordinate, column coordinate).
func (l *TableLayer) Lookup(row, col float64) (float64, error) {
	l.mu.RLock()
	grid := l.grid
	l.mu.RUnlock()
	if grid == nil {
		return 0, fmt.Errorf("table layer %s has no weights", l.name)
	}
	return grid.Interpolate([]float64{row, col})
}
