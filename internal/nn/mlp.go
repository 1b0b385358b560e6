package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// LayerSpec describes one fully connected layer.
type LayerSpec struct {
	Units      int    `json:"units" yaml:"units"`
	Activation string `json:"activation" yaml:"activation"`
}

// Dense is a fully connected layer; Weights is indexed [out][in].
type Dense struct {
	Weights    [][]float64
	Biases     []float64
	Activation string

	act ActivationFunc
}

// MLP is a small feed-forward network evaluated one sample at a time.
type MLP struct {
	inputs int
	layers []Dense
}

// NewMLP builds a network with Glorot-uniform weights and zero biases.
func NewMLP(inputs int, specs []LayerSpec, rng *rand.Rand) (*MLP, error) {
	if inputs <= 0 {
		return nil, fmt.Errorf("mlp input width must be > 0, got %d", inputs)
	}
	if len(specs) == 0 {
		return nil, errors.New("mlp needs at least one layer")
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}

	m := &MLP{inputs: inputs, layers: make([]Dense, 0, len(specs))}
	fanIn := inputs
	for i, spec := range specs {
		if spec.Units <= 0 {
			return nil, fmt.Errorf("layer %d units must be > 0, got %d", i, spec.Units)
		}
		name := spec.Activation
		if name == "" {
			name = "linear"
		}
		act, err := GetActivation(name)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}

		limit := math.Sqrt(6.0 / float64(fanIn+spec.Units))
		weights := make([][]float64, spec.Units)
		for o := range weights {
			weights[o] = make([]float64, fanIn)
			for in := range weights[o] {
				weights[o][in] = (rng.Float64()*2 - 1) * limit
			}
		}
		m.layers = append(m.layers, Dense{
			Weights:    weights,
			Biases:     make([]float64, spec.Units),
			Activation: name,
			act:        act,
		})
		fanIn = spec.Units
	}
	return m, nil
}

func (m *MLP) InputWidth() int { return m.inputs }

func (m *MLP) OutputWidth() int { return len(m.layers[len(m.layers)-1].Biases) }

func (m *MLP) Layers() []Dense { return m.layers }

func (m *MLP) Forward(x []float64) ([]float64, error) {
	if len(x) != m.inputs {
		return nil, fmt.Errorf("mlp input width mismatch: got %d, want %d", len(x), m.inputs)
	}
	current := x
	for _, layer := range m.layers {
		next := make([]float64, len(layer.Biases))
		for o, row := range layer.Weights {
			total := layer.Biases[o]
			for in, w := range row {
				total += w * current[in]
			}
			next[o] = layer.act(total)
		}
		current = next
	}
	return current, nil
}

// NumParams counts weights and biases.
func (m *MLP) NumParams() int {
	n := 0
	for _, layer := range m.layers {
		n += len(layer.Biases) * (len(layer.Weights[0]) + 1)
	}
	return n
}

// Values flattens every layer as weights (row-major) followed by biases.
func (m *MLP) Values() []float64 {
	out := make([]float64, 0, m.NumParams())
	for _, layer := range m.layers {
		for _, row := range layer.Weights {
			out = append(out, row...)
		}
		out = append(out, layer.Biases...)
	}
	return out
}

// SetValues is the inverse of Values.
func (m *MLP) SetValues(values []float64) error {
	if len(values) != m.NumParams() {
		return fmt.Errorf("mlp parameter count mismatch: got %d, want %d", len(values), m.NumParams())
	}
	pos := 0
	for l := range m.layers {
		layer := &m.layers[l]
		for o := range layer.Weights {
			pos += copy(layer.Weights[o], values[pos:pos+len(layer.Weights[o])])
		}
		pos += copy(layer.Biases, values[pos:pos+len(layer.Biases)])
	}
	return nil
}
