package nn

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrActivationNotFound = errors.New("activation not found")

// ActivationFunc is an element-wise nonlinearity applied after a dense layer.
type ActivationFunc func(x float64) float64

// activations are keyed by their Keras names.
var activations = map[string]ActivationFunc{
	"linear": func(x float64) float64 { return x },
	"relu":   func(x float64) float64 { return math.Max(x, 0) },
	"elu": func(x float64) float64 {
		if x < 0 {
			return math.Expm1(x)
		}
		return x
	},
	"tanh":    math.Tanh,
	"sigmoid": sigmoid,
	"hard_sigmoid": func(x float64) float64 {
		return Clip(0.2*x+0.5, 0, 1)
	},
	"softplus": func(x float64) float64 {
		if x > 30 {
			return x
		}
		return math.Log1p(math.Exp(x))
	},
	"softsign": func(x float64) float64 { return x / (1 + math.Abs(x)) },
	"swish":    func(x float64) float64 { return x * sigmoid(x) },
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// GetActivation resolves name; the empty name is linear.
func GetActivation(name string) (ActivationFunc, error) {
	if name == "" {
		name = "linear"
	}
	fn, ok := activations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActivationNotFound, name)
	}
	return fn, nil
}

// ActivationNames lists the known activations in sorted order.
func ActivationNames() []string {
	names := make([]string, 0, len(activations))
	for name := range activations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
