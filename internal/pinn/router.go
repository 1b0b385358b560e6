package pinn

import "fmt"

// Select returns vector[indices...] as a new slice.
func Select(vector []float64, indices []int) ([]float64, error) {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(vector) {
			return nil, fmt.Errorf("%w: feature index %d for vector width %d", ErrIndexOutOfRange, idx, len(vector))
		}
		out[i] = vector[idx]
	}
	return out, nil
}

// FeatureRouter holds the index sets of the four named step features. Sets
// may overlap; they are only checked against the vector width.
type FeatureRouter struct {
	DamageProxy []int `json:"damage_proxy" yaml:"damage_proxy"`
	Cycle       []int `json:"cycle" yaml:"cycle"`
	Load        []int `json:"load" yaml:"load"`
	BearingTemp []int `json:"bearing_temp" yaml:"bearing_temp"`
}

// Routed carries the selected sub-vectors by name.
type Routed struct {
	DamageProxy []float64
	Cycle       []float64
	Load        []float64
	BearingTemp []float64
}

// Validate checks every index against width.
func (r FeatureRouter) Validate(width int) error {
	for _, set := range r.sets() {
		for _, idx := range set.indices {
			if idx < 0 || idx >= width {
				return fmt.Errorf("%w: %s index %d for step width %d", ErrIndexOutOfRange, set.name, idx, width)
			}
		}
	}
	return nil
}

func (r FeatureRouter) Route(x []float64) (Routed, error) {
	var out Routed
	var err error
	if out.DamageProxy, err = Select(x, r.DamageProxy); err != nil {
		return Routed{}, fmt.Errorf("damage proxy: %w", err)
	}
	if out.Cycle, err = Select(x, r.Cycle); err != nil {
		return Routed{}, fmt.Errorf("cycle: %w", err)
	}
	if out.Load, err = Select(x, r.Load); err != nil {
		return Routed{}, fmt.Errorf("load: %w", err)
	}
	if out.BearingTemp, err = Select(x, r.BearingTemp); err != nil {
		return Routed{}, fmt.Errorf("bearing temperature: %w", err)
	}
	return out, nil
}

type namedIndexSet struct {
	name    string
	indices []int
}

func (r FeatureRouter) sets() []namedIndexSet {
	return []namedIndexSet{
		{name: "damage_proxy", indices: r.DamageProxy},
		{name: "cycle", indices: r.Cycle},
		{name: "load", indices: r.Load},
		{name: "bearing_temp", indices: r.BearingTemp},
	}
}
