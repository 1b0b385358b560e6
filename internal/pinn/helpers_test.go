package pinn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"fatiguepinn/internal/interp"
	"fatiguepinn/internal/model"
)

func constantTable(name string, value float64) model.GriddedTable {
	return model.GriddedTable{
		Name:   name,
		Data:   []float64{value, value, value, value},
		Bounds: [2][2]float64{{0, 0}, {1, 1}},
		Shape:  [4]int{1, 2, 2, 1},
	}
}

func mustLayer(t *testing.T, table model.GriddedTable) *interp.TableLayer {
	t.Helper()
	layer, err := interp.NewTableLayerFromGridded(table)
	require.NoError(t, err)
	return layer
}

// Step vector layout used by the physics tests: damage proxy, cycles, load,
// bearing temperature, then the appended damage state.
var testRouter = FeatureRouter{
	DamageProxy: []int{0},
	Cycle:       []int{1},
	Load:        []int{2},
	BearingTemp: []int{3},
}

func approx(t *testing.T, want, got float64, msg string) {
	t.Helper()
	if math.Abs(want-got) > 1e-9*math.Max(1, math.Abs(want)) {
		t.Fatalf("unexpected %s: got=%g want=%g", msg, got, want)
	}
}
