package pinn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectIsPure(t *testing.T) {
	v := []float64{0.1, 0.2, 0.3, 0.4}
	first, err := Select(v, []int{3, 1})
	require.NoError(t, err)
	second, err := Select(v, []int{3, 1})
	require.NoError(t, err)

	assert.Equal(t, []float64{0.4, 0.2}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4}, v)

	first[0] = 99
	assert.Equal(t, 0.4, v[3], "selection must not alias the input")
}

func TestSelectOutOfRange(t *testing.T) {
	for _, idx := range []int{-1, 4} {
		_, err := Select([]float64{1, 2, 3, 4}, []int{idx})
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("index %d: expected ErrIndexOutOfRange, got %v", idx, err)
		}
	}
}

func TestRouteDisjointSets(t *testing.T) {
	x := []float64{10, 20, 30, 40, 50}
	routed, err := testRouter.Route(x)
	require.NoError(t, err)

	assert.Equal(t, []float64{10}, routed.DamageProxy)
	assert.Equal(t, []float64{20}, routed.Cycle)
	assert.Equal(t, []float64{30}, routed.Load)
	assert.Equal(t, []float64{40}, routed.BearingTemp)
}

func TestRouteOverlappingSets(t *testing.T) {
	router := FeatureRouter{DamageProxy: []int{0, 1}, Cycle: []int{1}, Load: []int{1, 2}, BearingTemp: []int{0}}
	routed, err := router.Route([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, routed.DamageProxy)
	assert.Equal(t, []float64{2, 3}, routed.Load)
}

func TestFeatureRouterValidate(t *testing.T) {
	require.NoError(t, testRouter.Validate(5))

	err := testRouter.Validate(3)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Contains(t, err.Error(), "bearing_temp")
}
