package nn

import (
	"math"
	"math/rand"
	"testing"
)

func TestMLPForwardKnownWeights(t *testing.T) {
	m, err := NewMLP(2, []LayerSpec{{Units: 2, Activation: "relu"}, {Units: 1, Activation: "linear"}}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("new mlp: %v", err)
	}
	if m.NumParams() != 2*3+1*3 {
		t.Fatalf("unexpected param count: %d", m.NumParams())
	}
	// layer 1: w=[[1,-1],[2,0]] b=[0,1]; layer 2: w=[[0.5,1]] b=[-1]
	if err := m.SetValues([]float64{1, -1, 2, 0, 0, 1, 0.5, 1, -1}); err != nil {
		t.Fatalf("set values: %v", err)
	}
	out, err := m.Forward([]float64{1, 3})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	// hidden = relu([-2, 3]) = [0, 3]; out = 0 + 3 - 1 = 2
	if len(out) != 1 || math.Abs(out[0]-2) > 1e-12 {
		t.Fatalf("unexpected output: %v", out)
	}
	values := m.Values()
	if len(values) != 9 || values[6] != 0.5 || values[8] != -1 {
		t.Fatalf("unexpected values round trip: %v", values)
	}
}

func TestMLPSigmoidOutputInUnitInterval(t *testing.T) {
	m, err := NewMLP(4, []LayerSpec{{Units: 8, Activation: "tanh"}, {Units: 1, Activation: "sigmoid"}}, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("new mlp: %v", err)
	}
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 50; i++ {
		x := []float64{rng.NormFloat64() * 10, rng.NormFloat64(), rng.Float64(), -rng.Float64()}
		out, err := m.Forward(x)
		if err != nil {
			t.Fatalf("forward: %v", err)
		}
		if out[0] < 0 || out[0] > 1 {
			t.Fatalf("sigmoid output out of range: %f", out[0])
		}
	}
}

func TestMLPValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := NewMLP(0, []LayerSpec{{Units: 1}}, rng); err == nil {
		t.Fatal("expected input width error")
	}
	if _, err := NewMLP(2, nil, rng); err == nil {
		t.Fatal("expected empty layers error")
	}
	if _, err := NewMLP(2, []LayerSpec{{Units: 1, Activation: "nope"}}, rng); err == nil {
		t.Fatal("expected unknown activation error")
	}
	if _, err := NewMLP(2, []LayerSpec{{Units: 1}}, nil); err == nil {
		t.Fatal("expected missing rng error")
	}
	m, err := NewMLP(2, []LayerSpec{{Units: 1}}, rng)
	if err != nil {
		t.Fatalf("new mlp: %v", err)
	}
	if _, err := m.Forward([]float64{1}); err == nil {
		t.Fatal("expected input mismatch error")
	}
	if err := m.SetValues([]float64{1}); err == nil {
		t.Fatal("expected param count error")
	}
}

func TestMLPSeededInitIsDeterministic(t *testing.T) {
	specs := []LayerSpec{{Units: 3, Activation: "tanh"}, {Units: 1, Activation: "sigmoid"}}
	a, _ := NewMLP(5, specs, rand.New(rand.NewSource(42)))
	b, _ := NewMLP(5, specs, rand.New(rand.NewSource(42)))
	va, vb := a.Values(), b.Values()
	for i := range va {
		if va[i] != vb[i] {
			t.Fatalf("seeded init differs at %d", i)
		}
	}
}
