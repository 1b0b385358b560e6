package nn

import (
	"math"
	"testing"
)

func TestRescale(t *testing.T) {
	if got := Rescale(0, -1e-5, 1e-3); got != -1e-5 {
		t.Fatalf("unexpected low end: %g", got)
	}
	if got := Rescale(1, -1e-5, 1e-3); math.Abs(got-1e-3) > 1e-18 {
		t.Fatalf("unexpected high end: %g", got)
	}
	if got := Rescale(0.5, 2, 4); got != 3 {
		t.Fatalf("unexpected midpoint: %g", got)
	}
}

func TestClip(t *testing.T) {
	if got := Clip(5, -3, 3); got != 3 {
		t.Fatalf("expected upper clip, got=%g", got)
	}
	if got := Clip(-5, -3, 3); got != -3 {
		t.Fatalf("expected lower clip, got=%g", got)
	}
	if got := Clip(1, -3, 3); got != 1 {
		t.Fatalf("expected passthrough, got=%g", got)
	}
}
