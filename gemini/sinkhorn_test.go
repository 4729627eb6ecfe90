package gemini

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func line(points ...float64) *mat.Dense {
	return mat.NewDense(len(points), 1, points)
}

func TestSinkhornMovesPointMass(t *testing.T) {
	tr := newTransport(distances(line(0, 1, 2), KernelLinear), 0.05, 200)
	cost, f, g := tr.solve([]float64{1, 0, 0}, []float64{0, 0, 1})
	if math.Abs(cost-2) > 1e-6 {
		t.Errorf("cost = %g, want 2", cost)
	}
	back, _, _ := tr.solve([]float64{0, 0, 1}, []float64{1, 0, 0})
	if math.Abs(cost-back) > 1e-9 {
		t.Errorf("cost not symmetric: %g vs %g", cost, back)
	}
	for name, p := range map[string][]float64{"f": f, "g": g} {
		if s := floats.Sum(p); math.Abs(s) > 1e-9 {
			t.Errorf("potential %s not centered: sum %g", name, s)
		}
	}
}

func TestSinkhornCheaperForCloserMass(t *testing.T) {
	tr := newTransport(distances(line(0, 1, 5), KernelLinear), 0.05, 200)
	near, _, _ := tr.solve([]float64{1, 0, 0}, []float64{0, 1, 0})
	far, _, _ := tr.solve([]float64{1, 0, 0}, []float64{0, 0, 1})
	if !(near < far) {
		t.Errorf("near cost %g not below far cost %g", near, far)
	}
}
