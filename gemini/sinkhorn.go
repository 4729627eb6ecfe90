package gemini

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// massFloor keeps every support point strictly positive so dual potentials
// stay finite.
const massFloor = 1e-12

// transport solves entropic optimal transport problems between weightings of
// one fixed set of points.
type transport struct {
	cost  *mat.Dense // ground distance divided by scale
	gibbs *mat.Dense
	scale float64
	reg   float64
	iters int
}

func newTransport(dist *mat.Dense, reg float64, iters int) *transport {
	n, _ := dist.Dims()
	scale := mat.Max(dist)
	if scale == 0 {
		scale = 1
	}
	cost := mat.NewDense(n, n, nil)
	cost.Scale(1/scale, dist)
	gibbs := mat.NewDense(n, n, nil)
	gibbs.Apply(func(_, _ int, v float64) float64 {
		return math.Exp(-v / reg)
	}, cost)
	return &transport{cost: cost, gibbs: gibbs, scale: scale, reg: reg, iters: iters}
}

func floored(w []float64) []float64 {
	out := make([]float64, len(w))
	for i, v := range w {
		out[i] = math.Max(v, massFloor)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}

// solve runs Sinkhorn iterations between the distributions a and b and
// returns the transport cost with the centered dual potentials of both
// sides, all in ground distance units.
func (t *transport) solve(a, b []float64) (float64, []float64, []float64) {
	n := len(a)
	a, b = floored(a), floored(b)
	u := make([]float64, n)
	v := make([]float64, n)
	for i := range u {
		u[i], v[i] = 1, 1
	}
	uv := mat.NewVecDense(n, u)
	vv := mat.NewVecDense(n, v)
	kv := mat.NewVecDense(n, nil)
	ku := mat.NewVecDense(n, nil)

	for it := 0; it < t.iters; it++ {
		kv.MulVec(t.gibbs, vv)
		for i := 0; i < n; i++ {
			u[i] = a[i] / kv.AtVec(i)
		}
		ku.MulVec(t.gibbs.T(), uv)
		for j := 0; j < n; j++ {
			v[j] = b[j] / ku.AtVec(j)
		}
		if it%10 == 9 {
			kv.MulVec(t.gibbs, vv)
			var drift float64
			for i := 0; i < n; i++ {
				drift += math.Abs(u[i]*kv.AtVec(i) - a[i])
			}
			if drift < 1e-9 {
				break
			}
		}
	}

	var cost float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cost += u[i] * t.gibbs.At(i, j) * v[j] * t.cost.At(i, j)
		}
	}
	potential := func(s []float64) []float64 {
		out := make([]float64, n)
		for i, x := range s {
			out[i] = t.reg * math.Log(x) * t.scale
		}
		floats.AddConst(-floats.Sum(out)/float64(n), out)
		return out
	}
	return cost * t.scale, potential(u), potential(v)
}
