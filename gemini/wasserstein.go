package gemini

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Wasserstein is MLP-GEMINI with entropic Wasserstein distances between
// cluster-conditional distributions.
//
// The transport term is solved outside the graph. Its gradient with respect
// to the cluster probabilities is fed back through a linear surrogate loss
// so the perceptron is still trained by the graph's Adam solver.
type Wasserstein struct {
	fitted
}

// NewWasserstein returns an unfitted Wasserstein model. Zero fields of p
// take their defaults.
func NewWasserstein(p Params) *Wasserstein {
	return &Wasserstein{fitted{params: p.withDefaults()}}
}

func (m *Wasserstein) transport(x mat.Matrix) *transport {
	kernel := m.params.Kernel
	if m.params.Metric == MetricEuclidean {
		kernel = KernelLinear
	}
	return newTransport(distances(x, kernel), m.params.SinkhornReg, m.params.SinkhornIter)
}

// objective returns the GEMINI value of the n×k probabilities and its
// gradient with respect to them, both row-major.
func (m *Wasserstein) objective(t *transport, probs []float64, n, k int) (float64, []float64) {
	mass := make([]float64, k)
	for i := 0; i < n; i++ {
		floats.Add(mass, probs[i*k:(i+1)*k])
	}
	pi := make([]float64, k)
	cond := make([][]float64, k)
	for c := 0; c < k; c++ {
		pi[c] = mass[c] / float64(n)
		cond[c] = make([]float64, n)
		for i := 0; i < n; i++ {
			cond[c][i] = probs[i*k+c] / mass[c]
		}
	}

	grad := make([]float64, n*k)
	// spread adds the chain rule through pi_c and p(x|c) for one transport
	// problem seen from cluster c with potential f and weight coef.
	spread := func(c int, cost float64, f []float64, coef float64) {
		mean := floats.Dot(cond[c], f)
		for j := 0; j < n; j++ {
			grad[j*k+c] += coef / float64(n) * (cost + f[j] - mean)
		}
	}

	var value float64
	if m.params.OvO {
		for a := 0; a < k; a++ {
			for b := a + 1; b < k; b++ {
				cost, f, g := t.solve(cond[a], cond[b])
				value += 2 * pi[a] * pi[b] * cost
				spread(a, cost, f, 2*pi[b])
				spread(b, cost, g, 2*pi[a])
			}
		}
		return value, grad
	}

	uniform := make([]float64, n)
	for i := range uniform {
		uniform[i] = 1 / float64(n)
	}
	for c := 0; c < k; c++ {
		cost, f, _ := t.solve(cond[c], uniform)
		value += pi[c] * cost
		spread(c, cost, f, 1)
	}
	return value, grad
}

// FitPredict trains on x and returns the cluster of every row.
func (m *Wasserstein) FitPredict(x *mat.Dense) ([]int, error) {
	if err := m.checkInput(x); err != nil {
		return nil, err
	}
	m.weights, m.nIter, m.curve = nil, 0, nil
	n, d := x.Dims()
	p := m.params
	t := m.transport(x)

	net := newNetwork(x, initWeights(d, p.HiddenDim, p.NClusters, p.RandomState))
	slope := G.NewMatrix(net.g, G.Float64, G.WithShape(n, p.NClusters), G.WithName("slope"),
		G.WithValue(filled(n, p.NClusters, 0)))
	surrogate := G.Must(G.Sum(G.Must(G.HadamardProd(net.probs, slope))))
	loss := G.Must(G.Neg(surrogate))
	learnables := net.learnables()
	if _, err := G.Grad(loss, learnables...); err != nil {
		return nil, errors.Wrap(err, "gemini: differentiating surrogate loss")
	}

	vm := G.NewTapeMachine(net.g, G.BindDualValues(learnables...))
	defer vm.Close()
	solver := G.NewAdamSolver(G.WithLearnRate(p.LearningRate))
	stop := &stopper{tol: p.Tol, patience: p.Patience}

	for m.nIter < p.MaxIter {
		// first pass reads the probabilities of the current weights
		if err := vm.RunAll(); err != nil {
			return nil, errors.Wrapf(err, "gemini: epoch %d", m.nIter+1)
		}
		probs := clone(net.probs.Value().Data().([]float64))
		vm.Reset()

		value, grad := m.objective(t, probs, n, p.NClusters)
		if !finite(value) {
			return nil, errors.Wrapf(ErrDiverged, "epoch %d", m.nIter+1)
		}
		if err := G.Let(slope, tensor.New(tensor.WithShape(n, p.NClusters), tensor.WithBacking(grad))); err != nil {
			return nil, errors.Wrap(err, "gemini: binding transport gradient")
		}
		if err := vm.RunAll(); err != nil {
			return nil, errors.Wrapf(err, "gemini: epoch %d", m.nIter+1)
		}
		if err := solver.Step(G.NodesToValueGrads(learnables)); err != nil {
			return nil, errors.Wrapf(err, "gemini: adam step %d", m.nIter+1)
		}
		vm.Reset()
		m.nIter++
		m.curve = append(m.curve, value)
		if stop.done(value) {
			break
		}
	}

	w := net.weights()
	m.weights = &w
	return m.predict(x)
}

// Score returns the GEMINI value of the fitted model on x.
func (m *Wasserstein) Score(x *mat.Dense) (float64, error) {
	if m.weights == nil {
		return 0, ErrNotFitted
	}
	n, d := x.Dims()
	if d != m.weights.d {
		return 0, errors.Wrapf(ErrInvalidParam, "fitted on %d features, got %d", m.weights.d, d)
	}
	probs, err := forward(x, *m.weights)
	if err != nil {
		return 0, err
	}
	value, _ := m.objective(m.transport(x), probs, n, m.weights.k)
	return value, nil
}
