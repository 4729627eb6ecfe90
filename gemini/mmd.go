package gemini

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// sqrtEps keeps the square root of a vanishing discrepancy differentiable.
const sqrtEps = 1e-12

// MMD is MLP-GEMINI with the kernel maximum mean discrepancy.
type MMD struct {
	fitted
}

// NewMMD returns an unfitted MMD model. Zero fields of p take their defaults.
func NewMMD(p Params) *MMD {
	return &MMD{fitted{params: p.withDefaults()}}
}

// objective builds the GEMINI value of net on x as a scalar node.
func (m *MMD) objective(net *network, x mat.Matrix) *G.Node {
	n, d := x.Dims()
	w := net.conditional()
	pi := net.proportions()
	two := G.NewConstant(2.0)

	var gm, cross *G.Node
	var base float64
	if m.params.Kernel == KernelLinear {
		// the linear kernel works in feature space and never forms the n×n gram
		xw := G.Must(G.Mul(G.Must(G.Transpose(net.x)), w))
		gm = G.Must(G.Mul(G.Must(G.Transpose(xw)), xw))
		mean := make([]float64, d)
		for j := 0; j < d; j++ {
			col := mat.Col(nil, j, x)
			mean[j] = floats.Sum(col) / float64(n)
		}
		xbar := G.NewMatrix(net.g, G.Float64, G.WithShape(1, d), G.WithName("xbar"),
			G.WithValue(tensor.New(tensor.WithShape(1, d), tensor.WithBacking(clone(mean)))))
		cross = G.Must(G.Mul(xbar, xw))
		base = floats.Dot(mean, mean)
	} else {
		k := gram(x, m.params.Kernel)
		kn := G.NewMatrix(net.g, G.Float64, G.WithShape(n, n), G.WithName("gram"), G.WithValue(toTensor(k)))
		kw := G.Must(G.Mul(kn, w))
		gm = G.Must(G.Mul(G.Must(G.Transpose(w)), kw))
		cross = G.Must(G.Mul(net.meanRow, kw))
		base = floats.Sum(k.RawMatrix().Data) / float64(n*n)
	}

	// 1×k row of ||mu_k||^2 in the kernel space
	self := G.Must(G.Mul(net.onesRowK, G.Must(G.HadamardProd(gm, net.eyeK))))

	if m.params.OvO {
		spread := G.Must(G.Mul(net.onesK, self))
		sq := G.Must(G.Sub(
			G.Must(G.Add(spread, G.Must(G.Transpose(spread)))),
			G.Must(G.Mul(gm, two)),
		))
		dist := G.Must(G.Sqrt(G.Must(G.Add(G.Must(G.Abs(sq)), G.NewConstant(sqrtEps)))))
		pairs := G.Must(G.HadamardProd(G.Must(G.Mul(G.Must(G.Transpose(pi)), pi)), net.offDiagK))
		return G.Must(G.Sum(G.Must(G.HadamardProd(pairs, dist))))
	}

	sq := G.Must(G.Add(G.Must(G.Sub(self, G.Must(G.Mul(cross, two)))), G.NewConstant(base)))
	dist := G.Must(G.Sqrt(G.Must(G.Add(G.Must(G.Abs(sq)), G.NewConstant(sqrtEps)))))
	return G.Must(G.Sum(G.Must(G.HadamardProd(pi, dist))))
}

// FitPredict trains on x and returns the cluster of every row.
func (m *MMD) FitPredict(x *mat.Dense) ([]int, error) {
	if err := m.checkInput(x); err != nil {
		return nil, err
	}
	m.weights, m.nIter, m.curve = nil, 0, nil
	_, d := x.Dims()
	p := m.params

	net := newNetwork(x, initWeights(d, p.HiddenDim, p.NClusters, p.RandomState))
	obj := m.objective(net, x)
	loss := G.Must(G.Neg(obj))
	learnables := net.learnables()
	if _, err := G.Grad(loss, learnables...); err != nil {
		return nil, errors.Wrap(err, "gemini: differentiating mmd objective")
	}

	vm := G.NewTapeMachine(net.g, G.BindDualValues(learnables...))
	defer vm.Close()
	solver := G.NewAdamSolver(G.WithLearnRate(p.LearningRate))
	stop := &stopper{tol: p.Tol, patience: p.Patience}

	for m.nIter < p.MaxIter {
		if err := vm.RunAll(); err != nil {
			return nil, errors.Wrapf(err, "gemini: epoch %d", m.nIter+1)
		}
		value := scalar(obj)
		if !finite(value) {
			return nil, errors.Wrapf(ErrDiverged, "epoch %d", m.nIter+1)
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
func (m *MMD) Score(x *mat.Dense) (float64, error) {
	if m.weights == nil {
		return 0, ErrNotFitted
	}
	if _, d := x.Dims(); d != m.weights.d {
		return 0, errors.Wrapf(ErrInvalidParam, "fitted on %d features, got %d", m.weights.d, d)
	}
	net := newNetwork(x, *m.weights)
	obj := m.objective(net, x)
	vm := G.NewTapeMachine(net.g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return 0, errors.Wrap(err, "gemini: scoring")
	}
	return scalar(obj), nil
}
