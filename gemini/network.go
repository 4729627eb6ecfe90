package gemini

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// weights holds the perceptron parameters as row-major slices.
type weights struct {
	d, h, k int
	w1, b1  []float64
	w2, b2  []float64
}

// initWeights draws Glorot uniform weights from a generator seeded with seed;
// biases start at zero.
func initWeights(d, h, k int, seed int64) weights {
	rng := rand.New(rand.NewSource(seed))
	glorot := func(fanIn, fanOut int) []float64 {
		limit := math.Sqrt(6 / float64(fanIn+fanOut))
		out := make([]float64, fanIn*fanOut)
		for i := range out {
			out[i] = (2*rng.Float64() - 1) * limit
		}
		return out
	}
	return weights{
		d: d, h: h, k: k,
		w1: glorot(d, h),
		b1: make([]float64, h),
		w2: glorot(h, k),
		b2: make([]float64, k),
	}
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}

// network is the expression graph of the perceptron applied to one matrix.
type network struct {
	g    *G.ExprGraph
	n, k int

	x              *G.Node
	w1, b1, w2, b2 *G.Node
	probs          *G.Node

	onesN    *G.Node // n×1
	sumRow   *G.Node // 1×n of ones
	meanRow  *G.Node // 1×n of 1/n
	onesK    *G.Node // k×1
	onesRowK *G.Node // 1×k
	eyeK     *G.Node
	offDiagK *G.Node
}

func newNetwork(x mat.Matrix, w weights) *network {
	n, d := x.Dims()
	g := G.NewGraph()
	net := &network{g: g, n: n, k: w.k}

	matrix := func(name string, t *tensor.Dense) *G.Node {
		shape := t.Shape()
		return G.NewMatrix(g, G.Float64, G.WithShape(shape[0], shape[1]), G.WithName(name), G.WithValue(t))
	}
	backed := func(r, c int, data []float64) *tensor.Dense {
		return tensor.New(tensor.WithShape(r, c), tensor.WithBacking(clone(data)))
	}

	net.x = matrix("x", toTensor(x))
	net.w1 = matrix("w1", backed(d, w.h, w.w1))
	net.b1 = matrix("b1", backed(1, w.h, w.b1))
	net.w2 = matrix("w2", backed(w.h, w.k, w.w2))
	net.b2 = matrix("b2", backed(1, w.k, w.b2))

	net.onesN = matrix("ones_n", filled(n, 1, 1))
	net.sumRow = matrix("sum_row", filled(1, n, 1))
	net.meanRow = matrix("mean_row", filled(1, n, 1/float64(n)))
	net.onesK = matrix("ones_k", filled(w.k, 1, 1))
	net.onesRowK = matrix("ones_row_k", filled(1, w.k, 1))
	net.eyeK = matrix("eye_k", identity(w.k))
	net.offDiagK = matrix("off_diag_k", offDiagonal(w.k))

	hidden := G.Must(G.Rectify(G.Must(G.Add(
		G.Must(G.Mul(net.x, net.w1)),
		G.Must(G.Mul(net.onesN, net.b1)),
	))))
	logits := G.Must(G.Add(
		G.Must(G.Mul(hidden, net.w2)),
		G.Must(G.Mul(net.onesN, net.b2)),
	))

	// row-wise softmax; the n×1 row sums are spread back over k columns
	exp := G.Must(G.Exp(logits))
	norm := G.Must(G.Mul(G.Must(G.Mul(exp, net.onesK)), net.onesRowK))
	net.probs = G.Must(G.HadamardDiv(exp, norm))
	return net
}

func (net *network) learnables() G.Nodes {
	return G.Nodes{net.w1, net.b1, net.w2, net.b2}
}

// proportions is the 1×k row of cluster proportions pi.
func (net *network) proportions() *G.Node {
	return G.Must(G.Mul(net.meanRow, net.probs))
}

// conditional is the n×k matrix whose columns are the cluster-conditional
// sample weights p(x_i|k) = p(k|x_i) / sum_j p(k|x_j).
func (net *network) conditional() *G.Node {
	mass := G.Must(G.Mul(net.sumRow, net.probs))
	return G.Must(G.HadamardDiv(net.probs, G.Must(G.Mul(net.onesN, mass))))
}

// weights reads the current parameter values back out of the graph.
func (net *network) weights() weights {
	read := func(n *G.Node) []float64 {
		return clone(n.Value().Data().([]float64))
	}
	d := net.w1.Shape()[0]
	h := net.w1.Shape()[1]
	return weights{
		d: d, h: h, k: net.k,
		w1: read(net.w1), b1: read(net.b1),
		w2: read(net.w2), b2: read(net.b2),
	}
}

// forward evaluates the perceptron on x and returns the n×k row-major
// cluster probabilities.
func forward(x mat.Matrix, w weights) ([]float64, error) {
	net := newNetwork(x, w)
	vm := G.NewTapeMachine(net.g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return nil, errors.Wrap(err, "gemini: forward pass")
	}
	return clone(net.probs.Value().Data().([]float64)), nil
}

func scalar(n *G.Node) float64 {
	if n.Value() == nil {
		return math.NaN()
	}
	switch v := n.Value().Data().(type) {
	case float64:
		return v
	case []float64:
		if len(v) == 1 {
			return v[0]
		}
	}
	return math.NaN()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// stopper tracks stalled epochs for early stopping.
type stopper struct {
	tol      float64
	patience int
	stalled  int
	prev     float64
	started  bool
}

func (s *stopper) done(obj float64) bool {
	if s.started {
		if obj-s.prev <= s.tol*math.Max(1, math.Abs(s.prev)) {
			s.stalled++
		} else {
			s.stalled = 0
		}
	}
	s.prev, s.started = obj, true
	return s.stalled >= s.patience
}

// fitted is the state shared by both model variants once trained.
type fitted struct {
	params  Params
	weights *weights
	nIter   int
	curve   []float64
}

func (f *fitted) checkInput(x mat.Matrix) error {
	if err := f.params.validate(); err != nil {
		return err
	}
	n, d := x.Dims()
	if n < 2 || d < 1 {
		return errors.Wrapf(ErrInvalidParam, "need at least 2 samples and 1 feature, got %dx%d", n, d)
	}
	return nil
}

// NIter reports the epochs run by the last fit.
func (f *fitted) NIter() int { return f.nIter }

// Curve returns the objective value at every epoch of the last fit.
func (f *fitted) Curve() []float64 { return clone(f.curve) }

func (f *fitted) predict(x mat.Matrix) ([]int, error) {
	if f.weights == nil {
		return nil, ErrNotFitted
	}
	n, d := x.Dims()
	if d != f.weights.d {
		return nil, errors.Wrapf(ErrInvalidParam, "fitted on %d features, got %d", f.weights.d, d)
	}
	probs, err := forward(x, *f.weights)
	if err != nil {
		return nil, err
	}
	return argmax(probs, n, f.weights.k), nil
}
