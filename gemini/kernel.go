package gemini

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// polyDegree and polyCoef0 follow the usual polynomial kernel defaults;
// gamma is 1/features.
const (
	polyDegree = 3
	polyCoef0  = 1.0
)

// gram returns the n×n kernel matrix of the rows of x.
func gram(x mat.Matrix, kernel string) *mat.Dense {
	n, d := x.Dims()
	k := mat.NewDense(n, n, nil)
	k.Mul(x, x.T())
	if kernel == KernelPoly {
		gamma := 1 / float64(d)
		k.Apply(func(_, _ int, v float64) float64 {
			return math.Pow(gamma*v+polyCoef0, polyDegree)
		}, k)
	}
	return k
}

// distances returns the ground distance matrix between rows of x. The linear
// kernel gives euclidean distances; other kernels give the distance induced
// in their feature space.
func distances(x mat.Matrix, kernel string) *mat.Dense {
	k := gram(x, kernel)
	n, _ := k.Dims()
	dist := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sq := k.At(i, i) + k.At(j, j) - 2*k.At(i, j)
			v := math.Sqrt(math.Max(sq, 0))
			dist.Set(i, j, v)
			dist.Set(j, i, v)
		}
	}
	return dist
}

// rowMajor copies m into a fresh row-major slice.
func rowMajor(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

func toTensor(m mat.Matrix) *tensor.Dense {
	r, c := m.Dims()
	return tensor.New(tensor.WithShape(r, c), tensor.WithBacking(rowMajor(m)))
}

func filled(r, c int, v float64) *tensor.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = v
	}
	return tensor.New(tensor.WithShape(r, c), tensor.WithBacking(data))
}

func identity(k int) *tensor.Dense {
	data := make([]float64, k*k)
	for i := 0; i < k; i++ {
		data[i*k+i] = 1
	}
	return tensor.New(tensor.WithShape(k, k), tensor.WithBacking(data))
}

func offDiagonal(k int) *tensor.Dense {
	data := make([]float64, k*k)
	for i := range data {
		if i/k != i%k {
			data[i] = 1
		}
	}
	return tensor.New(tensor.WithShape(k, k), tensor.WithBacking(data))
}

// argmax returns the column of the largest value of every row of an r×c
// row-major slice.
func argmax(probs []float64, r, c int) []int {
	labels := make([]int, r)
	for i := 0; i < r; i++ {
		row := probs[i*c : (i+1)*c]
		best := 0
		for j, v := range row {
			if v > row[best] {
				best = j
			}
		}
		labels[i] = best
	}
	return labels
}
