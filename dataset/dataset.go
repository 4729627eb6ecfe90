// Package dataset loads spectra from CSV into a standardized matrix and
// draws seeded subsamples from it.
package dataset

import (
	"encoding/csv"
	"io"
	"math/rand"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrEmpty is returned for a file with a header but no observations.
var ErrEmpty = errors.New("dataset: no rows")

// Load reads a comma separated file with a header row into a matrix, one row
// per observation. Every cell must be a number.
func Load(filename string) (*mat.Dense, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open file")
	}
	defer file.Close()

	m, err := Read(file)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", filename)
	}
	return m, nil
}

// Read parses CSV from r. See Load.
func Read(r io.Reader) (*mat.Dense, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to read header")
	}

	cols := len(header)
	var data []float64
	rows := 0
	for {
		line, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read row %d", rows+1)
		}
		for j, value := range line {
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, errors.Errorf("unable to parse value %q in row %d column %q as float: %v", value, rows+1, header[j], err)
			}
			data = append(data, f)
		}
		rows++
	}
	if rows == 0 {
		return nil, ErrEmpty
	}
	return mat.NewDense(rows, cols, data), nil
}

// Standardize centers every column on zero and scales it to unit population
// standard deviation. Constant columns are only centered. The scaler is fit
// on m itself.
func Standardize(m mat.Matrix) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		for i, v := range col {
			out.Set(i, j, (v-mean)/std)
		}
	}
	return out
}

// Sample is a set of rows drawn from a larger matrix.
type Sample struct {
	X *mat.Dense
	// Indices holds the row of the source matrix every sampled row came from.
	Indices []int
}

// Full wraps m as a sample of every row in order.
func Full(m *mat.Dense) Sample {
	rows, _ := m.Dims()
	idx := make([]int, rows)
	for i := range idx {
		idx[i] = i
	}
	return Sample{X: m, Indices: idx}
}

// Subsample draws size distinct rows from m with a generator seeded by seed.
// A size of zero, or exactly the row count, keeps every row in order.
func Subsample(m *mat.Dense, size int, seed int64) (Sample, error) {
	rows, cols := m.Dims()
	switch {
	case size < 0:
		return Sample{}, errors.Errorf("sample size must not be negative, got %d", size)
	case size > rows:
		return Sample{}, errors.Errorf("cannot take a sample of %d from %d rows without replacement", size, rows)
	case size == 0 || size == rows:
		return Full(m), nil
	}

	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(rows)[:size]
	x := mat.NewDense(size, cols, nil)
	for i, src := range idx {
		x.SetRow(i, m.RawRowView(src))
	}
	return Sample{X: x, Indices: idx}, nil
}
