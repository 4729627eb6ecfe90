// Package baseline provides a plain k-means clusterer to compare GEMINI
// sweeps against.
package baseline

import (
	"github.com/mpraski/clusters"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const defaultIterations = 1000

type KMeans struct {
	k          int
	iterations int
	centroids  [][]float64
}

// NewKMeans returns a k-means clusterer with k clusters and at most
// iterations Lloyd steps; zero iterations means 1000.
func NewKMeans(k, iterations int) *KMeans {
	if iterations <= 0 {
		iterations = defaultIterations
	}
	return &KMeans{k: k, iterations: iterations}
}

func toRows(x mat.Matrix) [][]float64 {
	n, _ := x.Dims()
	data := make([][]float64, n)
	for i := range data {
		data[i] = mat.Row(nil, i, x)
	}
	return data
}

// FitPredict learns the clusters of x and returns them numbered from zero in
// order of first appearance.
func (c *KMeans) FitPredict(x *mat.Dense) ([]int, error) {
	data := toRows(x)
	if c.k < 2 || c.k > len(data) {
		return nil, errors.Errorf("baseline: cannot make %d clusters from %d rows", c.k, len(data))
	}
	km, err := clusters.KMeans(c.iterations, c.k, clusters.EuclideanDistance)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create KMeans clusterer")
	}
	if err := km.Learn(data); err != nil {
		return nil, errors.Wrap(err, "failed to learn clusters")
	}

	ids := make(map[int]int)
	labels := make([]int, len(data))
	for i, guess := range km.Guesses() {
		id, ok := ids[guess]
		if !ok {
			id = len(ids)
			ids[guess] = id
		}
		labels[i] = id
	}

	c.centroids = make([][]float64, len(ids))
	counts := make([]float64, len(ids))
	for i, l := range labels {
		if c.centroids[l] == nil {
			c.centroids[l] = make([]float64, len(data[i]))
		}
		floats.Add(c.centroids[l], data[i])
		counts[l]++
	}
	for l := range c.centroids {
		floats.Scale(1/counts[l], c.centroids[l])
	}
	return labels, nil
}

// Score is the negative within-cluster sum of squares of x against the
// learned centroids, so that higher is better as for GEMINI.
func (c *KMeans) Score(x *mat.Dense) (float64, error) {
	if c.centroids == nil {
		return 0, errors.New("baseline: k-means is not fitted")
	}
	var inertia float64
	for _, row := range toRows(x) {
		best := -1.0
		for _, centroid := range c.centroids {
			d := floats.Distance(row, centroid, 2)
			if best < 0 || d < best {
				best = d
			}
		}
		inertia += best * best
	}
	return -inertia, nil
}

// NIter reports the iteration budget; the underlying clusterer does not
// expose how many steps it took.
func (c *KMeans) NIter() int { return c.iterations }
