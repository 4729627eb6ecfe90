// Package metrics scores a clustering without ground truth: silhouette,
// Calinski-Harabasz and Davies-Bouldin, all on euclidean distances.
package metrics

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrLabelCount is returned when a score is undefined for the number of
// distinct labels.
var ErrLabelCount = errors.New("metrics: score undefined for this number of labels")

// Scores holds the three quality measures. Undefined values are NaN.
type Scores struct {
	NLabels          int
	Silhouette       float64
	CalinskiHarabasz float64
	DaviesBouldin    float64
}

// groups maps labels to dense cluster ids and returns them with the rows of
// every cluster.
func groups(x mat.Matrix, labels []int) ([][]int, error) {
	n, _ := x.Dims()
	if len(labels) != n {
		return nil, errors.Errorf("metrics: %d labels for %d rows", len(labels), n)
	}
	ids := make(map[int]int)
	var members [][]int
	for i, l := range labels {
		id, ok := ids[l]
		if !ok {
			id = len(members)
			ids[l] = id
			members = append(members, nil)
		}
		members[id] = append(members[id], i)
	}
	return members, nil
}

func rows(x mat.Matrix) [][]float64 {
	n, _ := x.Dims()
	out := make([][]float64, n)
	for i := range out {
		out[i] = mat.Row(nil, i, x)
	}
	return out
}

func centroid(points [][]float64, members []int) []float64 {
	c := make([]float64, len(points[0]))
	for _, i := range members {
		floats.Add(c, points[i])
	}
	floats.Scale(1/float64(len(members)), c)
	return c
}

// Silhouette is the mean silhouette coefficient over all rows. A row alone in
// its cluster scores zero. It needs between 2 and n-1 distinct labels.
func Silhouette(x mat.Matrix, labels []int) (float64, error) {
	members, err := groups(x, labels)
	if err != nil {
		return 0, err
	}
	n := len(labels)
	if len(members) < 2 || len(members) > n-1 {
		return 0, errors.Wrapf(ErrLabelCount, "silhouette with %d labels for %d rows", len(members), n)
	}
	points := rows(x)
	cluster := make([]int, n)
	for id, m := range members {
		for _, i := range m {
			cluster[i] = id
		}
	}

	var total float64
	sums := make([]float64, len(members))
	for i := 0; i < n; i++ {
		own := members[cluster[i]]
		if len(own) == 1 {
			continue
		}
		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			if i != j {
				sums[cluster[j]] += floats.Distance(points[i], points[j], 2)
			}
		}
		a := sums[cluster[i]] / float64(len(own)-1)
		b := math.Inf(1)
		for c, s := range sums {
			if c != cluster[i] {
				b = math.Min(b, s/float64(len(members[c])))
			}
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n), nil
}

// CalinskiHarabasz is the ratio of between-cluster to within-cluster
// dispersion, each normalized by its degrees of freedom. It is 1 when every
// cluster is a single point repeated.
func CalinskiHarabasz(x mat.Matrix, labels []int) (float64, error) {
	members, err := groups(x, labels)
	if err != nil {
		return 0, err
	}
	n, k := len(labels), len(members)
	if k < 2 || k > n-1 {
		return 0, errors.Wrapf(ErrLabelCount, "calinski-harabasz with %d labels for %d rows", k, n)
	}
	points := rows(x)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	mean := centroid(points, all)

	var between, within float64
	for _, m := range members {
		c := centroid(points, m)
		d := floats.Distance(c, mean, 2)
		between += float64(len(m)) * d * d
		for _, i := range m {
			d := floats.Distance(points[i], c, 2)
			within += d * d
		}
	}
	if within == 0 {
		return 1, nil
	}
	return between * float64(n-k) / (within * float64(k-1)), nil
}

// DaviesBouldin is the mean, over clusters, of the worst ratio of summed
// scatter to centroid separation. Lower is better.
func DaviesBouldin(x mat.Matrix, labels []int) (float64, error) {
	members, err := groups(x, labels)
	if err != nil {
		return 0, err
	}
	n, k := len(labels), len(members)
	if k < 2 || k > n-1 {
		return 0, errors.Wrapf(ErrLabelCount, "davies-bouldin with %d labels for %d rows", k, n)
	}
	points := rows(x)
	centroids := make([][]float64, k)
	scatter := make([]float64, k)
	for c, m := range members {
		centroids[c] = centroid(points, m)
		for _, i := range m {
			scatter[c] += floats.Distance(points[i], centroids[c], 2)
		}
		scatter[c] /= float64(len(m))
	}

	var total float64
	for a := 0; a < k; a++ {
		worst := 0.0
		for b := 0; b < k; b++ {
			if a == b {
				continue
			}
			sep := floats.Distance(centroids[a], centroids[b], 2)
			if sep == 0 {
				// coincident centroids never win the max
				continue
			}
			worst = math.Max(worst, (scatter[a]+scatter[b])/sep)
		}
		total += worst
	}
	return total / float64(k), nil
}

// Evaluate computes all three scores. Fewer than two distinct labels is an
// expected outcome of a sweep, not an error: every score is NaN then.
// Otherwise a score whose label count is out of range is NaN on its own.
func Evaluate(x mat.Matrix, labels []int) (Scores, error) {
	members, err := groups(x, labels)
	if err != nil {
		return Scores{}, err
	}
	s := Scores{
		NLabels:          len(members),
		Silhouette:       math.NaN(),
		CalinskiHarabasz: math.NaN(),
		DaviesBouldin:    math.NaN(),
	}
	if s.NLabels < 2 {
		return s, nil
	}
	for _, m := range []struct {
		dst *float64
		fn  func(mat.Matrix, []int) (float64, error)
	}{
		{&s.Silhouette, Silhouette},
		{&s.CalinskiHarabasz, CalinskiHarabasz},
		{&s.DaviesBouldin, DaviesBouldin},
	} {
		v, err := m.fn(x, labels)
		switch {
		case errors.Cause(err) == ErrLabelCount:
		case err != nil:
			return s, err
		default:
			*m.dst = v
		}
	}
	return s, nil
}
