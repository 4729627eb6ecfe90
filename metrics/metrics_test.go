package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func pairs() *mat.Dense {
	return mat.NewDense(4, 2, []float64{
		0, 0,
		0, 1,
		10, 0,
		10, 1,
	})
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSilhouetteKnownValue(t *testing.T) {
	// a = 1 for every row, b = mean(10, sqrt(101))
	got, err := Silhouette(pairs(), []int{0, 0, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	b := (10 + math.Sqrt(101)) / 2
	if want := (b - 1) / b; !near(got, want) {
		t.Errorf("silhouette = %g, want %g", got, want)
	}
}

func TestSilhouetteSingletonScoresZero(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{0, 1, 10})
	got, err := Silhouette(x, []int{0, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	// rows 0 and 1: a = 1, b = 10 and 9
	want := ((10-1)/10.0 + (9-1)/9.0 + 0) / 3
	if !near(got, want) {
		t.Errorf("silhouette = %g, want %g", got, want)
	}
}

func TestCalinskiHarabasz(t *testing.T) {
	got, err := CalinskiHarabasz(pairs(), []int{7, 7, 3, 3})
	if err != nil {
		t.Fatal(err)
	}
	// between = 4 * 25 = 100, within = 4 * 0.25 = 1, n-k = 2, k-1 = 1
	if !near(got, 200) {
		t.Errorf("calinski-harabasz = %g, want 200", got)
	}
}

func TestDaviesBouldin(t *testing.T) {
	got, err := DaviesBouldin(pairs(), []int{0, 0, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	// scatter 0.5 per cluster, centroids 10 apart
	if !near(got, 0.1) {
		t.Errorf("davies-bouldin = %g, want 0.1", got)
	}
}

func TestEvaluateDegenerate(t *testing.T) {
	s, err := Evaluate(pairs(), []int{2, 2, 2, 2})
	if err != nil {
		t.Fatalf("single cluster must not fail: %v", err)
	}
	if s.NLabels != 1 {
		t.Errorf("NLabels = %d, want 1", s.NLabels)
	}
	for name, v := range map[string]float64{
		"silhouette":        s.Silhouette,
		"calinski_harabasz": s.CalinskiHarabasz,
		"davies_bouldin":    s.DaviesBouldin,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s = %g, want NaN", name, v)
		}
	}
}

func TestEvaluateEveryRowItsOwnCluster(t *testing.T) {
	s, err := Evaluate(pairs(), []int{0, 1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if s.NLabels != 4 || !math.IsNaN(s.Silhouette) || !math.IsNaN(s.CalinskiHarabasz) || !math.IsNaN(s.DaviesBouldin) {
		t.Errorf("unexpected scores %+v", s)
	}
}

func TestEvaluate(t *testing.T) {
	s, err := Evaluate(pairs(), []int{0, 0, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if s.NLabels != 2 || !(s.Silhouette > 0) || !near(s.CalinskiHarabasz, 200) || !near(s.DaviesBouldin, 0.1) {
		t.Errorf("unexpected scores %+v", s)
	}
}

func TestEvaluateShapeMismatch(t *testing.T) {
	if _, err := Evaluate(pairs(), []int{0, 1}); err == nil {
		t.Error("expected an error for too few labels")
	}
}
