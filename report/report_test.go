package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"gemsweep/record"
)

func results() []record.Result {
	return []record.Result{
		{SampleSize: 4, Kernel: "linear", NClusters: 2, NLabels: 2, Time: 0.1, Silhouette: 0.8, CalinskiHarabasz: 200, DaviesBouldin: 0.1, LearningRate: 0.001, Score: 1.2, NIter: 40, HiddenDim: 10},
		{SampleSize: 4, Kernel: "poly", NClusters: 2, NLabels: 1, Time: 0.2, Silhouette: math.NaN(), CalinskiHarabasz: math.NaN(), DaviesBouldin: math.NaN(), LearningRate: 0.001, Score: 0.3, NIter: 12, HiddenDim: 10},
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, results())
	out := buf.String()
	for _, want := range []string{"SILHOUETTE", "0.8000", "nan", "poly"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRender(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "report")
	var buf bytes.Buffer
	if err := Render(results(), dir, &buf); err != nil {
		t.Fatal(err)
	}
	html, err := os.ReadFile(filepath.Join(dir, MetricsHTML))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "silhouette") {
		t.Error("chart does not mention the silhouette series")
	}
	if info, err := os.Stat(filepath.Join(dir, SilhouettePNG)); err != nil || info.Size() == 0 {
		t.Errorf("png not written: %v", err)
	}
}

func TestScatter(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 10, 0, 10, 1})
	var buf bytes.Buffer
	if err := Scatter(&buf, "labels", x, []int{0, 0, 1, 1}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Cluster 1") {
		t.Error("scatter is missing a cluster series")
	}
	if err := Scatter(&buf, "labels", mat.NewDense(2, 1, nil), []int{0, 1}); err == nil {
		t.Error("expected an error for a single column")
	}
}

func TestLineDataLeavesGapsForUndefinedScores(t *testing.T) {
	data := lineData(results(), func(r record.Result) float64 { return r.Silhouette })
	if len(data) != 2 {
		t.Fatalf("got %d points, want 2", len(data))
	}
	if data[0].Value != 0.8 {
		t.Errorf("first point = %v, want 0.8", data[0].Value)
	}
	if data[1].Value != nil {
		t.Errorf("undefined score plotted as %v, want a gap", data[1].Value)
	}
}
