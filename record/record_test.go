package record

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func TestToJSON(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"int", 7, int64(7)},
		{"int32", int32(-3), int64(-3)},
		{"uint8", uint8(200), int64(200)},
		{"uint64", uint64(1 << 40), int64(1 << 40)},
		{"uint64 above int64", uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{"float32", float32(0.5), 0.5},
		{"float64", 1.25, 1.25},
		{"nan", math.NaN(), nil},
		{"ints", []int{3, 1, 2}, []interface{}{int64(3), int64(1), int64(2)}},
		{"floats", []float64{0.5, math.Inf(1)}, []interface{}{0.5, nil}},
		{"vector", mat.NewVecDense(2, []float64{4, 5}), []interface{}{4.0, 5.0}},
		{"matrix", mat.NewDense(2, 1, []float64{1, 2}), []interface{}{[]interface{}{1.0}, []interface{}{2.0}}},
		{"string", "poly", "poly"},
		{"bool", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToJSON(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestToJSONRejectsOtherTypes(t *testing.T) {
	for _, v := range []interface{}{struct{}{}, map[string]int{}, make(chan int), complex(1, 2)} {
		_, err := ToJSON(v)
		var typeErr *UnsupportedTypeError
		if !errors.As(err, &typeErr) {
			t.Errorf("ToJSON(%T): got %v, want *UnsupportedTypeError", v, err)
		}
	}
}

func sampleResult() Result {
	return Result{
		SampleSize:       4,
		Kernel:           "linear",
		NClusters:        2,
		NLabels:          2,
		Time:             0.25,
		Silhouette:       0.8,
		CalinskiHarabasz: 200,
		DaviesBouldin:    0.1,
		LearningRate:     0.001,
		Score:            1.5,
		NIter:            120,
		HiddenDim:        150,
		OvO:              true,
	}
}

func TestMarshalKeyOrderAndNull(t *testing.T) {
	r := sampleResult()
	r.Silhouette = math.NaN()
	b, err := r.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"sample_size":4,"kernel":"linear","n_clusters":2,"n_labels":2,"time":0.25,` +
		`"silhouette":null,"calinski_harabasz":200,"davies_bouldin":0.1,"learning_rate":0.001,` +
		`"score":1.5,"n_iter":120,"hidden_dim":150,"ov":true}`
	if string(b) != want {
		t.Errorf("got  %s\nwant %s", b, want)
	}
}

func TestRecorderTruncatesThenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "json", "results.jsonl")

	first, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := first.Append(sampleResult()); err != nil {
			t.Fatal(err)
		}
	}

	second, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	r := sampleResult()
	r.DaviesBouldin = math.NaN()
	if err := second.Append(r); err != nil {
		t.Fatal(err)
	}

	got, err := ReadResults(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Result{r}, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("only the second run should remain (-want +got):\n%s", diff)
	}
}

func TestLabelsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "labels.csv")
	if err := WriteLabels(path, []int{9, 2, 5, 0}, []int{1, 1, 0, 0}); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "index,cluster\n9,1\n2,1\n5,0\n0,0\n"; string(raw) != want {
		t.Errorf("got %q, want %q", raw, want)
	}

	// a second write of the same configuration replaces the file
	if err := WriteLabels(path, []int{1}, []int{3}); err != nil {
		t.Fatal(err)
	}
	idx, labels, err := ReadLabels(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1}, idx); diff != "" {
		t.Error(diff)
	}
	if diff := cmp.Diff([]int{3}, labels); diff != "" {
		t.Error(diff)
	}
}

func TestWriteLabelsLengthMismatch(t *testing.T) {
	err := WriteLabels(filepath.Join(t.TempDir(), "l.csv"), []int{1, 2}, []int{0})
	if err == nil || !strings.Contains(err.Error(), "2 indices for 1 labels") {
		t.Errorf("got %v", err)
	}
}
