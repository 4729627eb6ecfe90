package dataset

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestRead(t *testing.T) {
	m, err := Read(strings.NewReader("a,b\n1,2\n3,4.5\n-1,1e3\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3, 4.5, -1, 1000}
	if diff := cmp.Diff(want, m.RawMatrix().Data); diff != "" {
		t.Errorf("unexpected data (-want +got):\n%s", diff)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"header only", "a,b\n"},
		{"not a number", "a,b\n1,x\n"},
		{"missing value", "a,b\n1,\n"},
		{"ragged", "a,b\n1,2\n3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.input)); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if _, err := Read(strings.NewReader("a\n")); errors.Cause(err) != ErrEmpty {
		t.Errorf("header only: got %v, want ErrEmpty", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flux.csv")
	if err := os.WriteFile(path, []byte("f1,f2,f3\n1,2,3\n4,5,6\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if r, c := m.Dims(); r != 2 || c != 3 {
		t.Errorf("dims = %dx%d, want 2x3", r, c)
	}
}

func TestStandardize(t *testing.T) {
	m := mat.NewDense(5, 3, []float64{
		1, 10, 7,
		2, 20, 7,
		3, 35, 7,
		4, 40, 7,
		10, 55, 7,
	})
	s := Standardize(m)
	for j := 0; j < 3; j++ {
		col := mat.Col(nil, j, s)
		mean, std := stat.PopMeanStdDev(col, nil)
		if math.Abs(mean) > 1e-12 {
			t.Errorf("column %d mean = %g, want 0", j, mean)
		}
		want := 1.0
		if j == 2 {
			want = 0 // constant column is only centered
		}
		if math.Abs(std-want) > 1e-12 {
			t.Errorf("column %d std = %g, want %g", j, std, want)
		}
	}
	if m.At(0, 0) != 1 {
		t.Error("Standardize modified its input")
	}
}

func TestSubsample(t *testing.T) {
	m := mat.NewDense(10, 2, nil)
	for i := 0; i < 10; i++ {
		m.SetRow(i, []float64{float64(i), float64(-i)})
	}

	s, err := Subsample(m, 4, 42)
	if err != nil {
		t.Fatal(err)
	}
	if r, _ := s.X.Dims(); r != 4 || len(s.Indices) != 4 {
		t.Fatalf("got %d rows and %d indices, want 4", r, len(s.Indices))
	}
	seen := map[int]bool{}
	for i, src := range s.Indices {
		if seen[src] {
			t.Errorf("row %d drawn twice", src)
		}
		seen[src] = true
		if s.X.At(i, 0) != float64(src) {
			t.Errorf("row %d holds %g, want source row %d", i, s.X.At(i, 0), src)
		}
	}

	again, _ := Subsample(m, 4, 42)
	if diff := cmp.Diff(s.Indices, again.Indices); diff != "" {
		t.Errorf("same seed drew different rows:\n%s", diff)
	}

	full, err := Subsample(m, 0, 42)
	if err != nil {
		t.Fatal(err)
	}
	if !sort.IntsAreSorted(full.Indices) || len(full.Indices) != 10 {
		t.Errorf("full sample indices = %v", full.Indices)
	}

	if _, err := Subsample(m, 11, 42); err == nil {
		t.Error("expected an error for a sample larger than the matrix")
	}
}
