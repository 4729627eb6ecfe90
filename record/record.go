// Package record writes sweep outputs: one JSON line per successful trial
// and one CSV of cluster labels per trial.
package record

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// Result is one trial as written to the results file.
type Result struct {
	SampleSize       int
	Kernel           string
	NClusters        int
	NLabels          int
	Time             float64 // seconds spent fitting
	Silhouette       float64
	CalinskiHarabasz float64
	DaviesBouldin    float64
	LearningRate     float64
	Score            float64
	NIter            int
	HiddenDim        int
	OvO              bool
}

// fields lists the JSON keys of r in file order.
func (r Result) fields() []struct {
	key   string
	value interface{}
} {
	return []struct {
		key   string
		value interface{}
	}{
		{"sample_size", r.SampleSize},
		{"kernel", r.Kernel},
		{"n_clusters", r.NClusters},
		{"n_labels", r.NLabels},
		{"time", r.Time},
		{"silhouette", r.Silhouette},
		{"calinski_harabasz", r.CalinskiHarabasz},
		{"davies_bouldin", r.DaviesBouldin},
		{"learning_rate", r.LearningRate},
		{"score", r.Score},
		{"n_iter", r.NIter},
		{"hidden_dim", r.HiddenDim},
		{"ov", r.OvO},
	}
}

// MarshalJSON writes r as an object with keys in a fixed order. Undefined
// scores are written as null.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields() {
		v, err := ToJSON(f.value)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.key)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.key)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(f.key))
		buf.WriteByte(':')
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type wireResult struct {
	SampleSize       int      `json:"sample_size"`
	Kernel           string   `json:"kernel"`
	NClusters        int      `json:"n_clusters"`
	NLabels          int      `json:"n_labels"`
	Time             *float64 `json:"time"`
	Silhouette       *float64 `json:"silhouette"`
	CalinskiHarabasz *float64 `json:"calinski_harabasz"`
	DaviesBouldin    *float64 `json:"davies_bouldin"`
	LearningRate     *float64 `json:"learning_rate"`
	Score            *float64 `json:"score"`
	NIter            int      `json:"n_iter"`
	HiddenDim        int      `json:"hidden_dim"`
	OvO              bool     `json:"ov"`
}

func orNaN(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}

// UnmarshalJSON reads a line written by MarshalJSON; null scores become NaN.
func (r *Result) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Result{
		SampleSize:       w.SampleSize,
		Kernel:           w.Kernel,
		NClusters:        w.NClusters,
		NLabels:          w.NLabels,
		Time:             orNaN(w.Time),
		Silhouette:       orNaN(w.Silhouette),
		CalinskiHarabasz: orNaN(w.CalinskiHarabasz),
		DaviesBouldin:    orNaN(w.DaviesBouldin),
		LearningRate:     orNaN(w.LearningRate),
		Score:            orNaN(w.Score),
		NIter:            w.NIter,
		HiddenDim:        w.HiddenDim,
		OvO:              w.OvO,
	}
	return nil
}

// Recorder appends results to a line delimited JSON file.
type Recorder struct {
	path string
}

// Create truncates path, creating its directory when needed, and returns a
// Recorder appending to it.
func Create(path string) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating results directory")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "truncating results file")
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &Recorder{path: path}, nil
}

func (r *Recorder) Path() string { return r.path }

// Append writes one line for res. The file is opened and closed on every
// call, so lines already written survive a crash.
func (r *Recorder) Append(res Result) error {
	line, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "serializing result")
	}
	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return errors.Wrap(err, "opening results file")
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return errors.Wrap(err, "appending result")
	}
	return f.Close()
}

// ReadResults parses every line of a results file.
func ReadResults(path string) ([]Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening results file")
	}
	defer f.Close()

	var out []Result
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var r Result
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		out = append(out, r)
	}
	return out, errors.Wrap(scanner.Err(), "reading results file")
}

// WriteLabels writes an index,cluster table to path, replacing any previous
// file. indices are the source rows of the sampled observations.
func WriteLabels(path string, indices, labels []int) error {
	if len(indices) != len(labels) {
		return errors.Errorf("record: %d indices for %d labels", len(indices), len(labels))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating labels directory")
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating labels file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"index", "cluster"}); err != nil {
		return err
	}
	for i, idx := range indices {
		if err := writer.Write([]string{strconv.Itoa(idx), strconv.Itoa(labels[i])}); err != nil {
			return errors.Wrap(err, "writing labels")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, "writing labels")
	}
	return file.Close()
}

// ReadLabels parses a file written by WriteLabels.
func ReadLabels(path string) (indices, labels []int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening labels file")
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading labels file")
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("labels file has no header")
	}
	for _, row := range rows[1:] {
		idx, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "index %q", row[0])
		}
		cl, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "cluster %q", row[1])
		}
		indices = append(indices, idx)
		labels = append(labels, cl)
	}
	return indices, labels, nil
}
