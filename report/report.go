// Package report renders sweep results: an HTML chart of the quality scores
// per trial, a PNG of the silhouette trend and a console table.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"gemsweep/record"
)

// Files written by Render.
const (
	MetricsHTML   = "metrics.html"
	SilhouettePNG = "silhouette.png"
)

func label(r record.Result) string {
	return fmt.Sprintf("k=%d %s hid=%d it=%d", r.NClusters, r.Kernel, r.HiddenDim, r.NIter)
}

func cell(f float64, prec int) string {
	if math.IsNaN(f) {
		return "nan"
	}
	return strconv.FormatFloat(f, 'f', prec, 64)
}

// Table writes one row per result.
func Table(w io.Writer, results []record.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "sample", "kernel", "k", "labels", "hid", "lr", "n_iter", "time", "silhouette", "ch", "db", "score"})
	for i, r := range results {
		table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.SampleSize),
			r.Kernel,
			strconv.Itoa(r.NClusters),
			strconv.Itoa(r.NLabels),
			strconv.Itoa(r.HiddenDim),
			strconv.FormatFloat(r.LearningRate, 'g', -1, 64),
			strconv.Itoa(r.NIter),
			cell(r.Time, 2),
			cell(r.Silhouette, 4),
			cell(r.CalinskiHarabasz, 2),
			cell(r.DaviesBouldin, 2),
			cell(r.Score, 2),
		})
	}
	table.Render()
}

func lineData(results []record.Result, value func(record.Result) float64) []opts.LineData {
	out := make([]opts.LineData, len(results))
	for i, r := range results {
		v := value(r)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			// null leaves a gap in the chart
			out[i] = opts.LineData{Value: nil}
			continue
		}
		out[i] = opts.LineData{Value: v}
	}
	return out
}

// Chart writes an HTML page with one line per quality score, trials in file
// order along the x axis.
func Chart(w io.Writer, results []record.Result) error {
	xs := make([]string, len(results))
	for i, r := range results {
		xs[i] = label(r)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "GEMINI sweep", Subtitle: fmt.Sprintf("%d trials", len(results))}),
		charts.WithXAxisOpts(opts.XAxis{Name: "trial"}),
	)
	line.SetXAxis(xs).
		AddSeries("silhouette", lineData(results, func(r record.Result) float64 { return r.Silhouette })).
		AddSeries("davies_bouldin", lineData(results, func(r record.Result) float64 { return r.DaviesBouldin })).
		AddSeries("calinski_harabasz", lineData(results, func(r record.Result) float64 { return r.CalinskiHarabasz }))
	return line.Render(w)
}

// SilhouettePlot saves a PNG of the silhouette score per trial.
func SilhouettePlot(path string, results []record.Result) error {
	p := plot.New()
	p.Title.Text = "Silhouette per trial"
	p.X.Label.Text = "trial"
	p.Y.Label.Text = "silhouette"

	var xys plotter.XYs
	for i, r := range results {
		if math.IsNaN(r.Silhouette) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(i + 1), Y: r.Silhouette})
	}
	if len(xys) > 0 {
		l, err := plotter.NewLine(xys)
		if err != nil {
			return errors.Wrap(err, "building silhouette line")
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return errors.Wrap(err, "building silhouette points")
		}
		p.Add(l, s)
	}
	return errors.Wrap(p.Save(6*vg.Inch, 4*vg.Inch, path), "saving silhouette plot")
}

// Render writes MetricsHTML and SilhouettePNG to dir and the table to w.
func Render(results []record.Result, dir string, w io.Writer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating report directory")
	}
	f, err := os.Create(filepath.Join(dir, MetricsHTML))
	if err != nil {
		return errors.Wrap(err, "creating chart")
	}
	if err := Chart(f, results); err != nil {
		f.Close()
		return errors.Wrap(err, "rendering chart")
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := SilhouettePlot(filepath.Join(dir, SilhouettePNG), results); err != nil {
		return err
	}
	Table(w, results)
	return nil
}
