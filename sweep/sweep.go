// Package sweep trains a clustering model over every point of a
// hyperparameter grid and records one result line and one labels file per
// successful trial.
package sweep

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"gemsweep/console"
	"gemsweep/dataset"
	"gemsweep/grid"
	"gemsweep/record"
	"gemsweep/report"
)

// Summary counts what a sweep did. Failures keeps every skipped trial.
type Summary struct {
	RunID     string
	Visited   int
	Succeeded int
	Failed    int
	Failures  []*TrialError
	Elapsed   time.Duration
}

type settings struct {
	factory Factory
	log     *console.Logger
	now     func() time.Time
}

// Option changes how Run builds models, logs or measures time.
type Option func(*settings)

// WithFactory replaces the models built from the plan.
func WithFactory(f Factory) Option {
	return func(s *settings) { s.factory = f }
}

// WithLogger sends progress to l instead of stdout.
func WithLogger(l *console.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithClock replaces time.Now for trial timings.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func loadMatrix(path string) (*mat.Dense, error) {
	m, err := dataset.Load(path)
	if err != nil {
		return nil, errors.Wrap(err, "loading data")
	}
	return dataset.Standardize(m), nil
}

// laterSize reports whether a configuration after i asks for another sample
// size, i.e. whether the full matrix is still needed.
func laterSize(configs []grid.Config, i int) bool {
	for _, c := range configs[i+1:] {
		if c.SampleSize != configs[i].SampleSize {
			return true
		}
	}
	return false
}

// Run visits every configuration of the plan in order. A trial that fails is
// logged and skipped. Run itself fails only when the data cannot be loaded,
// an output cannot be written, or ctx is done.
func Run(ctx context.Context, plan Plan, options ...Option) (Summary, error) {
	s := settings{factory: plan.Factory(), log: console.Default(), now: time.Now}
	for _, o := range options {
		o(&s)
	}
	log := s.log
	sum := Summary{RunID: uuid.New().String()}
	started := s.now()

	if err := plan.Validate(); err != nil {
		return sum, err
	}
	rec, err := record.Create(plan.Output)
	if err != nil {
		return sum, err
	}

	configs := grid.Enumerate(plan.Model, plan.OvO, plan.Grid)
	log.Info("🚀 Sweep %s: %d configurations of %s, results in %s", sum.RunID, len(configs), plan.Model, rec.Path())

	var base *mat.Dense
	if !plan.LoadPerSample {
		log.Info("📂 Loading %s", plan.Data)
		if base, err = loadMatrix(plan.Data); err != nil {
			return sum, err
		}
	}

	runner := Runner{Factory: s.factory, Now: s.now}
	var (
		sample    dataset.Sample
		sampleErr error
	)
	for i := range configs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		cfg := plan.resolve(configs[i])

		if i == 0 || configs[i].SampleSize != configs[i-1].SampleSize {
			if plan.LoadPerSample {
				log.Info("📂 Loading %s", plan.Data)
				if base, err = loadMatrix(plan.Data); err != nil {
					return sum, err
				}
			}
			sample, sampleErr = dataset.Subsample(base, cfg.SampleSize, plan.Seed)
			if sampleErr == nil {
				rows, _ := sample.X.Dims()
				log.Section("Sample of %d standardized spectra", rows)
			}
			if plan.LoadPerSample || !laterSize(configs, i) {
				base = nil
				debug.FreeOSMemory()
			}
		}

		log.Banner("%v", cfg)
		var out Outcome
		if sampleErr != nil {
			out = Outcome{Config: cfg, Err: &TrialError{Config: cfg, Stage: StageSample, Err: sampleErr}}
		} else {
			out = runner.Run(cfg, sample)
		}
		sum.Visited++

		if !out.OK() {
			sum.Failed++
			sum.Failures = append(sum.Failures, out.Err)
			log.Failure("Error during run (%s): %v", out.Err.Stage, out.Err.Err)
			log.Rule()
			continue
		}

		if err := rec.Append(out.Result); err != nil {
			return sum, err
		}
		labelsPath := filepath.Join(plan.LabelsDir, cfg.LabelsName(out.Result.SampleSize))
		if err := record.WriteLabels(labelsPath, sample.Indices, out.Labels); err != nil {
			return sum, err
		}
		sum.Succeeded++
		log.Saved("Labels saved to: %s", labelsPath)
		if plan.Scatter {
			writeScatter(log, strings.TrimSuffix(labelsPath, ".csv")+".html", cfg, sample, out.Labels)
		}

		r := out.Result
		log.Success("Done in %.2fs", r.Time)
		log.Info("📊 n_labels: %d | Silhouette: %.4f | CH: %.2f | DB: %.2f", r.NLabels, r.Silhouette, r.CalinskiHarabasz, r.DaviesBouldin)
		log.Info("🧠 Score: %.2f | Iterations: %d", r.Score, r.NIter)
		if log.DebugEnabled() && len(out.Curve) > 1 {
			log.Block(asciigraph.Plot(out.Curve, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("objective per epoch")))
		}
		log.Rule()
	}

	sum.Elapsed = s.now().Sub(started)
	log.Info("✨ Sweep %s finished in %v: %d visited, %d succeeded, %d failed", sum.RunID, sum.Elapsed, sum.Visited, sum.Succeeded, sum.Failed)
	if sum.Succeeded > 0 {
		results, err := record.ReadResults(rec.Path())
		if err != nil {
			return sum, err
		}
		var buf bytes.Buffer
		report.Table(&buf, results)
		log.Block(buf.String())
	}
	return sum, nil
}

func writeScatter(log *console.Logger, path string, cfg grid.Config, sample dataset.Sample, labels []int) {
	f, err := os.Create(path)
	if err != nil {
		log.Error("scatter %s: %v", path, err)
		return
	}
	defer f.Close()
	if err := report.Scatter(f, cfg.String(), sample.X, labels); err != nil {
		log.Error("scatter %s: %v", path, err)
		return
	}
	log.Saved("Scatter saved to: %s", path)
}
