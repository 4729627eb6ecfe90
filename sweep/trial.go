package sweep

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"gemsweep/baseline"
	"gemsweep/dataset"
	"gemsweep/gemini"
	"gemsweep/grid"
	"gemsweep/metrics"
	"gemsweep/record"
)

// Clusterer is a model the sweep can train and evaluate.
type Clusterer interface {
	FitPredict(x *mat.Dense) ([]int, error)
	Score(x *mat.Dense) (float64, error)
	// NIter is the number of iterations the last fit actually ran.
	NIter() int
}

// Factory builds the model for one configuration.
type Factory func(cfg grid.Config) (Clusterer, error)

// Factory returns the factory for the plan's model family.
func (p Plan) Factory() Factory {
	return func(cfg grid.Config) (Clusterer, error) {
		params := gemini.Params{
			NClusters:    cfg.NClusters,
			Kernel:       cfg.Kernel,
			Metric:       p.Metric,
			HiddenDim:    cfg.HiddenDim,
			LearningRate: cfg.LearningRate,
			MaxIter:      cfg.MaxIter,
			OvO:          cfg.OvO,
			RandomState:  p.RandomState,
			Tol:          p.Tol,
			Patience:     p.Patience,
			SinkhornReg:  p.SinkhornReg,
			SinkhornIter: p.SinkhornIter,
		}
		switch cfg.Model {
		case ModelMMD:
			return gemini.NewMMD(params), nil
		case ModelWasserstein:
			return gemini.NewWasserstein(params), nil
		case ModelKMeans:
			return baseline.NewKMeans(cfg.NClusters, cfg.MaxIter), nil
		}
		return nil, errors.Errorf("unknown model %q", cfg.Model)
	}
}

// Stage names the step of a trial that failed.
type Stage string

const (
	StageSample  Stage = "sample"
	StageBuild   Stage = "build"
	StageFit     Stage = "fit"
	StageMetrics Stage = "metrics"
	StageScore   Stage = "score"
)

// TrialError describes a trial that produced no result.
type TrialError struct {
	Config grid.Config
	Stage  Stage
	Err    error
}

func (e *TrialError) Error() string {
	return fmt.Sprintf("%s failed for %v: %v", e.Stage, e.Config, e.Err)
}

func (e *TrialError) Unwrap() error { return e.Err }

// Cause lets errors.Cause reach the model's own error.
func (e *TrialError) Cause() error { return e.Err }

// Outcome is the result of one trial: Result and Labels on success, Err
// otherwise.
type Outcome struct {
	Config grid.Config
	Result record.Result
	Labels []int
	// Curve is the per-epoch objective when the model reports one.
	Curve []float64
	Err   *TrialError
}

func (o Outcome) OK() bool { return o.Err == nil }

// Runner runs single trials.
type Runner struct {
	Factory Factory
	Now     func() time.Time
}

// guard turns a panic inside the model into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Run trains a fresh model for cfg on the sample and evaluates it. The
// recorded time covers fitting and predicting.
func (r Runner) Run(cfg grid.Config, sample dataset.Sample) Outcome {
	out := Outcome{Config: cfg}
	fail := func(stage Stage, err error) Outcome {
		out.Err = &TrialError{Config: cfg, Stage: stage, Err: err}
		return out
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}

	var model Clusterer
	if err := guard(func() (err error) {
		model, err = r.Factory(cfg)
		return err
	}); err != nil {
		return fail(StageBuild, err)
	}

	start := now()
	var labels []int
	if err := guard(func() (err error) {
		labels, err = model.FitPredict(sample.X)
		return err
	}); err != nil {
		return fail(StageFit, err)
	}
	elapsed := now().Sub(start)

	scores, err := metrics.Evaluate(sample.X, labels)
	if err != nil {
		return fail(StageMetrics, err)
	}
	var score float64
	if err := guard(func() (err error) {
		score, err = model.Score(sample.X)
		return err
	}); err != nil {
		return fail(StageScore, err)
	}

	rows, _ := sample.X.Dims()
	out.Labels = labels
	out.Result = record.Result{
		SampleSize:       rows,
		Kernel:           cfg.Kernel,
		NClusters:        cfg.NClusters,
		NLabels:          scores.NLabels,
		Time:             elapsed.Seconds(),
		Silhouette:       scores.Silhouette,
		CalinskiHarabasz: scores.CalinskiHarabasz,
		DaviesBouldin:    scores.DaviesBouldin,
		LearningRate:     cfg.LearningRate,
		Score:            score,
		NIter:            model.NIter(),
		HiddenDim:        cfg.HiddenDim,
		OvO:              cfg.OvO,
	}
	if c, ok := model.(interface{ Curve() []float64 }); ok {
		out.Curve = c.Curve()
	}
	return out
}
