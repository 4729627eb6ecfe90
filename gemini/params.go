// Package gemini implements MLP-GEMINI clustering: a one-hidden-layer
// perceptron with a softmax output trained to maximize a generalized mutual
// information between the data and the predicted clusters.
//
// Two divergences are provided. MMD compares cluster-conditional
// distributions with a kernel maximum mean discrepancy, Wasserstein with an
// entropic optimal transport distance. Either can be computed one-vs-one
// (between every pair of clusters) or one-vs-all (each cluster against the
// data distribution).
package gemini

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidParam is returned when a model is configured with values it cannot train with.
	ErrInvalidParam = errors.New("gemini: invalid parameter")
	// ErrNotFitted is returned by Score before a successful fit.
	ErrNotFitted = errors.New("gemini: model is not fitted")
	// ErrDiverged is returned when the objective stops being a finite number.
	ErrDiverged = errors.New("gemini: objective diverged")
)

// Kernel names understood by the models.
const (
	KernelLinear = "linear"
	KernelPoly   = "poly"
)

// MetricEuclidean forces a plain euclidean ground distance for Wasserstein.
const MetricEuclidean = "euclidean"

// Params configures both model variants.
type Params struct {
	NClusters    int
	Kernel       string
	Metric       string
	HiddenDim    int
	LearningRate float64
	MaxIter      int
	OvO          bool
	RandomState  int64

	// Tol is the relative objective improvement under which an epoch counts
	// as stalled; Patience stalled epochs in a row stop training.
	Tol      float64
	Patience int

	// SinkhornReg is the entropic regularization relative to the largest
	// ground distance.
	SinkhornReg  float64
	SinkhornIter int
}

// DefaultParams returns the defaults used when a field is left at zero.
func DefaultParams() Params {
	return Params{
		NClusters:    3,
		Kernel:       KernelLinear,
		HiddenDim:    20,
		LearningRate: 1e-3,
		MaxIter:      1000,
		Tol:          1e-4,
		Patience:     10,
		SinkhornReg:  0.05,
		SinkhornIter: 100,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Kernel == "" {
		p.Kernel = d.Kernel
	}
	if p.HiddenDim == 0 {
		p.HiddenDim = d.HiddenDim
	}
	if p.LearningRate == 0 {
		p.LearningRate = d.LearningRate
	}
	if p.MaxIter == 0 {
		p.MaxIter = d.MaxIter
	}
	if p.Tol == 0 {
		p.Tol = d.Tol
	}
	if p.Patience == 0 {
		p.Patience = d.Patience
	}
	if p.SinkhornReg == 0 {
		p.SinkhornReg = d.SinkhornReg
	}
	if p.SinkhornIter == 0 {
		p.SinkhornIter = d.SinkhornIter
	}
	return p
}

func (p Params) validate() error {
	switch {
	case p.NClusters < 2:
		return errors.Wrapf(ErrInvalidParam, "n_clusters must be at least 2, got %d", p.NClusters)
	case p.HiddenDim < 1:
		return errors.Wrapf(ErrInvalidParam, "hidden dim must be positive, got %d", p.HiddenDim)
	case p.LearningRate <= 0:
		return errors.Wrapf(ErrInvalidParam, "learning rate must be positive, got %g", p.LearningRate)
	case p.MaxIter < 1:
		return errors.Wrapf(ErrInvalidParam, "max iter must be positive, got %d", p.MaxIter)
	case p.Kernel != KernelLinear && p.Kernel != KernelPoly:
		return errors.Wrapf(ErrInvalidParam, "unknown kernel %q", p.Kernel)
	case p.Metric != "" && p.Metric != MetricEuclidean:
		return errors.Wrapf(ErrInvalidParam, "unknown metric %q", p.Metric)
	case p.SinkhornReg <= 0 || p.SinkhornIter < 1:
		return errors.Wrapf(ErrInvalidParam, "sinkhorn needs a positive regularization and iteration count")
	}
	return nil
}
