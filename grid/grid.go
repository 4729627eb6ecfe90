// Package grid enumerates the hyperparameter combinations of a sweep.
package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Axes lists the values to try along every hyperparameter. An empty axis
// contributes a single zero value, meaning "use the model default" (or the
// whole matrix for SampleSizes).
type Axes struct {
	SampleSizes   []int     `yaml:"sample_sizes"`
	NClusters     []int     `yaml:"n_clusters"`
	Kernels       []string  `yaml:"kernels"`
	HiddenDims    []int     `yaml:"hidden_dims"`
	MaxIters      []int     `yaml:"max_iters"`
	LearningRates []float64 `yaml:"learning_rates"`
}

// Config is one point of the grid.
type Config struct {
	Model        string
	SampleSize   int
	NClusters    int
	Kernel       string
	HiddenDim    int
	MaxIter      int
	LearningRate float64
	OvO          bool
}

func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "model=%s, n_clusters=%d, kernel=%s, hid=%d", c.Model, c.NClusters, c.Kernel, c.HiddenDim)
	if c.MaxIter > 0 {
		fmt.Fprintf(&b, ", n_iter=%d", c.MaxIter)
	}
	fmt.Fprintf(&b, ", lr=%s", formatRate(c.LearningRate))
	if c.SampleSize > 0 {
		fmt.Fprintf(&b, ", sample=%d", c.SampleSize)
	}
	fmt.Fprintf(&b, ", ovo=%t", c.OvO)
	return b.String()
}

// LabelsName is the file name of the labels written for c. It encodes every
// axis, so distinct configurations never share a file. sampleSize is the
// realized row count, which differs from c.SampleSize when that is unset.
func (c Config) LabelsName(sampleSize int) string {
	name := fmt.Sprintf("labels_%s_sample%d_clusters%d_kernel%s_lr%s_hid%d",
		c.Model, sampleSize, c.NClusters, c.Kernel, formatRate(c.LearningRate), c.HiddenDim)
	if c.MaxIter > 0 {
		name += "_iter" + strconv.Itoa(c.MaxIter)
	}
	return name + ".csv"
}

func formatRate(lr float64) string {
	return strconv.FormatFloat(lr, 'g', -1, 64)
}

func ints(v []int) []int {
	if len(v) == 0 {
		return []int{0}
	}
	return v
}

func strs(v []string) []string {
	if len(v) == 0 {
		return []string{""}
	}
	return v
}

func rates(v []float64) []float64 {
	if len(v) == 0 {
		return []float64{0}
	}
	return v
}

// Len is the number of configurations Enumerate yields.
func Len(a Axes) int {
	return len(ints(a.SampleSizes)) * len(ints(a.NClusters)) * len(strs(a.Kernels)) *
		len(ints(a.HiddenDims)) * len(ints(a.MaxIters)) * len(rates(a.LearningRates))
}

// Enumerate returns every combination of the axes once, outermost axis
// first: sample size, cluster count, kernel, hidden dim, iteration budget,
// learning rate.
func Enumerate(model string, ovo bool, a Axes) []Config {
	out := make([]Config, 0, Len(a))
	for _, size := range ints(a.SampleSizes) {
		for _, k := range ints(a.NClusters) {
			for _, kernel := range strs(a.Kernels) {
				for _, hid := range ints(a.HiddenDims) {
					for _, iter := range ints(a.MaxIters) {
						for _, lr := range rates(a.LearningRates) {
							out = append(out, Config{
								Model:        model,
								SampleSize:   size,
								NClusters:    k,
								Kernel:       kernel,
								HiddenDim:    hid,
								MaxIter:      iter,
								LearningRate: lr,
								OvO:          ovo,
							})
						}
					}
				}
			}
		}
	}
	return out
}
