package sweep

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"gemsweep/gemini"
	"gemsweep/grid"
)

// Model names accepted in a plan.
const (
	ModelMMD         = "mmd"
	ModelWasserstein = "wasserstein"
	ModelKMeans      = "kmeans"
)

// Plan is everything a sweep needs: where the data is, where results go,
// which model family to train and the grid of hyperparameters to visit.
type Plan struct {
	Name      string `yaml:"name"`
	Data      string `yaml:"data"`
	Output    string `yaml:"output"`
	LabelsDir string `yaml:"labels_dir"`

	Model string `yaml:"model"`
	OvO   bool   `yaml:"ovo"`
	// Metric overrides the Wasserstein ground distance; "euclidean" ignores
	// the kernel axis for the distance.
	Metric string `yaml:"metric"`

	// LoadPerSample reloads and standardizes the CSV for every sample size
	// and releases the full matrix once the sample is drawn.
	LoadPerSample bool  `yaml:"load_per_sample"`
	Seed          int64 `yaml:"seed"`
	RandomState   int64 `yaml:"random_state"`

	// Scatter also writes an HTML scatter next to every labels file.
	Scatter bool `yaml:"scatter"`

	Grid grid.Axes `yaml:"grid"`

	Tol          float64 `yaml:"tol"`
	Patience     int     `yaml:"patience"`
	SinkhornReg  float64 `yaml:"sinkhorn_reg"`
	SinkhornIter int     `yaml:"sinkhorn_iter"`
}

// DefaultPlan holds the values a plan file does not need to repeat.
func DefaultPlan() Plan {
	return Plan{
		Output:    "results.jsonl",
		LabelsDir: "results",
		Model:     ModelMMD,
		Seed:      42,
	}
}

// LoadPlan reads a YAML plan; keys absent from the file keep their
// DefaultPlan values.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, errors.Wrap(err, "reading plan")
	}
	plan := DefaultPlan()
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return Plan{}, errors.Wrapf(err, "parsing plan %s", path)
	}
	return plan, plan.Validate()
}

// Validate rejects plans that cannot start. Hyperparameter values a model
// refuses are not checked here; they fail their own trials.
func (p Plan) Validate() error {
	switch {
	case p.Data == "":
		return errors.New("plan: no data file")
	case p.Output == "":
		return errors.New("plan: no output file")
	}
	switch p.Model {
	case ModelMMD, ModelWasserstein, ModelKMeans:
	default:
		return errors.Errorf("plan: unknown model %q", p.Model)
	}
	if grid.Len(p.Grid) == 0 {
		return errors.New("plan: empty grid")
	}
	for _, s := range p.Grid.SampleSizes {
		if s < 0 {
			return errors.Errorf("plan: negative sample size %d", s)
		}
	}
	return nil
}

// resolve fills axes left unset with the values the model will really use,
// so results and file names show them.
func (p Plan) resolve(c grid.Config) grid.Config {
	if p.Model == ModelKMeans {
		return c
	}
	d := gemini.DefaultParams()
	if c.Kernel == "" {
		c.Kernel = d.Kernel
	}
	if c.NClusters == 0 {
		c.NClusters = d.NClusters
	}
	if c.HiddenDim == 0 {
		c.HiddenDim = d.HiddenDim
	}
	if c.LearningRate == 0 {
		c.LearningRate = d.LearningRate
	}
	return c
}

const fluxCSV = "flux_pretreated_NGC1068_6400_6800_high_velocity_normalise_redshift_filter_subset.csv"

// Preset returns one of the built-in plans: "mmd" trains one-vs-one MMD on a
// fixed-size subsample, "wasserstein" sweeps one-vs-all Wasserstein over
// cluster counts, kernels, widths and iteration budgets on the full matrix.
func Preset(name string) (Plan, error) {
	switch name {
	case ModelMMD:
		p := DefaultPlan()
		p.Name = "mmd"
		p.Data = "../../Data/" + fluxCSV
		p.Output = "linear_0.001_150_50.jsonl"
		p.LabelsDir = "."
		p.Model = ModelMMD
		p.OvO = true
		p.LoadPerSample = true
		p.Grid = grid.Axes{
			SampleSizes:   []int{68232},
			NClusters:     []int{50},
			Kernels:       []string{gemini.KernelLinear},
			HiddenDims:    []int{150},
			LearningRates: []float64{0.001},
		}
		return p, nil
	case ModelWasserstein:
		p := DefaultPlan()
		p.Name = "wasserstein"
		p.Data = "../GEMINI/Data/" + fluxCSV
		p.Output = "json/test_wasserstein.jsonl"
		p.LabelsDir = "results"
		p.Model = ModelWasserstein
		p.Metric = gemini.MetricEuclidean
		p.Grid = grid.Axes{
			NClusters:     []int{30, 50},
			Kernels:       []string{gemini.KernelLinear, gemini.KernelPoly},
			HiddenDims:    []int{10, 20, 50, 100, 150, 200, 250, 300},
			MaxIters:      []int{50, 100, 200, 300, 400, 500, 600, 700, 800, 900, 1000},
			LearningRates: []float64{0.00001},
		}
		return p, nil
	}
	return Plan{}, errors.Errorf("unknown preset %q", name)
}
