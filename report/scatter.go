package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Scatter writes an HTML scatter of the first two columns of x, one series
// per cluster.
func Scatter(w io.Writer, title string, x mat.Matrix, labels []int) error {
	n, d := x.Dims()
	if d < 2 {
		return errors.Errorf("scatter needs two columns, got %d", d)
	}
	if len(labels) != n {
		return errors.Errorf("scatter: %d labels for %d rows", len(labels), n)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: title}))

	clusterData := make(map[int][]opts.ScatterData)
	var order []int
	for i := 0; i < n; i++ {
		clusterID := labels[i]
		if _, ok := clusterData[clusterID]; !ok {
			order = append(order, clusterID)
		}
		clusterData[clusterID] = append(clusterData[clusterID], opts.ScatterData{Value: []interface{}{x.At(i, 0), x.At(i, 1)}})
	}

	for _, clusterID := range order {
		scatter.AddSeries(fmt.Sprintf("Cluster %d", clusterID), clusterData[clusterID]).
			SetSeriesOptions(
				charts.WithLabelOpts(
					opts.Label{
						Show:     pointer(false),
						Position: "top",
					},
				),
			)
	}
	return scatter.Render(w)
}

func pointer(b bool) *bool {
	return &b
}
