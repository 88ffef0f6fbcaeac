package render

import (
	"fmt"
	"io"
	"strconv"

	"carrental/solver"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samber/lo"
)

var heatColors = []string{"#313695", "#74add1", "#ffffbf", "#f46d43", "#a50026"}

func axisLabels(size int) []string {
	return lo.Map(lo.Range(size), func(i int, _ int) string {
		return strconv.Itoa(i)
	})
}

// heatMap plots grid[first][second] with the second location on the x axis.
func heatMap(title string, grid [][]float64) *charts.HeatMap {
	labels := axisLabels(len(grid))
	low, high := bounds(grid)

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "cars at second location", Data: labels}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "cars at first location", Data: labels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(low),
			Max:        float32(high),
			InRange:    &opts.VisualMapInRange{Color: heatColors},
		}),
	)

	items := make([]opts.HeatMapData, 0, len(grid)*len(grid))
	for first, row := range grid {
		for second, v := range row {
			items = append(items, opts.HeatMapData{Value: [3]interface{}{second, first, v}})
		}
	}
	hm.SetXAxis(labels).AddSeries(title, items)
	return hm
}

func PolicyChart(snapshot solver.PolicySnapshot) *charts.HeatMap {
	return heatMap(fmt.Sprintf("policy (iteration %d)", snapshot.Iteration), policyGrid(snapshot.Policy))
}

func ValueChart(values *solver.ValueTable) *charts.HeatMap {
	return heatMap("value", values.Rows())
}

// WritePage renders one heatmap per policy snapshot followed by the value
// table as a standalone HTML page.
func WritePage(w io.Writer, snapshots []solver.PolicySnapshot, values *solver.ValueTable) error {
	page := components.NewPage()
	for _, snapshot := range snapshots {
		page.AddCharts(PolicyChart(snapshot))
	}
	if values != nil {
		page.AddCharts(ValueChart(values))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render heatmaps: %w", err)
	}
	return nil
}

func policyGrid(policy *solver.PolicyTable) [][]float64 {
	return lo.Map(policy.Rows(), func(row []int, _ int) []float64 {
		return lo.Map(row, func(a int, _ int) float64 { return float64(a) })
	})
}

func bounds(grid [][]float64) (float64, float64) {
	flat := lo.Flatten(grid)
	if len(flat) == 0 {
		return 0, 0
	}
	return lo.Min(flat), lo.Max(flat)
}
