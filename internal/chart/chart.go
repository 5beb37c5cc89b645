// Package chart renders tracker runs and sensitivity surfaces as HTML charts.
package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rxtech-lab/argo-msri/internal/runner"
	"github.com/rxtech-lab/argo-msri/internal/surface"
	"github.com/rxtech-lab/argo-msri/internal/tracker"
	"github.com/rxtech-lab/argo-msri/pkg/errors"
)

const (
	// MuSeries is the name of the smoothed-value series.
	MuSeries = "mu"
	// IndicatorSeries is the name of the indicator series.
	IndicatorSeries = "msri"
	// SurfaceSeries is the name of the sensitivity surface series.
	SurfaceSeries = "SEN"

	muColor        = "red"
	indicatorColor = "blue"

	// gap is what echarts draws as a missing value.
	gap = "-"
)

// viridis is the colour map used for the surface.
var viridis = []string{
	"#440154", "#482878", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// NewTrackerChart builds the dual-axis line chart of a run.
// Values that JSON cannot encode are drawn as gaps.
func NewTrackerChart(result *runner.Result) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "MSRI", Width: "1000px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Market shock resistance", Subtitle: fmt.Sprintf("run %s", result.RunID)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
		charts.WithXAxisOpts(opts.XAxis{Name: "step", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: MuSeries, Type: "value", Scale: true}),
	)
	line.ExtendYAxis(opts.YAxis{Name: IndicatorSeries, Type: "value", Scale: true})

	line.SetXAxis(result.Steps()).
		AddSeries(MuSeries, lineData(result.History),
			charts.WithLineStyleOpts(opts.LineStyle{Color: muColor}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: muColor}),
		).
		AddSeries(IndicatorSeries, lineData(result.IndicatorHistory),
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: indicatorColor}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: indicatorColor}),
		)

	return line
}

// NewSurfaceChart builds the 3-D chart of a sampled grid. Masked cells are left empty.
func NewSurfaceChart(grid *surface.Grid) *charts.Surface3D {
	chart := charts.NewSurface3D()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Sensitivity", Width: "1000px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Sensitivity surface",
			Subtitle: fmt.Sprintf("density %v, ceiling %v", grid.Density, grid.Ceiling),
		}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "A", Type: "value"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "B", Type: "value"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: SurfaceSeries, Type: "value"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: true,
			Min:        0,
			Max:        float32(grid.Ceiling),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)

	chart.AddSeries(SurfaceSeries, surfaceData(grid))

	return chart
}

// RenderTracker writes the run chart as a standalone HTML page.
func RenderTracker(w io.Writer, result *runner.Result) error {
	if result == nil {
		return errors.New(errors.ErrCodeRenderFailed, "no run to render")
	}

	if err := NewTrackerChart(result).Render(w); err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, "failed to render tracker chart", err)
	}

	return nil
}

// RenderSurface writes the surface chart as a standalone HTML page.
func RenderSurface(w io.Writer, grid *surface.Grid) error {
	if grid == nil {
		return errors.New(errors.ErrCodeRenderFailed, "no surface to render")
	}

	if err := NewSurfaceChart(grid).Render(w); err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, "failed to render surface chart", err)
	}

	return nil
}

// RenderPage writes both charts on one page. Either may be nil.
func RenderPage(w io.Writer, result *runner.Result, grid *surface.Grid) error {
	page := components.NewPage()
	page.PageTitle = "argo-msri"

	if result != nil {
		page.AddCharts(NewTrackerChart(result))
	}

	if grid != nil {
		page.AddCharts(NewSurfaceChart(grid))
	}

	if err := page.Render(w); err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, "failed to render page", err)
	}

	return nil
}

func lineData(values []float64) []opts.LineData {
	items := make([]opts.LineData, 0, len(values))

	for _, v := range values {
		if !tracker.IsFinite(v) {
			items = append(items, opts.LineData{Value: gap})

			continue
		}

		items = append(items, opts.LineData{Value: v})
	}

	return items
}

func surfaceData(grid *surface.Grid) []opts.Chart3DData {
	items := make([]opts.Chart3DData, 0, len(grid.Points))

	for _, p := range grid.Points {
		var z interface{} = p.Z
		if p.Masked || !tracker.IsFinite(p.Z) {
			z = gap
		}

		items = append(items, opts.Chart3DData{Value: []interface{}{p.X, p.Y, z}})
	}

	return items
}
