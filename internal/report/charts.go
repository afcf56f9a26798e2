package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"latency-dashboard/internal/models"
	"latency-dashboard/internal/quality"
	"latency-dashboard/internal/series"
)

// ErrNoData is returned when there is nothing to plot
var ErrNoData = errors.New("report: no data to plot")

// Chart dimensions
const (
	DefaultWidth  = 1200
	DefaultHeight = 400
)

var (
	chartPadding = chart.Style{
		Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
	}
	axisStyle = chart.Style{
		StrokeColor: drawing.ColorBlack,
		FontSize:    10,
	}
	gridStyle = chart.Style{
		StrokeColor: drawing.Color{R: 200, G: 200, B: 200, A: 255},
		StrokeWidth: 1.0,
	}
)

func paletteColor(index int) drawing.Color {
	c := series.Palette[index%series.PaletteSize]
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: 255}
}

// yRange pads the top so flat or all-zero data still has a drawable range
func yRange(max float64) *chart.ContinuousRange {
	top := math.Ceil(max * 1.1)
	if top < 1 {
		top = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: top}
}

func probeNumberFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%d", int(math.Round(f)))
	}
	return ""
}

// RenderLatencyChart draws model as one line per target against probe number
func RenderLatencyChart(w io.Writer, model series.ChartModel, width, height int) error {
	var lines []chart.Series
	for _, s := range model.Series {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]float64, len(s.Points))
		for i := range s.Points {
			xs[i] = float64(model.XAxisLabels[i])
		}
		lines = append(lines, chart.ContinuousSeries{
			Name: s.TargetID,
			Style: chart.Style{
				StrokeColor: paletteColor(s.ColorIndex),
				StrokeWidth: 2,
				DotColor:    paletteColor(s.ColorIndex),
				DotWidth:    3,
			},
			XValues: xs,
			YValues: s.Points,
		})
	}
	if len(lines) == 0 {
		return ErrNoData
	}

	graph := chart.Chart{
		Title:      "Latency per Probe",
		TitleStyle: chart.Style{FontSize: 16},
		Background: chartPadding,
		Width:      width,
		Height:     height,
		XAxis: chart.XAxis{
			Name:           "Probe",
			NameStyle:      chart.Style{FontSize: 12},
			Style:          axisStyle,
			ValueFormatter: probeNumberFormatter,
			Range:          &chart.ContinuousRange{Min: 1, Max: math.Max(2, float64(len(model.XAxisLabels)))},
		},
		YAxis: chart.YAxis{
			Name:           "Latency (ms)",
			NameStyle:      chart.Style{FontSize: 12},
			Style:          axisStyle,
			GridMajorStyle: gridStyle,
			Range:          yRange(model.MaxPoint()),
		},
		Series: lines,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

// RenderHistoryTrend draws the average latency of each target across history.
// Failed measurements leave a gap. At least two distinct timestamps are needed.
func RenderHistoryTrend(w io.Writer, records []models.HistoricalRecord, width, height int) error {
	type trend struct {
		times  []time.Time
		values []float64
	}
	trends := make(map[string]*trend)
	var order []string
	distinct := make(map[time.Time]struct{})
	maxAvg := 0.0

	for _, rec := range records {
		ts, err := time.ParseInLocation(models.TimestampLayout, rec.Timestamp, time.Local)
		if err != nil {
			continue
		}
		rec.Data.Each(func(target string, s models.TargetStatistics) {
			if s.Failed() {
				return
			}
			t, ok := trends[target]
			if !ok {
				t = &trend{}
				trends[target] = t
				order = append(order, target)
			}
			t.times = append(t.times, ts)
			t.values = append(t.values, s.Avg)
			distinct[ts] = struct{}{}
			maxAvg = math.Max(maxAvg, s.Avg)
		})
	}
	if len(distinct) < 2 {
		return ErrNoData
	}

	lines := make([]chart.Series, 0, len(order))
	for i, target := range order {
		t := trends[target]
		lines = append(lines, chart.TimeSeries{
			Name: target,
			Style: chart.Style{
				StrokeColor: paletteColor(i),
				StrokeWidth: 2,
			},
			XValues: t.times,
			YValues: t.values,
		})
	}

	graph := chart.Chart{
		Title:      "Average Latency History",
		TitleStyle: chart.Style{FontSize: 16},
		Background: chartPadding,
		Width:      width,
		Height:     height,
		XAxis: chart.XAxis{
			Name:           "Time",
			NameStyle:      chart.Style{FontSize: 12},
			Style:          axisStyle,
			ValueFormatter: chart.TimeMinuteValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Average Latency (ms)",
			NameStyle:      chart.Style{FontSize: 12},
			Style:          axisStyle,
			GridMajorStyle: gridStyle,
			Range:          yRange(maxAvg),
		},
		Series: lines,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

// RenderTierDistribution draws how many targets landed in each quality tier
func RenderTierDistribution(w io.Writer, rows []quality.Row, width, height int) error {
	if len(rows) == 0 {
		return ErrNoData
	}

	counts := make(map[quality.Tier]int, len(quality.Tiers))
	maxCount := 0
	for _, row := range rows {
		counts[row.Tier]++
		if counts[row.Tier] > maxCount {
			maxCount = counts[row.Tier]
		}
	}

	tierColors := map[quality.Tier]drawing.Color{
		quality.Excellent: {R: 40, G: 167, B: 69, A: 255},
		quality.Good:      {R: 23, G: 162, B: 184, A: 255},
		quality.Unstable:  {R: 255, G: 193, B: 7, A: 255},
		quality.Poor:      {R: 253, G: 126, B: 20, A: 255},
		quality.Failed:    {R: 220, G: 53, B: 69, A: 255},
	}

	bars := make([]chart.Value, 0, len(quality.Tiers))
	for _, tier := range quality.Tiers {
		bars = append(bars, chart.Value{
			Label: string(tier),
			Value: float64(counts[tier]),
			Style: chart.Style{
				FillColor:   tierColors[tier],
				StrokeColor: tierColors[tier],
			},
		})
	}

	graph := chart.BarChart{
		Title:      "Targets by Quality Tier",
		TitleStyle: chart.Style{FontSize: 16},
		Background: chartPadding,
		Width:      width,
		Height:     height,
		BarWidth:   80,
		YAxis: chart.YAxis{
			Style: axisStyle,
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount + 1)},
		},
		Bars: bars,
	}

	return graph.Render(chart.PNG, w)
}
