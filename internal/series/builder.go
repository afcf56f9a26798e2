// Package series assembles chart-ready datasets from per-target sample sequences.
package series

import (
	"fmt"

	"latency-dashboard/internal/models"
)

// Color is an RGB palette entry
type Color struct {
	R, G, B uint8
}

// CSS renders the color as an rgba() string with the given alpha
func (c Color) CSS(alpha float64) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", c.R, c.G, c.B, alpha)
}

// Palette is the fixed series palette, indexed by ColorIndex
var Palette = [...]Color{
	{255, 99, 132},
	{54, 162, 235},
	{255, 206, 86},
	{75, 192, 192},
	{153, 102, 255},
	{255, 159, 64},
}

// PaletteSize is the number of distinct series colors
const PaletteSize = len(Palette)

// Series is the plotted sample sequence of one target
type Series struct {
	TargetID   string    `json:"target_id"`
	Points     []float64 `json:"points"`
	ColorIndex int       `json:"color_index"`
	Color      string    `json:"color"`      // line color
	FillColor  string    `json:"fill_color"` // translucent area under the line
}

// ChartModel is a line chart keyed by probe number
type ChartModel struct {
	XAxisLabels []int    `json:"x_axis_labels"`
	Series      []Series `json:"series"`
}

// Build converts a result set into a ChartModel.
//
// Lost samples are plotted as 0 rather than interpolated. Colors follow the
// insertion rank of each target, so rebuilding the same set yields the same model.
func Build(results *models.ResultSet) ChartModel {
	model := ChartModel{
		XAxisLabels: []int{},
		Series:      make([]Series, 0, results.Len()),
	}

	longest := 0
	rank := 0
	results.Each(func(target string, s models.TargetStatistics) {
		points := make([]float64, len(s.Latencies))
		for i, sample := range s.Latencies {
			if sample != nil {
				points[i] = *sample
			}
		}
		longest = max(longest, len(points))

		color := Palette[rank%PaletteSize]
		model.Series = append(model.Series, Series{
			TargetID:   target,
			Points:     points,
			ColorIndex: rank % PaletteSize,
			Color:      color.CSS(1),
			FillColor:  color.CSS(0.2),
		})
		rank++
	})

	for i := 1; i <= longest; i++ {
		model.XAxisLabels = append(model.XAxisLabels, i)
	}
	return model
}

// MaxPoint returns the largest plotted value across all series
func (m ChartModel) MaxPoint() float64 {
	var top float64
	for _, s := range m.Series {
		for _, p := range s.Points {
			top = max(top, p)
		}
	}
	return top
}
