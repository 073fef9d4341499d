// Package render draws the per-country theme bar charts and the world map.
package render

import (
	"fmt"
	"math"
	"path/filepath"

	"theme-mapper/internal/domain"
	"theme-mapper/pkg/colorutil"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

// Chart dimensions.
var (
	ChartWidth  = 6 * vg.Inch
	ChartHeight = 4.5 * vg.Inch
)

// ChartFile returns the bar chart path of a country inside dir.
func ChartFile(dir, slug string) string {
	return filepath.Join(dir, "graph_"+slug+".png")
}

// BarChart writes a bar chart of the share of photos matched to each theme.
// The format follows the extension of path.
func BarChart(path, country string, proportions []float64, labels *domain.LabelTable) error {
	if len(proportions) == 0 {
		return &domain.EmptyInputError{What: "proportions", Name: country}
	}
	if len(proportions) != labels.Len() {
		return &domain.ShapeMismatchError{What: "bar chart " + country, Want: labels.Len(), Got: len(proportions)}
	}

	p := plot.New()
	p.Title.Text = "Theme match of " + country
	p.Y.Label.Text = "Percentage of match"

	bars, err := plotter.NewBarChart(plotter.Values(proportions), vg.Points(20))
	if err != nil {
		return fmt.Errorf("failed to build bars: %w", err)
	}
	bars.Color = colorutil.Blue
	bars.LineStyle.Width = 0
	p.Add(bars)

	top := 0.0
	xys := make(plotter.XYs, len(proportions))
	values := make([]string, len(proportions))
	for i, v := range proportions {
		top = math.Max(top, v)
		xys[i] = plotter.XY{X: float64(i), Y: v}
		values[i] = fmt.Sprintf("%0.2f", v)
	}
	marks, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: values})
	if err != nil {
		return fmt.Errorf("failed to build value labels: %w", err)
	}
	for i := range marks.TextStyle {
		marks.TextStyle[i].XAlign = text.XCenter
		marks.TextStyle[i].YAlign = text.YBottom
	}
	marks.Offset = vg.Point{Y: vg.Points(2)}
	p.Add(marks)

	p.Y.Min = 0
	p.Y.Max = math.Min(1, top+0.2)
	p.NominalX(labels.Labels()...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter

	if err := p.Save(ChartWidth, ChartHeight, path); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", path, err)
	}
	return nil
}
