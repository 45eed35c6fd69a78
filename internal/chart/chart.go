// Package chart draws PNG charts of composition results with gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"gccontent/internal/composition"
)

// ErrNoResults is returned when there is nothing to draw.
var ErrNoResults = errors.New("chart: no results")

// Default image size.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

var (
	gcColor   = color.RGBA{R: 0x7C, G: 0x3A, B: 0xED, A: 0xFF}
	lineColor = color.RGBA{R: 0x9C, G: 0xA3, B: 0xAF, A: 0xFF}
)

var (
	baseLabels = []string{"A", "T", "G", "C"}
	baseColors = []color.Color{
		color.RGBA{R: 0x10, G: 0xB9, B: 0x81, A: 0xFF},
		color.RGBA{R: 0xEF, G: 0x44, B: 0x44, A: 0xFF},
		color.RGBA{R: 0xF5, G: 0x9E, B: 0x0B, A: 0xFF},
		color.RGBA{R: 0x3B, G: 0x82, B: 0xF6, A: 0xFF},
	}
)

// GCContent plots one bar per result keyed by sequence ID, with the Low and
// High thresholds drawn as horizontal reference lines.
func GCContent(results []composition.Result) (*plot.Plot, error) {
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	values := make(plotter.Values, len(results))
	names := make([]string, len(results))
	for i, r := range results {
		values[i] = r.GCContent
		names[i] = r.ID
	}

	p := plot.New()
	p.Title.Text = "GC Content Distribution"
	p.Y.Label.Text = "GC_Content (%)"
	p.Y.Min, p.Y.Max = 0, 100

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("gc bar chart: %w", err)
	}
	bars.Color = gcColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	for _, y := range []float64{composition.LowThreshold, composition.HighThreshold} {
		l, err := plotter.NewLine(plotter.XYs{{X: -0.5, Y: y}, {X: float64(len(results)) - 0.5, Y: y}})
		if err != nil {
			return nil, fmt.Errorf("threshold line: %w", err)
		}
		l.LineStyle.Color = lineColor
		l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(l)
	}
	p.NominalX(names...)
	return p, nil
}

// BaseComposition plots the A/T/G/C percentages of a single result.
func BaseComposition(r composition.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Base Composition (%s)", r.ID)
	p.Y.Label.Text = "%"
	p.Y.Min, p.Y.Max = 0, 100

	pcts := []float64{r.PctA, r.PctT, r.PctG, r.PctC}
	w := vg.Points(30)
	for i, v := range pcts {
		b, err := plotter.NewBarChart(plotter.Values{v}, w)
		if err != nil {
			return nil, fmt.Errorf("composition bar %s: %w", baseLabels[i], err)
		}
		b.Color = baseColors[i]
		b.LineStyle.Width = vg.Length(0)
		b.XMin = float64(i)
		p.Add(b)
	}
	p.NominalX(baseLabels...)
	return p, nil
}

// WritePNG renders p into w. Zero sizes fall back to the defaults.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
