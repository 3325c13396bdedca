package myfigure

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/ukaji3/myfigure-go/pkg/myfigure/models"
)

// groupWidth is the share of one x unit covered by a group of bars.
const groupWidth = 0.8

// barGeometry returns the rectangle of series s (of n) in group g, with a
// zero height.
func barGeometry(g, s, n int) models.Bar {
	w := groupWidth / float64(n)
	return models.Bar{
		X:     float64(g) - groupWidth/2 + w*float64(s),
		Width: w,
	}
}

var (
	_ plot.Plotter     = (*barLayer)(nil)
	_ plot.DataRanger  = (*barLayer)(nil)
	_ plot.Thumbnailer = (*barLayer)(nil)
)

// barLayer draws a set of bars in data coordinates.
type barLayer struct {
	bars []models.Bar
	// fills overrides Color per bar when non-nil.
	fills   []color.Color
	hatches []string

	Color     color.Color
	LineStyle draw.LineStyle
	// HatchStyle is the line style of hatch patterns.
	HatchStyle draw.LineStyle
}

func newBarLayer(bars []models.Bar, c color.Color) *barLayer {
	return &barLayer{
		bars:       bars,
		hatches:    make([]string, len(bars)),
		Color:      c,
		LineStyle:  draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)},
		HatchStyle: draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)},
	}
}

func (b *barLayer) fill(i int) color.Color {
	if b.fills != nil && b.fills[i] != nil {
		return b.fills[i]
	}
	return b.Color
}

// Plot implements the plot.Plotter interface.
func (b *barLayer) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for i, bar := range b.bars {
		if math.IsNaN(bar.Height) {
			continue
		}
		lo, hi := math.Min(0, bar.Height), math.Max(0, bar.Height)
		lo = math.Max(lo, plt.Y.Min)
		hi = math.Min(hi, plt.Y.Max)
		if lo > hi {
			continue
		}

		rect := vg.Rectangle{
			Min: vg.Point{X: trX(bar.X), Y: trY(lo)},
			Max: vg.Point{X: trX(bar.X + bar.Width), Y: trY(hi)},
		}
		poly := []vg.Point{
			rect.Min,
			{X: rect.Min.X, Y: rect.Max.Y},
			rect.Max,
			{X: rect.Max.X, Y: rect.Min.Y},
		}
		if fill := b.fill(i); fill != nil {
			c.FillPolygon(fill, c.ClipPolygonXY(poly))
		}
		drawHatch(c, rect, b.hatches[i], b.HatchStyle)
		c.StrokeLines(b.LineStyle, c.ClipLinesXY(append(poly, poly[0]))...)
	}
}

// DataRange implements the plot.DataRanger interface. Non-finite heights
// are left out so that they cannot blow up the axis range.
func (b *barLayer) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = math.Inf(1), math.Inf(-1)
	for _, bar := range b.bars {
		xmin = math.Min(xmin, bar.X)
		xmax = math.Max(xmax, bar.X+bar.Width)
		if math.IsInf(bar.Height, 0) || math.IsNaN(bar.Height) {
			continue
		}
		ymin = math.Min(ymin, bar.Height)
		ymax = math.Max(ymax, bar.Height)
	}
	return xmin, xmax, ymin, ymax
}

// Thumbnail implements the plot.Thumbnailer interface.
func (b *barLayer) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	fill := b.Color
	hatch := ""
	if len(b.bars) > 0 {
		fill = b.fill(0)
		hatch = b.hatches[0]
	}
	if fill != nil {
		c.FillPolygon(fill, c.ClipPolygonY(pts))
	}
	drawHatch(*c, c.Rectangle, hatch, b.HatchStyle)
	c.StrokeLines(b.LineStyle, c.ClipLinesY(append(pts, pts[0]))...)
}
