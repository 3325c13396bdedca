package myfigure

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/ukaji3/myfigure-go/pkg/myfigure/models"
)

// maskColor covers bars that are not significant.
var maskColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xb3}

// BarSeries is one series of a grouped bar chart.
type BarSeries struct {
	Label  string
	Values []float64
	// Errors are standard deviations, one per value. Nil means no error bars.
	Errors []float64
	// Significant marks the values that stay unmasked when masking is on.
	// Nil means all values are significant.
	Significant []bool
	// Color overrides the palette colour.
	Color color.Color
}

type legendEntry struct {
	label  string
	thumbs []plot.Thumbnailer
}

// Axes is one panel of a figure.
type Axes struct {
	index  int
	plot   *plot.Plot
	theme  Theme
	masked bool

	twin   *Axes
	parent *Axes
	insets []*inset

	plotters []plot.Plotter
	grid     *gridLayer

	bars       []*barLayer
	masks      []*barLayer
	segments   []models.ErrorSegment
	categories []string
	entries    []legendEntry
	styleIndex int

	xLim, yLim  []float64
	xTicks      []float64
	yTicks      []float64
	xTickLabels []string
	yTickLabels []string
	annotations []models.Annotation
	legend      *legendSpec
	letter      string
	letterXY    [2]float64
}

func newAxes(index int, theme Theme) *Axes {
	p := plot.New()
	theme.apply(p)

	g := &gridLayer{Grid: plotter.NewGrid(), on: theme.Grid}
	g.Vertical.Color = theme.GridColor
	g.Horizontal.Color = theme.GridColor
	p.Add(g)

	return &Axes{
		index: index,
		plot:  p,
		theme: theme,
		grid:  g,
	}
}

// Index returns the position of the axes in the figure, -1 for insets.
func (a *Axes) Index() int {
	return a.index
}

// Plot returns the underlying gonum plot.
func (a *Axes) Plot() *plot.Plot {
	return a.plot
}

// Twin returns the secondary y axes, or nil when the figure has none.
func (a *Axes) Twin() *Axes {
	return a.twin
}

// Add adds plotters to the axes and records them for twin rendering. On a
// twin axes the shared x range of the parent is widened as well.
func (a *Axes) Add(ps ...plot.Plotter) {
	a.plot.Add(ps...)
	a.plotters = append(a.plotters, ps...)
	if a.parent == nil {
		return
	}
	x := &a.parent.plot.X
	for _, p := range ps {
		if dr, ok := p.(plot.DataRanger); ok {
			xmin, xmax, _, _ := dr.DataRange()
			x.Min = math.Min(x.Min, xmin)
			x.Max = math.Max(x.Max, xmax)
		}
	}
}

// AddLegendEntry adds a labelled legend entry.
func (a *Axes) AddLegendEntry(label string, thumbs ...plot.Thumbnailer) {
	if label == "" {
		return
	}
	a.entries = append(a.entries, legendEntry{label: label, thumbs: thumbs})
}

func (a *Axes) nextStyle() int {
	i := a.styleIndex
	a.styleIndex++
	return i
}

// BarGroups draws one bar per category for every series, series after
// series, with optional error bars and masking of insignificant values.
func (a *Axes) BarGroups(categories []string, series []BarSeries) error {
	if len(series) == 0 {
		return nil
	}
	withErrors := false
	for _, s := range series {
		if len(s.Values) != len(categories) {
			return NewAxisError(a.index, "bars", fmt.Errorf("%w: series %q has %d values for %d categories", ErrSizeMismatch, s.Label, len(s.Values), len(categories)))
		}
		if s.Errors != nil && len(s.Errors) != len(s.Values) {
			return NewAxisError(a.index, "bars", fmt.Errorf("%w: series %q has %d errors for %d values", ErrSizeMismatch, s.Label, len(s.Errors), len(s.Values)))
		}
		if s.Significant != nil && len(s.Significant) != len(s.Values) {
			return NewAxisError(a.index, "bars", fmt.Errorf("%w: series %q has %d significance flags for %d values", ErrSizeMismatch, s.Label, len(s.Significant), len(s.Values)))
		}
		withErrors = withErrors || s.Errors != nil
	}

	layers := make([]*barLayer, len(series))
	var errPoints errorPoints
	for si, s := range series {
		bars := make([]models.Bar, len(s.Values))
		for g, v := range s.Values {
			bars[g] = barGeometry(g, si, len(series))
			bars[g].Height = v
		}
		clr := s.Color
		if clr == nil {
			clr = a.theme.Color(a.nextStyle())
		}
		layers[si] = newBarLayer(bars, clr)
		a.Add(layers[si])
		a.bars = append(a.bars, layers[si])
		a.AddLegendEntry(s.Label, layers[si])

		if !withErrors {
			continue
		}
		for g, bar := range bars {
			std := 0.0
			if s.Errors != nil {
				std = s.Errors[g]
			}
			x := bar.Center()
			a.segments = append(a.segments, models.ErrorSegment{
				A: models.Point{X: x, Y: bar.Height - std},
				B: models.Point{X: x, Y: bar.Height + std},
			})
			if !math.IsInf(bar.Height, 0) && !math.IsNaN(bar.Height) && !math.IsNaN(std) {
				errPoints = append(errPoints, errorPoint{x: x, y: bar.Height, err: std})
			}
		}
	}

	if len(errPoints) > 0 {
		eb, err := plotter.NewYErrorBars(errPoints)
		if err != nil {
			return NewAxisError(a.index, "bars", err)
		}
		eb.LineStyle.Width = vg.Points(1)
		a.Add(eb)
	}

	if a.masked {
		for si, s := range series {
			mask := newBarLayer(layers[si].bars, nil)
			mask.fills = make([]color.Color, len(s.Values))
			mask.LineStyle.Color = color.Transparent
			for g := range s.Values {
				if s.Significant != nil && !s.Significant[g] {
					mask.fills[g] = maskColor
				}
			}
			a.Add(mask)
			a.masks = append(a.masks, mask)
		}
	}

	a.categories = categories
	ticks := make([]plot.Tick, len(categories))
	for g, c := range categories {
		ticks[g] = plot.Tick{Value: float64(g), Label: c}
	}
	a.plot.X.Tick.Marker = plot.ConstantTicks(ticks)
	return nil
}

// Line draws a line series with the next palette colour and dash pattern.
func (a *Axes) Line(label string, xs, ys []float64) error {
	xys, err := makeXYs(xs, ys)
	if err != nil {
		return NewAxisError(a.index, "line", err)
	}
	l, err := plotter.NewLine(xys)
	if err != nil {
		return NewAxisError(a.index, "line", err)
	}
	i := a.nextStyle()
	l.LineStyle.Color = a.theme.Color(i)
	l.LineStyle.Width = vg.Points(1.5)
	l.LineStyle.Dashes = Dashes(i)
	a.Add(l)
	a.AddLegendEntry(label, l)
	return nil
}

// Scatter draws markers with the next palette colour and glyph.
func (a *Axes) Scatter(label string, xs, ys []float64) error {
	xys, err := makeXYs(xs, ys)
	if err != nil {
		return NewAxisError(a.index, "scatter", err)
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return NewAxisError(a.index, "scatter", err)
	}
	i := a.nextStyle()
	s.GlyphStyle.Color = a.theme.Color(i)
	s.GlyphStyle.Shape = Glyph(i)
	s.GlyphStyle.Radius = vg.Points(3)
	a.Add(s)
	a.AddLegendEntry(label, s)
	return nil
}

func makeXYs(xs, ys []float64) (plotter.XYs, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x values for %d y values", ErrSizeMismatch, len(xs), len(ys))
	}
	pts := make(plotter.XYs, len(xs))
	for i := range pts {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts, nil
}

// Bars returns every bar rectangle in rendering order: the data bars of all
// series, then the mask bars of a masked axes in the same order.
func (a *Axes) Bars() []models.Bar {
	var out []models.Bar
	for _, l := range a.bars {
		out = append(out, l.bars...)
	}
	for _, l := range a.masks {
		out = append(out, l.bars...)
	}
	return out
}

// ErrorSegments returns the error-bar segments in rendering order, nil when
// no error bars were drawn.
func (a *Axes) ErrorSegments() []models.ErrorSegment {
	return a.segments
}

// YRange returns the visible vertical range.
func (a *Axes) YRange() models.VisibleRange {
	return models.VisibleRange{Min: a.plot.Y.Min, Max: a.plot.Y.Max}
}

// Groups returns the number of x groups: the categories of a bar chart, or
// the labelled x ticks otherwise.
func (a *Axes) Groups() int {
	if len(a.categories) > 0 {
		return len(a.categories)
	}
	n := 0
	for _, t := range a.plot.X.Tick.Marker.Ticks(a.plot.X.Min, a.plot.X.Max) {
		if t.Label != "" {
			n++
		}
	}
	return n
}

// Annotate queues a text annotation drawn on top of the data.
func (a *Axes) Annotate(an models.Annotation) {
	a.annotations = append(a.annotations, an)
}

// Annotations returns the queued annotations.
func (a *Axes) Annotations() []models.Annotation {
	return a.annotations
}

func (a *Axes) setHatches(hatches []string) {
	k := 0
	for _, l := range a.bars {
		for i := range l.hatches {
			if k >= len(hatches) {
				return
			}
			l.hatches[i] = hatches[k]
			k++
		}
	}
}

// Hatches returns the hatch pattern of every bar, in the order of Bars.
func (a *Axes) Hatches() []string {
	var out []string
	for _, l := range a.bars {
		out = append(out, l.hatches...)
	}
	for _, l := range a.masks {
		out = append(out, l.hatches...)
	}
	return out
}

// SetGrid turns the grid on or off.
func (a *Axes) SetGrid(on bool) {
	a.grid.on = on
}

// SetXLim pins the x range, widened by a 5% gap on each side.
func (a *Axes) SetXLim(lo, hi float64) {
	a.xLim = adjustLims(lo, hi)
	a.applyLimits()
}

// SetYLim pins the y range, widened by a 5% gap on each side.
func (a *Axes) SetYLim(lo, hi float64) {
	a.yLim = adjustLims(lo, hi)
	a.applyLimits()
}

// applyLimits re-imposes pinned limits after plotters widened the range.
func (a *Axes) applyLimits() {
	if a.xLim != nil {
		a.plot.X.Min, a.plot.X.Max = a.xLim[0], a.xLim[1]
	}
	if a.yLim != nil {
		a.plot.Y.Min, a.plot.Y.Max = a.yLim[0], a.yLim[1]
	}
}

// SetXTicks sets the x tick positions and labels. Either may be nil: labels
// alone relabel the current major ticks.
func (a *Axes) SetXTicks(values []float64, labels []string) error {
	if values != nil {
		a.xTicks = values
	}
	if labels != nil {
		a.xTickLabels = labels
	}
	return a.applyTicks(&a.plot.X, a.xTicks, a.xTickLabels)
}

// SetYTicks sets the y tick positions and labels.
func (a *Axes) SetYTicks(values []float64, labels []string) error {
	if values != nil {
		a.yTicks = values
	}
	if labels != nil {
		a.yTickLabels = labels
	}
	return a.applyTicks(&a.plot.Y, a.yTicks, a.yTickLabels)
}

func (a *Axes) applyTicks(ax *plot.Axis, values []float64, labels []string) error {
	if values == nil && labels == nil {
		return nil
	}
	if values == nil {
		for _, t := range ax.Tick.Marker.Ticks(ax.Min, ax.Max) {
			if t.Label != "" {
				values = append(values, t.Value)
			}
		}
	}
	if labels != nil && len(labels) != len(values) {
		return NewAxisError(a.index, "ticks", fmt.Errorf("%w: %d tick labels for %d ticks", ErrSizeMismatch, len(labels), len(values)))
	}
	ticks := make([]plot.Tick, len(values))
	for i, v := range values {
		ticks[i] = plot.Tick{Value: v, Label: strconv.FormatFloat(v, 'g', -1, 64)}
		if labels != nil {
			ticks[i].Label = labels[i]
		}
	}
	ax.Tick.Marker = plot.ConstantTicks(ticks)
	return nil
}

// adjustLims widens [lo, hi] by gap times its width on each side.
func adjustLims(lo, hi float64) []float64 {
	const gap = 0.05
	return []float64{
		lo*(1+gap) - gap*hi,
		hi*(1+gap) - gap*lo,
	}
}

// gridLayer is a grid that can be switched off after it was added.
type gridLayer struct {
	*plotter.Grid
	on bool
}

func (g *gridLayer) Plot(c draw.Canvas, plt *plot.Plot) {
	if g.on {
		g.Grid.Plot(c, plt)
	}
}

type errorPoint struct {
	x, y, err float64
}

type errorPoints []errorPoint

func (e errorPoints) Len() int                        { return len(e) }
func (e errorPoints) XY(i int) (float64, float64)     { return e[i].x, e[i].y }
func (e errorPoints) YError(i int) (float64, float64) { return e[i].err, e[i].err }
