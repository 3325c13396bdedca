package myfigure

import (
	"image/color"
	"math"

	xfont "golang.org/x/image/font"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// inset is a child axes drawn in an axes-fraction rectangle of its parent.
type inset struct {
	axes *Axes
	x, y [2]float64
}

// draw draws the axes into c, then everything that is laid over the data
// area: the twin axis, insets, outlier annotations, the legend and the
// panel letter.
func (a *Axes) draw(c draw.Canvas) {
	a.applyLimits()
	sanitizeRange(&a.plot.X)
	sanitizeRange(&a.plot.Y)
	a.plot.Draw(c)

	dc := a.plot.DataCanvas(c)
	if a.twin != nil {
		a.twin.drawTwin(dc, a.plot)
	}
	for _, in := range a.insets {
		in.draw(dc)
	}
	a.drawAnnotations(dc)
	if a.legend != nil {
		a.legend.draw(dc)
	}
	a.drawLetter(dc)
}

// drawTwin draws the twin plotters over the data canvas of the primary
// axes and a y axis along its right edge.
func (a *Axes) drawTwin(dc draw.Canvas, primary *plot.Plot) {
	a.applyLimits()
	a.plot.X.Min, a.plot.X.Max = primary.X.Min, primary.X.Max
	sanitizeRange(&a.plot.Y)
	for _, p := range a.plotters {
		p.Plot(dc, a.plot)
	}

	ax := &a.plot.Y
	_, trY := a.plot.Transforms(&dc)
	x := dc.Max.X + ax.Padding
	dc.StrokeLine2(ax.LineStyle, x, trY(ax.Min), x, trY(ax.Max))

	lsty := ax.Tick.Label
	lsty.XAlign = text.XLeft
	lsty.YAlign = text.YCenter
	var labelW vg.Length
	for _, t := range ax.Tick.Marker.Ticks(ax.Min, ax.Max) {
		if t.Value < ax.Min || t.Value > ax.Max {
			continue
		}
		y := trY(t.Value)
		length := ax.Tick.Length
		if t.IsMinor() {
			length /= 2
		}
		dc.StrokeLine2(ax.Tick.LineStyle, x, y, x+length, y)
		if t.Label == "" {
			continue
		}
		dc.FillText(lsty, vg.Point{X: x + ax.Tick.Length + vg.Points(2), Y: y}, t.Label)
		if w := lsty.Width(t.Label); w > labelW {
			labelW = w
		}
	}

	if ax.Label.Text != "" {
		sty := ax.Label.TextStyle
		sty.Rotation = math.Pi / 2
		sty.XAlign = text.XCenter
		sty.YAlign = text.YTop
		pos := vg.Point{
			X: x + ax.Tick.Length + vg.Points(2) + labelW + ax.Label.Padding,
			Y: (dc.Min.Y + dc.Max.Y) / 2,
		}
		dc.FillText(sty, pos, ax.Label.Text)
	}
}

func (in *inset) draw(dc draw.Canvas) {
	w := dc.Max.X - dc.Min.X
	h := dc.Max.Y - dc.Min.Y
	c := draw.Canvas{
		Canvas: dc.Canvas,
		Rectangle: vg.Rectangle{
			Min: vg.Point{X: dc.Min.X + vg.Length(in.x[0])*w, Y: dc.Min.Y + vg.Length(in.y[0])*h},
			Max: vg.Point{X: dc.Min.X + vg.Length(in.x[1])*w, Y: dc.Min.Y + vg.Length(in.y[1])*h},
		},
	}
	if in.axes.plot.BackgroundColor == nil {
		in.axes.plot.BackgroundColor = color.White
	}
	in.axes.draw(c)
}

// drawAnnotations draws the queued annotations: x in data coordinates, y
// as a fraction of the data area height.
func (a *Axes) drawAnnotations(dc draw.Canvas) {
	if len(a.annotations) == 0 {
		return
	}
	trX, _ := a.plot.Transforms(&dc)
	for _, an := range a.annotations {
		sty := a.theme.TextStyle(vg.Points(an.FontSize))
		pt := vg.Point{
			X: trX(an.X),
			Y: dc.Min.Y + vg.Length(an.Y)*(dc.Max.Y-dc.Min.Y),
		}
		drawTextBox(dc, sty, pt, an.Text, an.BoxAlpha)
	}
}

// drawTextBox draws centred text over a white box of the given opacity.
func drawTextBox(dc draw.Canvas, sty text.Style, pt vg.Point, txt string, alpha float64) {
	pad := vg.Points(2)
	w := sty.Width(txt)/2 + pad
	h := sty.Height(txt)/2 + pad
	box := []vg.Point{
		{X: pt.X - w, Y: pt.Y - h},
		{X: pt.X - w, Y: pt.Y + h},
		{X: pt.X + w, Y: pt.Y + h},
		{X: pt.X + w, Y: pt.Y - h},
	}
	dc.FillPolygon(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: uint8(math.Round(alpha * 0xff))}, box)
	dc.FillText(sty, pt, txt)
}

func (a *Axes) drawLetter(dc draw.Canvas) {
	if a.letter == "" {
		return
	}
	sty := a.theme.TextStyle(a.theme.FontSize)
	sty.Font.Weight = xfont.WeightBold
	sty.XAlign = text.XLeft
	sty.YAlign = text.YBottom
	pt := vg.Point{
		X: dc.Min.X + vg.Length(a.letterXY[0])*(dc.Max.X-dc.Min.X),
		Y: dc.Min.Y + vg.Length(a.letterXY[1])*(dc.Max.Y-dc.Min.Y),
	}
	dc.FillText(sty, pt, a.letter)
}

// sanitizeRange gives an axis without data a unit range so that it can
// still be drawn.
func sanitizeRange(ax *plot.Axis) {
	if math.IsInf(ax.Min, 0) || math.IsInf(ax.Max, 0) || ax.Min > ax.Max {
		ax.Min, ax.Max = 0, 1
	}
}
