package myfigure

import (
	"image/color"

	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// legendLocations maps a legend location to the point of the legend box
// that is aligned with the same point of the axes, in axes fractions.
var legendLocations = map[string][2]float64{
	"best":         {1, 1},
	"upper right":  {1, 1},
	"upper left":   {0, 1},
	"lower left":   {0, 0},
	"lower right":  {1, 0},
	"right":        {1, 0.5},
	"center left":  {0, 0.5},
	"center right": {1, 0.5},
	"lower center": {0.5, 0},
	"upper center": {0.5, 1},
	"center":       {0.5, 0.5},
}

// legendSpec is a legend laid out in columns over the data area.
type legendSpec struct {
	entries []legendEntry
	loc     [2]float64
	// bbox anchors the legend at an axes-fraction point instead of
	// placing it inside the axes.
	bbox  []float64
	ncols int
	title string
	style text.Style
	// borderPad and handleLength are in units of the font size.
	borderPad    float64
	handleLength float64
}

// Labels returns the legend labels in drawing order.
func (l *legendSpec) Labels() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.label
	}
	return out
}

// size returns the outer size of the legend box.
func (l *legendSpec) size() (w, h vg.Length, cols []vg.Length, rowH, titleH vg.Length) {
	fs := l.style.Font.Size
	pad := vg.Length(l.borderPad) * fs
	handle := vg.Length(l.handleLength) * fs
	rowH = l.style.Height("M") * 1.2

	rows := (len(l.entries) + l.ncols - 1) / l.ncols
	cols = make([]vg.Length, l.ncols)
	for i, e := range l.entries {
		k := i / rows
		cw := handle + fs*0.4 + l.style.Width(e.label)
		if cw > cols[k] {
			cols[k] = cw
		}
	}
	for k, cw := range cols {
		w += cw
		if k > 0 {
			w += fs * 0.8
		}
	}
	if l.title != "" {
		titleH = rowH
		if tw := l.style.Width(l.title); tw > w {
			w = tw
		}
	}
	w += 2 * pad
	h = vg.Length(rows)*rowH + titleH + 2*pad
	return w, h, cols, rowH, titleH
}

// draw draws the legend relative to the data canvas dc.
func (l *legendSpec) draw(dc draw.Canvas) {
	if len(l.entries) == 0 {
		return
	}
	if l.ncols <= 0 {
		l.ncols = 1
	}
	fs := l.style.Font.Size
	pad := vg.Length(l.borderPad) * fs
	handle := vg.Length(l.handleLength) * fs
	w, h, cols, rowH, titleH := l.size()

	dw := dc.Max.X - dc.Min.X
	dh := dc.Max.Y - dc.Min.Y
	var x0, y0 vg.Length
	if l.bbox != nil {
		x0 = dc.Min.X + vg.Length(l.bbox[0])*dw - vg.Length(l.loc[0])*w
		y0 = dc.Min.Y + vg.Length(l.bbox[1])*dh - vg.Length(l.loc[1])*h
	} else {
		margin := fs * 0.5
		x0 = dc.Min.X + margin + vg.Length(l.loc[0])*(dw-w-2*margin)
		y0 = dc.Min.Y + margin + vg.Length(l.loc[1])*(dh-h-2*margin)
	}

	box := []vg.Point{{X: x0, Y: y0}, {X: x0, Y: y0 + h}, {X: x0 + w, Y: y0 + h}, {X: x0 + w, Y: y0}}
	dc.FillPolygon(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xcc}, box)
	dc.StrokeLines(draw.LineStyle{Color: color.Gray{Y: 0xcc}, Width: vg.Points(0.8)}, append(box, box[0]))

	top := y0 + h - pad
	if l.title != "" {
		sty := l.style
		sty.XAlign = text.XCenter
		sty.YAlign = text.YCenter
		dc.FillText(sty, vg.Point{X: x0 + w/2, Y: top - titleH/2}, l.title)
		top -= titleH
	}

	sty := l.style
	sty.XAlign = text.XLeft
	sty.YAlign = text.YCenter
	rows := (len(l.entries) + l.ncols - 1) / l.ncols
	x := x0 + pad
	for k := range cols {
		for r := 0; r < rows; r++ {
			i := k*rows + r
			if i >= len(l.entries) {
				break
			}
			e := l.entries[i]
			yTop := top - vg.Length(r)*rowH
			thumb := &draw.Canvas{
				Canvas: dc.Canvas,
				Rectangle: vg.Rectangle{
					Min: vg.Point{X: x, Y: yTop - rowH + rowH*0.2},
					Max: vg.Point{X: x + handle, Y: yTop - rowH*0.2},
				},
			}
			for _, t := range e.thumbs {
				t.Thumbnail(thumb)
			}
			dc.FillText(sty, vg.Point{X: x + handle + fs*0.4, Y: yTop - rowH/2}, e.label)
		}
		x += cols[k] + fs*0.8
	}
}

func newLegendSpec(entries []legendEntry, theme Theme) *legendSpec {
	return &legendSpec{
		entries:      entries,
		loc:          legendLocations["best"],
		ncols:        1,
		style:        theme.TextStyle(theme.LegendFontSize),
		borderPad:    0.4,
		handleLength: 2,
	}
}
