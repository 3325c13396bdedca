package myfigure

import (
	"image/color"
	"math"
	"strings"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// hatchCycle is the pattern sequence assigned to the bars of a group; the
// first bar of each group stays plain.
var hatchCycle = []string{"//", "...", "--", "O", `\\`, "oo", `\\\`, "/////", "....."}

// hatchSpacing is the distance between hatch lines at density one.
const hatchSpacing = vg.Length(6)

// HatchPattern returns the i-th hatch pattern.
func HatchPattern(i int) string {
	if i == 0 {
		return ""
	}
	return hatchCycle[(i-1)%len(hatchCycle)]
}

// assignHatches returns the hatch pattern of each of n bars spread over
// groups x groups, in series-major rendering order: all bars of the first
// series share the first pattern, and so on.
func assignHatches(n, groups int) []string {
	if n == 0 || groups <= 0 {
		return nil
	}
	perGroup := n / groups
	if perGroup == 0 {
		return nil
	}
	reps := n / perGroup
	hatches := make([]string, 0, n)
	for p := 0; p < perGroup; p++ {
		for r := 0; r < reps; r++ {
			hatches = append(hatches, HatchPattern(p))
		}
	}
	return hatches
}

// drawHatch fills rect with pattern. Repeating a symbol increases density.
func drawHatch(c draw.Canvas, rect vg.Rectangle, pattern string, sty draw.LineStyle) {
	if pattern == "" {
		return
	}
	rect = intersect(rect, c.Rectangle)
	if rect.Max.X <= rect.Min.X || rect.Max.Y <= rect.Min.Y {
		return
	}
	if sty.Color == nil {
		sty.Color = color.Black
	}
	inner := draw.Canvas{Canvas: c.Canvas, Rectangle: rect}

	count := func(chars string) int {
		n := 0
		for _, ch := range chars {
			n += strings.Count(pattern, string(ch))
		}
		return n
	}

	if n := count("/x"); n > 0 {
		hatchLines(inner, sty, hatchSpacing/vg.Length(n), 1)
	}
	if n := count(`\x`); n > 0 {
		hatchLines(inner, sty, hatchSpacing/vg.Length(n), -1)
	}
	if n := count("-+"); n > 0 {
		step := hatchSpacing / vg.Length(n)
		for y := rect.Min.Y + step/2; y < rect.Max.Y; y += step {
			inner.StrokeLine2(sty, rect.Min.X, y, rect.Max.X, y)
		}
	}
	if n := count("|+"); n > 0 {
		step := hatchSpacing / vg.Length(n)
		for x := rect.Min.X + step/2; x < rect.Max.X; x += step {
			inner.StrokeLine2(sty, x, rect.Min.Y, x, rect.Max.Y)
		}
	}
	if n := count("."); n > 0 {
		hatchGlyphs(inner, draw.GlyphStyle{Color: sty.Color, Radius: vg.Points(0.6), Shape: draw.CircleGlyph{}}, hatchSpacing/vg.Length(n))
	}
	if n := count("o"); n > 0 {
		hatchGlyphs(inner, draw.GlyphStyle{Color: sty.Color, Radius: vg.Points(1.2), Shape: draw.RingGlyph{}}, 2*hatchSpacing/vg.Length(n))
	}
	if n := count("O"); n > 0 {
		hatchGlyphs(inner, draw.GlyphStyle{Color: sty.Color, Radius: vg.Points(2.2), Shape: draw.RingGlyph{}}, 2*hatchSpacing/vg.Length(n))
	}
	if n := count("*"); n > 0 {
		hatchGlyphs(inner, draw.GlyphStyle{Color: sty.Color, Radius: vg.Points(1.5), Shape: draw.CrossGlyph{}}, 2*hatchSpacing/vg.Length(n))
	}
}

// hatchLines strokes 45 degree lines; dir 1 rises to the right, -1 falls.
func hatchLines(c draw.Canvas, sty draw.LineStyle, step vg.Length, dir int) {
	w := c.Max.X - c.Min.X
	h := c.Max.Y - c.Min.Y
	var lines [][]vg.Point
	for off := -h; off < w; off += step {
		x0 := c.Min.X + off
		if dir > 0 {
			lines = append(lines, []vg.Point{{X: x0, Y: c.Min.Y}, {X: x0 + h, Y: c.Max.Y}})
		} else {
			lines = append(lines, []vg.Point{{X: x0, Y: c.Max.Y}, {X: x0 + h, Y: c.Min.Y}})
		}
	}
	c.StrokeLines(sty, c.ClipLinesXY(lines...)...)
}

func hatchGlyphs(c draw.Canvas, sty draw.GlyphStyle, step vg.Length) {
	row := 0
	for y := c.Min.Y + step/2; y < c.Max.Y; y += step {
		shift := vg.Length(0)
		if row%2 == 1 {
			shift = step / 2
		}
		for x := c.Min.X + step/2 + shift; x < c.Max.X; x += step {
			c.DrawGlyphNoClip(sty, vg.Point{X: x, Y: y})
		}
		row++
	}
}

func intersect(a, b vg.Rectangle) vg.Rectangle {
	return vg.Rectangle{
		Min: vg.Point{X: vg.Length(math.Max(float64(a.Min.X), float64(b.Min.X))), Y: vg.Length(math.Max(float64(a.Min.Y), float64(b.Min.Y)))},
		Max: vg.Point{X: vg.Length(math.Min(float64(a.Max.X), float64(b.Max.X))), Y: vg.Length(math.Min(float64(a.Max.Y), float64(b.Max.Y)))},
	}
}
