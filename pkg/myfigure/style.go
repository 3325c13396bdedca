package myfigure

import (
	"fmt"
	"image/color"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// palettes holds the named colour cycles.
var palettes = map[string][]string{
	"deep":       {"#4C72B0", "#DD8452", "#55A868", "#C44E52", "#8172B3", "#937860", "#DA8BC3", "#8C8C8C", "#CCB974", "#64B5CD"},
	"muted":      {"#4878D0", "#EE854A", "#6ACC64", "#D65F5F", "#956CB4", "#8C613C", "#DC7EC0", "#797979", "#D5BB67", "#82C6E2"},
	"colorblind": {"#0173B2", "#DE8F05", "#029E73", "#D55E00", "#CC78BC", "#CA9161", "#FBAFE4", "#949494", "#ECE133", "#56B4E9"},
	"pastel":     {"#A1C9F4", "#FFB482", "#8DE5A1", "#FF9F9B", "#D0BBFF", "#DEBB9B", "#FAB0E4", "#CFCFCF", "#FFFEA3", "#B9F2F0"},
	"bright":     {"#023EFF", "#FF7C00", "#1AC938", "#E8000B", "#8B2BE2", "#9F4800", "#F14CC1", "#A3A3A3", "#FFC400", "#00D7FF"},
	"dark":       {"#001C7F", "#B1400D", "#12711C", "#8C0800", "#591E71", "#592F0D", "#A23582", "#3C3C3C", "#B8850A", "#006374"},
}

// styles maps a style name to whether it draws a grid by default.
var styles = map[string]bool{
	"ticks":     false,
	"white":     false,
	"whitegrid": true,
	"darkgrid":  true,
}

// dashPatterns cycles from solid through densely to loosely dotted and dashed lines.
var dashPatterns = [][]float64{
	nil,
	{1, 1},
	{5, 1},
	{3, 1, 1, 1},
	{3, 1, 1, 1, 1, 1},
	{5, 5},
	{3, 5, 1, 5},
	{1, 5},
	{3, 5, 1, 5, 1, 5},
	{1, 10},
	{5, 10},
	{3, 10, 1, 10},
	{3, 10, 1, 10, 1, 10},
}

var glyphs = []draw.GlyphDrawer{
	draw.CircleGlyph{},
	draw.PyramidGlyph{},
	draw.CrossGlyph{},
	draw.BoxGlyph{},
	draw.RingGlyph{},
	draw.TriangleGlyph{},
	draw.PlusGlyph{},
	draw.SquareGlyph{},
}

// Theme is the resolved visual configuration of a figure. It replaces the
// process-wide palette and font settings with a value owned by each figure.
type Theme struct {
	Palette        []color.Color
	Font           font.Font
	FontSize       vg.Length
	LegendFontSize vg.Length
	Grid           bool
	Background     color.Color
	GridColor      color.Color
}

// NewTheme resolves the style-related options.
func NewTheme(opts Options) (Theme, error) {
	hexes, ok := palettes[strings.ToLower(opts.ColorPalette)]
	if !ok {
		return Theme{}, fmt.Errorf("%w: unknown color palette %q", ErrInvalidOption, opts.ColorPalette)
	}
	n := len(hexes)
	if opts.ColorPaletteNColors > 0 {
		n = opts.ColorPaletteNColors
	}
	pal := make([]color.Color, n)
	for i := range pal {
		c, err := parseHexColor(hexes[i%len(hexes)])
		if err != nil {
			return Theme{}, err
		}
		pal[i] = c
	}

	style := strings.ToLower(opts.Style)
	grid, ok := styles[style]
	if !ok {
		return Theme{}, fmt.Errorf("%w: unknown style %q", ErrInvalidOption, opts.Style)
	}

	t := Theme{
		Palette:        pal,
		Font:           fontFor(opts.TextFont),
		FontSize:       vg.Points(opts.TextFontSize),
		LegendFontSize: vg.Points(opts.LegendFontSize),
		Grid:           grid,
		Background:     color.White,
		GridColor:      color.Gray{Y: 0xdd},
	}
	if style == "darkgrid" {
		t.Background = color.RGBA{R: 0xea, G: 0xea, B: 0xf2, A: 0xff}
		t.GridColor = color.White
	}
	return t, nil
}

// Color returns the i-th palette colour, cycling.
func (t Theme) Color(i int) color.Color {
	return t.Palette[i%len(t.Palette)]
}

// Dashes returns the i-th dash pattern, cycling.
func Dashes(i int) []vg.Length {
	p := dashPatterns[i%len(dashPatterns)]
	if p == nil {
		return nil
	}
	out := make([]vg.Length, len(p))
	for k, v := range p {
		out[k] = vg.Points(v)
	}
	return out
}

// Glyph returns the i-th marker shape, cycling.
func Glyph(i int) draw.GlyphDrawer {
	return glyphs[i%len(glyphs)]
}

// TextStyle returns a text style in the theme font at the given size.
func (t Theme) TextStyle(size vg.Length) text.Style {
	f := t.Font
	f.Size = size
	return text.Style{
		Color:   color.Black,
		Font:    f,
		XAlign:  text.XCenter,
		YAlign:  text.YCenter,
		Handler: plot.DefaultTextHandler,
	}
}

func (t Theme) apply(p *plot.Plot) {
	for _, sty := range []*text.Style{
		&p.Title.TextStyle,
		&p.X.Label.TextStyle,
		&p.Y.Label.TextStyle,
		&p.X.Tick.Label,
		&p.Y.Tick.Label,
		&p.Legend.TextStyle,
	} {
		sty.Font.Typeface = t.Font.Typeface
		sty.Font.Variant = t.Font.Variant
		sty.Font.Size = t.FontSize
	}
	p.BackgroundColor = t.Background
}

func fontFor(name string) font.Font {
	f := font.Font{Typeface: "Liberation", Variant: "Sans"}
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "mono"):
		f.Variant = "Mono"
	case strings.Contains(lower, "serif") && !strings.Contains(lower, "sans"):
		f.Variant = "Serif"
	}
	return f
}

func parseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("%w: bad colour %q", ErrInvalidOption, s)
	}
	return c, nil
}
