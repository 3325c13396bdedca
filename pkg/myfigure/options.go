// Package myfigure builds styled multi-panel figures on top of gonum/plot and
// annotates bars that fall outside the visible axis range.
package myfigure

import (
	"fmt"
	"strings"
)

// Options configures a Figure.
//
// Per-axis values are slices: an empty slice leaves the property unset, a
// single element applies to every axes and n elements (one per axes)
// configure each axes on its own. List properties (limits, ticks, tick
// labels) follow the same rule one level down.
type Options struct {
	Rows int `koanf:"rows"`
	Cols int `koanf:"cols"`
	// Width and Height are the figure size in inches.
	Width  float64 `koanf:"width"`
	Height float64 `koanf:"height"`

	XLab        []string    `koanf:"x_lab"`
	YLab        []string    `koanf:"y_lab"`
	XLim        [][]float64 `koanf:"x_lim"`
	YLim        [][]float64 `koanf:"y_lim"`
	XTicks      [][]float64 `koanf:"x_ticks"`
	YTicks      [][]float64 `koanf:"y_ticks"`
	XTickLabels [][]string  `koanf:"x_ticklabels"`
	YTickLabels [][]string  `koanf:"y_ticklabels"`
	// XTickLabelsRotation is in degrees.
	XTickLabelsRotation []float64 `koanf:"x_ticklabels_rotation"`

	// TwinX adds a secondary y axis on the right of every axes.
	TwinX        bool        `koanf:"twinx"`
	YtLab        []string    `koanf:"yt_lab"`
	YtLim        [][]float64 `koanf:"yt_lim"`
	YtTicks      [][]float64 `koanf:"yt_ticks"`
	YtTickLabels [][]string  `koanf:"yt_ticklabels"`

	Legend      []bool   `koanf:"legend"`
	LegendLoc   []string `koanf:"legend_loc"`
	LegendNcols []int    `koanf:"legend_ncols"`
	LegendTitle []string `koanf:"legend_title"`
	// LegendBboxXY anchors the legend at an axes-fraction point.
	LegendBboxXY [][]float64 `koanf:"legend_bbox_xy"`

	// AnnotateLetters holds one letter per axes, drawn as "(a)".
	AnnotateLetters   []string  `koanf:"annotate_lttrs"`
	AnnotateLettersXY []float64 `koanf:"annotate_lttrs_xy"`

	Grid []bool `koanf:"grid"`

	ColorPalette        string  `koanf:"color_palette"`
	ColorPaletteNColors int     `koanf:"color_palette_n_colors"`
	TextFont            string  `koanf:"text_font"`
	Style               string  `koanf:"style"`
	TextFontSize        float64 `koanf:"text_font_size"`
	LegendFontSize      float64 `koanf:"legend_font_size"`
	XLabelPad           float64 `koanf:"x_labelpad"`
	YLabelPad           float64 `koanf:"y_labelpad"`
	LegendBorderPad     float64 `koanf:"legend_borderpad"`
	LegendHandleLength  float64 `koanf:"legend_handlelength"`

	AnnotateOutliers        []bool `koanf:"annotate_outliers"`
	MaskedInsignificantData []bool `koanf:"masked_unsignificant_data"`
	// OutlierDecimals is the precision of outlier labels.
	OutlierDecimals int `koanf:"outlier_decimals"`
}

// DefaultOptions returns default figure options.
func DefaultOptions() Options {
	return Options{
		Rows:                1,
		Cols:                1,
		Width:               6,
		Height:              6,
		XTickLabelsRotation: []float64{0},
		Legend:              []bool{true},
		LegendLoc:           []string{"best"},
		LegendNcols:         []int{1},
		ColorPalette:        "deep",
		TextFont:            "sans",
		Style:               "ticks",
		TextFontSize:        10,
		LegendFontSize:      10,
		LegendBorderPad:     0.3,
		LegendHandleLength:  1.5,
		OutlierDecimals:     2,
	}
}

// NAxes returns the number of axes the options describe.
func (o Options) NAxes() int {
	return o.Rows * o.Cols
}

// Validate checks the options for values no figure can be built from.
func (o Options) Validate() error {
	if o.Rows <= 0 {
		return fmt.Errorf("%w: number of rows must be positive", ErrInvalidOption)
	}
	if o.Cols <= 0 {
		return fmt.Errorf("%w: number of cols must be positive", ErrInvalidOption)
	}
	if o.Width <= 0 {
		return fmt.Errorf("%w: width must be positive", ErrInvalidOption)
	}
	if o.Height <= 0 {
		return fmt.Errorf("%w: height must be positive", ErrInvalidOption)
	}
	for _, n := range o.LegendNcols {
		if n <= 0 {
			return fmt.Errorf("%w: number of legend columns must be positive", ErrInvalidOption)
		}
	}
	for _, loc := range o.LegendLoc {
		if _, ok := legendLocations[strings.ToLower(loc)]; !ok {
			return fmt.Errorf("%w: unknown legend location %q", ErrInvalidOption, loc)
		}
	}
	if _, ok := palettes[strings.ToLower(o.ColorPalette)]; !ok {
		return fmt.Errorf("%w: unknown color palette %q", ErrInvalidOption, o.ColorPalette)
	}
	if _, ok := styles[strings.ToLower(o.Style)]; !ok {
		return fmt.Errorf("%w: unknown style %q", ErrInvalidOption, o.Style)
	}
	if o.TextFontSize <= 0 || o.LegendFontSize <= 0 {
		return fmt.Errorf("%w: font sizes must be positive", ErrInvalidOption)
	}
	if o.OutlierDecimals < 0 {
		return fmt.Errorf("%w: outlier decimals must not be negative", ErrInvalidOption)
	}
	if n := len(o.AnnotateLetters); n > 0 && n < o.NAxes() {
		return fmt.Errorf("%w: %d letters for %d axes", ErrSizeMismatch, n, o.NAxes())
	}
	return nil
}

// SaveOptions configures Figure.Save.
type SaveOptions struct {
	// Filename is the file name without extension.
	Filename string `koanf:"filename"`
	// OutPath is the output directory.
	OutPath string `koanf:"out_path"`
	// Formats lists the file extensions to write (png, pdf, svg, eps, tif, jpg).
	Formats []string `koanf:"formats"`
	// Transparent makes the background of raster outputs transparent.
	Transparent bool `koanf:"transparent"`
	DPI         int  `koanf:"dpi"`
}

// DefaultSaveOptions returns default save options.
func DefaultSaveOptions() SaveOptions {
	return SaveOptions{
		Formats: []string{"png"},
		DPI:     300,
	}
}

// AnalyzeOptions configures AnalyzeWorkbook.
type AnalyzeOptions struct {
	// DecimalPlaces is the precision of outlier labels.
	DecimalPlaces int
	// IncludeEmpty specifies whether charts without outliers are reported.
	// If nil, defaults to false.
	IncludeEmpty *bool
}

// DefaultAnalyzeOptions returns default workbook analysis options.
func DefaultAnalyzeOptions() AnalyzeOptions {
	return AnalyzeOptions{DecimalPlaces: 2}
}

// ShouldIncludeEmpty returns whether to report charts without outliers.
func (o AnalyzeOptions) ShouldIncludeEmpty() bool {
	if o.IncludeEmpty != nil {
		return *o.IncludeEmpty
	}
	return false
}
