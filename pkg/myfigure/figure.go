package myfigure

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ukaji3/myfigure-go/internal/logging"
	"github.com/ukaji3/myfigure-go/pkg/myfigure/outliers"
)

// twinPad is the room reserved right of each axes for a twin y axis.
const twinPad = vg.Length(48)

// Figure is a grid of axes sharing one theme.
type Figure struct {
	opts   Options
	theme  Theme
	axes   []*Axes
	logger zerolog.Logger
}

// New builds a figure of opts.Rows x opts.Cols axes and applies the per-axis
// labels, limits and ticks.
func New(opts Options) (*Figure, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	theme, err := NewTheme(opts)
	if err != nil {
		return nil, err
	}
	n := opts.NAxes()
	masked, err := broadcastValue(opts.MaskedInsignificantData, n, "masked_unsignificant_data")
	if err != nil {
		return nil, err
	}

	f := &Figure{
		opts:   opts,
		theme:  theme,
		axes:   make([]*Axes, n),
		logger: logging.GetLogger("myfigure"),
	}
	for i := range f.axes {
		a := newAxes(i, theme)
		a.masked, _ = at(masked, i)
		if opts.TwinX {
			t := newAxes(i, theme)
			t.parent = a
			t.grid.on = false
			a.twin = t
		}
		f.axes[i] = a
	}

	if err := f.UpdateSingleProps(); err != nil {
		return nil, err
	}
	if err := f.UpdateListProps(); err != nil {
		return nil, err
	}
	f.logger.Debug().Int("rows", opts.Rows).Int("cols", opts.Cols).Bool("twinx", opts.TwinX).Msg("Figure created")
	return f, nil
}

// Axes returns the axes in row-major order.
func (f *Figure) Axes() []*Axes {
	return f.axes
}

// Ax returns the i-th axes in row-major order.
func (f *Figure) Ax(i int) *Axes {
	return f.axes[i]
}

// Options returns the options the figure was built from.
func (f *Figure) Options() Options {
	return f.opts
}

// UpdateSingleProps applies axis labels, label padding and grids.
func (f *Figure) UpdateSingleProps() error {
	n := len(f.axes)
	xLab, err := broadcastValue(f.opts.XLab, n, "x_lab")
	if err != nil {
		return err
	}
	yLab, err := broadcastValue(f.opts.YLab, n, "y_lab")
	if err != nil {
		return err
	}
	ytLab, err := broadcastValue(f.opts.YtLab, n, "yt_lab")
	if err != nil {
		return err
	}
	grid, err := broadcastValue(f.opts.Grid, n, "grid")
	if err != nil {
		return err
	}

	for i, a := range f.axes {
		if v, ok := at(xLab, i); ok {
			a.plot.X.Label.Text = v
		}
		if v, ok := at(yLab, i); ok {
			a.plot.Y.Label.Text = v
		}
		a.plot.X.Label.Padding = vg.Points(f.opts.XLabelPad)
		a.plot.Y.Label.Padding = vg.Points(f.opts.YLabelPad)
		if v, ok := at(grid, i); ok {
			a.SetGrid(v)
		}
		if a.twin != nil {
			if v, ok := at(ytLab, i); ok {
				a.twin.plot.Y.Label.Text = v
			}
		}
	}
	return nil
}

// UpdateListProps applies limits, ticks and tick labels, including those of
// the twin axes.
func (f *Figure) UpdateListProps() error {
	n := len(f.axes)
	lists := map[string][][]float64{}
	for name, v := range map[string][][]float64{
		"x_lim":    f.opts.XLim,
		"y_lim":    f.opts.YLim,
		"yt_lim":   f.opts.YtLim,
		"x_ticks":  f.opts.XTicks,
		"y_ticks":  f.opts.YTicks,
		"yt_ticks": f.opts.YtTicks,
	} {
		b, err := broadcastList(v, n, name)
		if err != nil {
			return err
		}
		lists[name] = b
	}
	labels := map[string][][]string{}
	for name, v := range map[string][][]string{
		"x_ticklabels":  f.opts.XTickLabels,
		"y_ticklabels":  f.opts.YTickLabels,
		"yt_ticklabels": f.opts.YtTickLabels,
	} {
		b, err := broadcastList(v, n, name)
		if err != nil {
			return err
		}
		labels[name] = b
	}

	for i, a := range f.axes {
		if lim, ok := at(lists["x_lim"], i); ok {
			if err := checkLim(i, lim); err != nil {
				return err
			}
			a.SetXLim(lim[0], lim[1])
		}
		if lim, ok := at(lists["y_lim"], i); ok {
			if err := checkLim(i, lim); err != nil {
				return err
			}
			a.SetYLim(lim[0], lim[1])
		}
		xt, _ := at(lists["x_ticks"], i)
		xl, _ := at(labels["x_ticklabels"], i)
		if err := a.SetXTicks(xt, xl); err != nil {
			return err
		}
		yt, _ := at(lists["y_ticks"], i)
		yl, _ := at(labels["y_ticklabels"], i)
		if err := a.SetYTicks(yt, yl); err != nil {
			return err
		}

		if a.twin == nil {
			continue
		}
		if lim, ok := at(lists["yt_lim"], i); ok {
			if err := checkLim(i, lim); err != nil {
				return err
			}
			a.twin.SetYLim(lim[0], lim[1])
		}
		tt, _ := at(lists["yt_ticks"], i)
		tl, _ := at(labels["yt_ticklabels"], i)
		if err := a.twin.SetYTicks(tt, tl); err != nil {
			return err
		}
	}
	return nil
}

func checkLim(axis int, lim []float64) error {
	if len(lim) != 2 {
		return NewAxisError(axis, "limits", fmt.Errorf("%w: limits need 2 values, got %d", ErrInvalidOption, len(lim)))
	}
	return nil
}

// AnnotateOutliers labels the bars outside the visible y range of every
// axes with outlier annotation enabled. Each call adds a fresh set of
// annotations.
func (f *Figure) AnnotateOutliers() error {
	enabled, err := broadcastValue(f.opts.AnnotateOutliers, len(f.axes), "annotate_outliers")
	if err != nil {
		return err
	}
	for i, a := range f.axes {
		if on, _ := at(enabled, i); !on {
			continue
		}
		a.applyLimits()
		outliers.Annotate(a, outliers.Config{
			DecimalPlaces: f.opts.OutlierDecimals,
			Masked:        a.masked,
			Logger:        f.logger,
		})
	}
	return nil
}

// ApplyHatchPatterns hatches the bars of every axes so that the series of a
// group can be told apart in black and white. Axes without bars are skipped.
func (f *Figure) ApplyHatchPatterns() {
	for _, a := range f.axes {
		bars := a.Bars()
		if len(bars) == 0 {
			f.logger.Debug().Int("axes", a.index).Msg("No bars to hatch")
			continue
		}
		groups := a.Groups()
		if groups == 0 {
			continue
		}
		n := len(bars)
		if a.masked {
			n /= 2
		}
		// Mask layers stay plain.
		a.setHatches(assignHatches(n, groups))
	}
}

// AddLegend builds the legend of every axes with the legend enabled. Mask
// layers have no entries; twin entries follow the primary ones.
func (f *Figure) AddLegend() error {
	n := len(f.axes)
	show, err := broadcastValue(f.opts.Legend, n, "legend")
	if err != nil {
		return err
	}
	locs, err := broadcastValue(f.opts.LegendLoc, n, "legend_loc")
	if err != nil {
		return err
	}
	ncols, err := broadcastValue(f.opts.LegendNcols, n, "legend_ncols")
	if err != nil {
		return err
	}
	titles, err := broadcastValue(f.opts.LegendTitle, n, "legend_title")
	if err != nil {
		return err
	}
	bboxes, err := broadcastList(f.opts.LegendBboxXY, n, "legend_bbox_xy")
	if err != nil {
		return err
	}

	for i, a := range f.axes {
		if on, _ := at(show, i); !on {
			a.legend = nil
			continue
		}
		entries := a.entries
		if a.twin != nil {
			entries = append(append([]legendEntry(nil), entries...), a.twin.entries...)
		}

		l := newLegendSpec(entries, f.theme)
		if loc, ok := at(locs, i); ok {
			l.loc = legendLocations[strings.ToLower(loc)]
		}
		if nc, ok := at(ncols, i); ok {
			l.ncols = nc
		}
		l.title, _ = at(titles, i)
		if bbox, ok := at(bboxes, i); ok {
			if len(bbox) < 2 {
				return NewAxisError(i, "legend", fmt.Errorf("%w: bbox needs x and y", ErrInvalidOption))
			}
			l.bbox = bbox
		}
		l.borderPad = f.opts.LegendBorderPad
		l.handleLength = f.opts.LegendHandleLength
		a.legend = l
	}
	return nil
}

// RotateXLabels rotates the x tick labels by the configured angle in
// degrees. Rotated labels are right aligned to their tick.
func (f *Figure) RotateXLabels() error {
	rot, err := broadcastValue(f.opts.XTickLabelsRotation, len(f.axes), "x_ticklabels_rotation")
	if err != nil {
		return err
	}
	for i, a := range f.axes {
		deg, ok := at(rot, i)
		if !ok {
			continue
		}
		sty := &a.plot.X.Tick.Label
		sty.Rotation = deg * math.Pi / 180
		if deg != 0 {
			sty.XAlign = text.XRight
			sty.YAlign = text.YCenter
		}
	}
	return nil
}

// AnnotateLetters labels each axes with "(letter)" in bold, at an axes
// fraction position.
func (f *Figure) AnnotateLetters() error {
	letters := f.opts.AnnotateLetters
	if len(letters) == 0 {
		return nil
	}
	xy := [2]float64{-0.15, -0.15}
	if v := f.opts.AnnotateLettersXY; len(v) >= 2 {
		xy = [2]float64{v[0], v[1]}
	}
	for i, a := range f.axes {
		if i >= len(letters) {
			return NewAxisError(i, "letters", fmt.Errorf("%w: no letter for this axes", ErrSizeMismatch))
		}
		a.letter = "(" + letters[i] + ")"
		a.letterXY = xy
	}
	return nil
}

// CreateInset adds an inset axes to parent, spanning xLoc and yLoc in
// fractions of the parent's data area. Non-nil limits are widened by the
// usual 5% gap.
func (f *Figure) CreateInset(parent *Axes, xLoc, yLoc [2]float64, xLim, yLim []float64) (*Axes, error) {
	if xLoc[0] >= xLoc[1] || yLoc[0] >= yLoc[1] {
		return nil, NewAxisError(parent.index, "inset", fmt.Errorf("%w: empty inset location", ErrInvalidOption))
	}
	in := newAxes(-1, f.theme)
	if xLim != nil {
		if err := checkLim(parent.index, xLim); err != nil {
			return nil, err
		}
		in.SetXLim(xLim[0], xLim[1])
	}
	if yLim != nil {
		if err := checkLim(parent.index, yLim); err != nil {
			return nil, err
		}
		in.SetYLim(yLim[0], yLim[1])
	}
	parent.insets = append(parent.insets, &inset{axes: in, x: xLoc, y: yLoc})
	return in, nil
}

// prepare runs the decoration pipeline in the order a saved figure needs.
func (f *Figure) prepare() error {
	if err := f.UpdateSingleProps(); err != nil {
		return err
	}
	if err := f.UpdateListProps(); err != nil {
		return err
	}
	if err := f.AnnotateOutliers(); err != nil {
		return err
	}
	f.ApplyHatchPatterns()
	if err := f.AddLegend(); err != nil {
		return err
	}
	if err := f.RotateXLabels(); err != nil {
		return err
	}
	return f.AnnotateLetters()
}

// Save decorates the figure and writes one file per format to
// <OutPath>/<Filename>.<format>.
func (f *Figure) Save(so SaveOptions) error {
	done := logging.LogOperationStart(f.logger, "save")
	defer done()

	if so.Filename == "" {
		return fmt.Errorf("%w: filename is required", ErrInvalidOption)
	}
	if so.OutPath == "" {
		so.OutPath = "."
	}
	if len(so.Formats) == 0 {
		so.Formats = []string{"png"}
	}
	if so.DPI <= 0 {
		so.DPI = DefaultSaveOptions().DPI
	}
	if err := os.MkdirAll(so.OutPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.prepare(); err != nil {
		return err
	}
	for _, format := range so.Formats {
		path := filepath.Join(so.OutPath, so.Filename+"."+strings.ToLower(format))
		if err := f.saveFile(path, format, so.DPI, so.Transparent); err != nil {
			return err
		}
		f.logger.Info().Str("path", path).Msg("Figure saved")
	}
	return nil
}

func (f *Figure) saveFile(path, format string, dpi int, transparent bool) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return f.write(file, format, dpi, transparent)
}

// Render decorates the figure and writes it to w in the given format.
func (f *Figure) Render(w io.Writer, format string, dpi int, transparent bool) error {
	if err := f.prepare(); err != nil {
		return err
	}
	return f.write(w, format, dpi, transparent)
}

func (f *Figure) write(w io.Writer, format string, dpi int, transparent bool) error {
	width := vg.Length(f.opts.Width) * vg.Inch
	height := vg.Length(f.opts.Height) * vg.Inch
	c, err := newCanvas(format, width, height, dpi, transparent)
	if err != nil {
		return err
	}
	f.draw(draw.New(c), transparent)
	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", format, err)
	}
	return nil
}

func (f *Figure) draw(dc draw.Canvas, transparent bool) {
	if transparent {
		for _, a := range f.axes {
			bg := a.plot.BackgroundColor
			a.plot.BackgroundColor = nil
			defer func(a *Axes, bg color.Color) { a.plot.BackgroundColor = bg }(a, bg)
		}
	}

	pad := vg.Points(8)
	tiles := draw.Tiles{
		Rows:      f.opts.Rows,
		Cols:      f.opts.Cols,
		PadTop:    pad,
		PadBottom: pad,
		PadLeft:   pad,
		PadRight:  pad,
		PadX:      2 * pad,
		PadY:      2 * pad,
	}
	if f.opts.TwinX {
		tiles.PadRight += twinPad
		tiles.PadX += twinPad
	}

	plots := make([][]*plot.Plot, f.opts.Rows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, f.opts.Cols)
		for c := range plots[r] {
			a := f.axes[r*f.opts.Cols+c]
			a.applyLimits()
			sanitizeRange(&a.plot.X)
			sanitizeRange(&a.plot.Y)
			plots[r][c] = a.plot
		}
	}
	canvases := plot.Align(plots, tiles, dc)
	for r := range canvases {
		for c := range canvases[r] {
			f.axes[r*f.opts.Cols+c].draw(canvases[r][c])
		}
	}
}

// newCanvas returns a canvas for one output format. Raster formats honour
// dpi and transparency.
func newCanvas(format string, w, h vg.Length, dpi int, transparent bool) (vg.CanvasWriterTo, error) {
	format = strings.ToLower(format)
	switch format {
	case "png", "jpg", "jpeg", "tif", "tiff":
		var bg color.Color = color.White
		if transparent {
			bg = color.Transparent
		}
		c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi), vgimg.UseBackgroundColor(bg))
		switch format {
		case "png":
			return vgimg.PngCanvas{Canvas: c}, nil
		case "jpg", "jpeg":
			return vgimg.JpegCanvas{Canvas: c}, nil
		default:
			return vgimg.TiffCanvas{Canvas: c}, nil
		}
	case "pdf", "svg", "eps":
		return draw.NewFormattedCanvas(w, h, format)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}
