package myfigure

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/text"

	"github.com/ukaji3/myfigure-go/pkg/myfigure/models"
)

func newTestFigure(t *testing.T, modify func(o *Options)) *Figure {
	t.Helper()
	o := DefaultOptions()
	o.Width, o.Height = 3, 3
	if modify != nil {
		modify(&o)
	}
	f, err := New(o)
	require.NoError(t, err)
	return f
}

func twoSeries() ([]string, []BarSeries) {
	return []string{"a", "b", "c"}, []BarSeries{
		{Label: "control", Values: []float64{1, 2, 3}, Errors: []float64{0.1, 0.2, 0.3}},
		{Label: "treated", Values: []float64{4, 5, 6}, Errors: []float64{0.4, 0.5, 0.6}},
	}
}

func TestAdjustLims(t *testing.T) {
	assert.InDeltaSlice(t, []float64{-0.5, 10.5}, adjustLims(0, 10), 1e-12)
	assert.InDeltaSlice(t, []float64{-1.1, 1.1}, adjustLims(-1, 1), 1e-12)
}

func TestBarGeometry(t *testing.T) {
	b := barGeometry(0, 0, 2)
	assert.InDelta(t, -0.4, b.X, 1e-12)
	assert.InDelta(t, 0.4, b.Width, 1e-12)

	b = barGeometry(1, 1, 2)
	assert.InDelta(t, 1.0, b.X, 1e-12)
	assert.InDelta(t, 1.2, b.Center(), 1e-12)

	b = barGeometry(2, 0, 1)
	assert.InDelta(t, 2.0, b.Center(), 1e-12)
}

func TestBarGroupsSeriesMajorOrder(t *testing.T) {
	f := newTestFigure(t, nil)
	ax := f.Ax(0)
	categories, series := twoSeries()
	require.NoError(t, ax.BarGroups(categories, series))

	bars := ax.Bars()
	require.Len(t, bars, 6)
	assert.Equal(t, 3, ax.Groups())
	assert.InDelta(t, barGeometry(1, 0, 2).X, bars[1].X, 1e-12)
	assert.InDelta(t, barGeometry(0, 1, 2).X, bars[3].X, 1e-12)
	assert.Equal(t, 4.0, bars[3].Height)

	segs := ax.ErrorSegments()
	require.Len(t, segs, 6)
	assert.InDelta(t, 0.5, segs[4].HalfExtent(), 1e-12)
	assert.InDelta(t, bars[4].Center(), segs[4].A.X, 1e-12)
}

func TestBarGroupsWithoutErrors(t *testing.T) {
	f := newTestFigure(t, nil)
	ax := f.Ax(0)
	require.NoError(t, ax.BarGroups([]string{"a", "b"}, []BarSeries{{Label: "s", Values: []float64{1, 2}}}))
	assert.Nil(t, ax.ErrorSegments())
	assert.Len(t, ax.Bars(), 2)
}

func TestBarGroupsSizeMismatch(t *testing.T) {
	f := newTestFigure(t, nil)
	err := f.Ax(0).BarGroups([]string{"a", "b"}, []BarSeries{{Label: "s", Values: []float64{1}}})
	require.ErrorIs(t, err, ErrSizeMismatch)

	var axErr *AxisError
	require.True(t, errors.As(err, &axErr))
	assert.Equal(t, 0, axErr.Axis)
	assert.Equal(t, "bars", axErr.Component)
}

func TestLimitsAreWidened(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.YLim = [][]float64{{0, 10}}
	})
	ax := f.Ax(0)
	require.NoError(t, ax.BarGroups([]string{"a"}, []BarSeries{{Values: []float64{50}}}))

	ax.applyLimits()
	assert.InDelta(t, -0.5, ax.YRange().Min, 1e-12)
	assert.InDelta(t, 10.5, ax.YRange().Max, 1e-12)
}

func TestInvalidLimits(t *testing.T) {
	o := DefaultOptions()
	o.YLim = [][]float64{{0, 1, 2}}
	_, err := New(o)
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestPerAxisLabels(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.Cols = 2
		o.XLab = []string{"time"}
		o.YLab = []string{"left", "right"}
	})
	assert.Equal(t, "time", f.Ax(0).Plot().X.Label.Text)
	assert.Equal(t, "time", f.Ax(1).Plot().X.Label.Text)
	assert.Equal(t, "left", f.Ax(0).Plot().Y.Label.Text)
	assert.Equal(t, "right", f.Ax(1).Plot().Y.Label.Text)

	o := DefaultOptions()
	o.Cols = 2
	o.YLab = []string{"a", "b", "c"}
	_, err := New(o)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestTickLabels(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.YTicks = [][]float64{{0, 5, 10}}
		o.YTickLabels = [][]string{{"low", "mid", "high"}}
	})
	ticks := f.Ax(0).Plot().Y.Tick.Marker.Ticks(0, 10)
	require.Len(t, ticks, 3)
	assert.Equal(t, "mid", ticks[1].Label)
	assert.Equal(t, 5.0, ticks[1].Value)

	err := f.Ax(0).SetYTicks([]float64{1, 2}, []string{"one"})
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestAnnotateOutliers(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.YLim = [][]float64{{0, 10}}
		o.AnnotateOutliers = []bool{true}
	})
	ax := f.Ax(0)
	require.NoError(t, ax.BarGroups([]string{"a", "b", "c"}, []BarSeries{
		{Values: []float64{5, 20, -3}, Errors: []float64{1, 2, 0.5}},
	}))

	require.NoError(t, f.AnnotateOutliers())
	ann := ax.Annotations()
	require.Len(t, ann, 2)

	byText := map[string]models.Annotation{}
	for _, a := range ann {
		byText[a.Text] = a
	}
	high, ok := byText["20.00 ± 2.00"]
	require.True(t, ok, "annotations: %v", ann)
	assert.InDelta(t, 1.0, high.X, 1e-12)
	assert.InDelta(t, 0.98, high.Y, 1e-12)

	low, ok := byText["-3.00 ± 0.50"]
	require.True(t, ok, "annotations: %v", ann)
	assert.InDelta(t, 2.0, low.X, 1e-12)
	assert.InDelta(t, 0.02, low.Y, 1e-12)

	require.NoError(t, f.AnnotateOutliers())
	assert.Len(t, ax.Annotations(), 4)
}

func TestAnnotateOutliersDisabled(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.YLim = [][]float64{{0, 1}}
	})
	require.NoError(t, f.Ax(0).BarGroups([]string{"a"}, []BarSeries{{Values: []float64{5}}}))
	require.NoError(t, f.AnnotateOutliers())
	assert.Empty(t, f.Ax(0).Annotations())
}

func TestInfiniteBarIsAnOutlierWithAutoRange(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.AnnotateOutliers = []bool{true}
	})
	require.NoError(t, f.Ax(0).BarGroups([]string{"a", "b"}, []BarSeries{
		{Values: []float64{math.Inf(1), 3}, Errors: []float64{0, 1}},
	}))
	require.NoError(t, f.AnnotateOutliers())
	ann := f.Ax(0).Annotations()
	require.Len(t, ann, 1)
	assert.Equal(t, "inf", ann[0].Text)
}

func TestMaskedAxes(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.MaskedInsignificantData = []bool{true}
		o.YLim = [][]float64{{0, 5}}
		o.AnnotateOutliers = []bool{true}
	})
	ax := f.Ax(0)
	categories, series := twoSeries()
	series[1].Significant = []bool{true, false, true}
	require.NoError(t, ax.BarGroups(categories, series))

	assert.Len(t, ax.Bars(), 12, "data bars followed by the mask layer")
	assert.Len(t, ax.ErrorSegments(), 6)

	require.NoError(t, f.AnnotateOutliers())
	require.Len(t, ax.Annotations(), 1)
	assert.Equal(t, "6.00 ± 0.60", ax.Annotations()[0].Text)

	require.NoError(t, f.AddLegend())
	assert.Equal(t, []string{"control", "treated"}, ax.legend.Labels())

	f.ApplyHatchPatterns()
	hatches := ax.Hatches()
	require.Len(t, hatches, 12)
	assert.Equal(t, []string{"", "", "", "//", "//", "//"}, hatches[:6])
	assert.Equal(t, []string{"", "", "", "", "", ""}, hatches[6:])
}

func TestBarsWithoutErrorsAddedLaterAreAnnotated(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.YLim = [][]float64{{0, 10}}
		o.AnnotateOutliers = []bool{true}
	})
	ax := f.Ax(0)
	require.NoError(t, ax.BarGroups([]string{"a", "b"}, []BarSeries{
		{Label: "first", Values: []float64{1, 2}, Errors: []float64{0.1, 0.2}},
	}))
	require.NoError(t, ax.BarGroups([]string{"a", "b"}, []BarSeries{
		{Label: "second", Values: []float64{50, -50}},
	}))
	require.Len(t, ax.Bars(), 4)
	require.Len(t, ax.ErrorSegments(), 2)

	require.NoError(t, f.AnnotateOutliers())
	var texts []string
	for _, an := range ax.Annotations() {
		texts = append(texts, an.Text)
	}
	assert.ElementsMatch(t, []string{"50.00", "-50.00"}, texts)
}

func TestMaskedAxesWithSeveralBarCalls(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.MaskedInsignificantData = []bool{true}
		o.YLim = [][]float64{{0, 10}}
		o.AnnotateOutliers = []bool{true}
	})
	ax := f.Ax(0)
	require.NoError(t, ax.BarGroups([]string{"a", "b"}, []BarSeries{
		{Label: "s1", Values: []float64{1, 2}, Significant: []bool{true, false}},
	}))
	require.NoError(t, ax.BarGroups([]string{"a", "b"}, []BarSeries{
		{Label: "s2", Values: []float64{50, 3}},
	}))

	bars := ax.Bars()
	require.Len(t, bars, 8)
	assert.Equal(t, []float64{1, 2, 50, 3}, []float64{bars[0].Height, bars[1].Height, bars[2].Height, bars[3].Height},
		"data bars of every call come before the masks")

	require.NoError(t, f.AnnotateOutliers())
	require.Len(t, ax.Annotations(), 1)
	assert.Equal(t, "50.00", ax.Annotations()[0].Text)

	require.NoError(t, f.AddLegend())
	assert.Equal(t, []string{"s1", "s2"}, ax.legend.Labels())

	f.ApplyHatchPatterns()
	assert.Equal(t, []string{"", "", "//", "//", "", "", "", ""}, ax.Hatches())
}

func TestApplyHatchPatternsSkipsAxesWithoutBars(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.Cols = 2
	})
	require.NoError(t, f.Ax(0).Line("line", []float64{0, 1}, []float64{0, 1}))
	categories, series := twoSeries()
	require.NoError(t, f.Ax(1).BarGroups(categories, series))

	f.ApplyHatchPatterns()
	assert.Empty(t, f.Ax(0).Hatches())
	assert.Equal(t, []string{"", "", "", "//", "//", "//"}, f.Ax(1).Hatches())
}

func TestAddLegend(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.Cols = 2
		o.Legend = []bool{true, false}
		o.LegendLoc = []string{"Lower Left"}
		o.LegendNcols = []int{2}
		o.LegendTitle = []string{"groups"}
		o.LegendBboxXY = [][]float64{{1.05, 1}}
	})
	for _, ax := range f.Axes() {
		require.NoError(t, ax.Line("l1", []float64{0, 1}, []float64{0, 1}))
		require.NoError(t, ax.Scatter("s1", []float64{0, 1}, []float64{1, 0}))
	}
	require.NoError(t, f.AddLegend())

	l := f.Ax(0).legend
	require.NotNil(t, l)
	assert.Equal(t, []string{"l1", "s1"}, l.Labels())
	assert.Equal(t, [2]float64{0, 0}, l.loc)
	assert.Equal(t, 2, l.ncols)
	assert.Equal(t, "groups", l.title)
	assert.Equal(t, []float64{1.05, 1}, l.bbox)
	assert.Nil(t, f.Ax(1).legend)
}

func TestTwinLegendEntriesFollowPrimary(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.TwinX = true
		o.YtLab = []string{"rate"}
		o.YtLim = [][]float64{{0, 100}}
	})
	ax := f.Ax(0)
	require.NotNil(t, ax.Twin())
	require.NoError(t, ax.BarGroups([]string{"a", "b"}, []BarSeries{{Label: "count", Values: []float64{1, 2}}}))
	require.NoError(t, ax.Twin().Line("rate", []float64{0, 1}, []float64{20, 80}))

	require.NoError(t, f.AddLegend())
	assert.Equal(t, []string{"count", "rate"}, ax.legend.Labels())
	assert.Equal(t, "rate", ax.Twin().Plot().Y.Label.Text)
	assert.InDelta(t, -5.0, ax.Twin().YRange().Min, 1e-12)

	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf, "png", 50, false))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestRotateXLabels(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.Cols = 2
		o.XTickLabelsRotation = []float64{45, 0}
	})
	require.NoError(t, f.RotateXLabels())

	sty := f.Ax(0).Plot().X.Tick.Label
	assert.InDelta(t, math.Pi/4, sty.Rotation, 1e-12)
	assert.Equal(t, text.XRight, sty.XAlign)
	assert.Equal(t, 0.0, f.Ax(1).Plot().X.Tick.Label.Rotation)
}

func TestAnnotateLetters(t *testing.T) {
	f := newTestFigure(t, func(o *Options) {
		o.Cols = 2
		o.AnnotateLetters = []string{"a", "b"}
	})
	require.NoError(t, f.AnnotateLetters())
	assert.Equal(t, "(a)", f.Ax(0).letter)
	assert.Equal(t, "(b)", f.Ax(1).letter)
	assert.Equal(t, [2]float64{-0.15, -0.15}, f.Ax(1).letterXY)

	f = newTestFigure(t, func(o *Options) {
		o.AnnotateLetters = []string{"x"}
		o.AnnotateLettersXY = []float64{0.1, 0.9}
	})
	require.NoError(t, f.AnnotateLetters())
	assert.Equal(t, [2]float64{0.1, 0.9}, f.Ax(0).letterXY)
}

func TestCreateInset(t *testing.T) {
	f := newTestFigure(t, nil)
	ax := f.Ax(0)
	require.NoError(t, ax.Line("main", []float64{0, 10}, []float64{0, 10}))

	in, err := f.CreateInset(ax, [2]float64{0.4, 0.95}, [2]float64{0.4, 0.95}, []float64{0, 0.2}, []float64{0, 0.2})
	require.NoError(t, err)
	require.NoError(t, in.Line("zoom", []float64{0, 0.2}, []float64{0, 0.2}))
	assert.Equal(t, -1, in.Index())
	in.applyLimits()
	assert.InDelta(t, -0.01, in.YRange().Min, 1e-12)
	assert.InDelta(t, 0.21, in.YRange().Max, 1e-12)
	require.Len(t, ax.insets, 1)

	_, err = f.CreateInset(ax, [2]float64{0.8, 0.6}, [2]float64{0.4, 0.6}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidOption)

	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf, "svg", 72, false))
	assert.Contains(t, buf.String(), "<svg")
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	f := newTestFigure(t, func(o *Options) {
		o.YLim = [][]float64{{0, 4}}
		o.AnnotateOutliers = []bool{true}
		o.AnnotateLetters = []string{"a"}
	})
	categories, series := twoSeries()
	require.NoError(t, f.Ax(0).BarGroups(categories, series))

	so := SaveOptions{Filename: "bars", OutPath: dir, Formats: []string{"png", "pdf"}, DPI: 50, Transparent: true}
	require.NoError(t, f.Save(so))

	png, err := os.ReadFile(filepath.Join(dir, "bars.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
	pdf, err := os.ReadFile(filepath.Join(dir, "bars.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	// Values 5 and 6 are above the range; every save adds them again.
	assert.Len(t, f.Ax(0).Annotations(), 2)
	require.NoError(t, f.Save(so))
	assert.Len(t, f.Ax(0).Annotations(), 4)
}

func TestSaveRequiresFilename(t *testing.T) {
	f := newTestFigure(t, nil)
	err := f.Save(SaveOptions{OutPath: t.TempDir()})
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestRenderUnsupportedFormat(t *testing.T) {
	f := newTestFigure(t, nil)
	var buf bytes.Buffer
	err := f.Render(&buf, "bmp", 72, false)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
