package outliers

import (
	"bytes"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/myfigure-go/pkg/myfigure/models"
)

type fakeSubplot struct {
	bars        []models.Bar
	segs        []models.ErrorSegment
	yr          models.VisibleRange
	groups      int
	annotations []models.Annotation
}

func (f *fakeSubplot) Bars() []models.Bar                   { return f.bars }
func (f *fakeSubplot) ErrorSegments() []models.ErrorSegment { return f.segs }
func (f *fakeSubplot) YRange() models.VisibleRange          { return f.yr }
func (f *fakeSubplot) Groups() int                          { return f.groups }
func (f *fakeSubplot) Annotate(a models.Annotation)         { f.annotations = append(f.annotations, a) }

// centered builds a bar of width 0.2 centered on x.
func centered(x, h float64) models.Bar {
	return models.Bar{X: x - 0.1, Width: 0.2, Height: h}
}

func segment(x, mean, std float64) models.ErrorSegment {
	return models.ErrorSegment{
		A: models.Point{X: x, Y: mean - std},
		B: models.Point{X: x, Y: mean + std},
	}
}

func TestAnnotateNoBars(t *testing.T) {
	sp := &fakeSubplot{yr: models.VisibleRange{Min: 0, Max: 1}, groups: 3}
	Annotate(sp, DefaultConfig())
	assert.Empty(t, sp.annotations)
}

func TestAnnotateSkipsInRangeBars(t *testing.T) {
	sp := &fakeSubplot{
		bars:   []models.Bar{centered(0, 0), centered(1, 5), centered(2, 10)},
		yr:     models.VisibleRange{Min: 0, Max: 10},
		groups: 3,
	}
	Annotate(sp, DefaultConfig())
	assert.Empty(t, sp.annotations, "boundary values are not outliers")
}

func TestAnnotateInfinity(t *testing.T) {
	sp := &fakeSubplot{
		bars:   []models.Bar{centered(0, math.Inf(1)), centered(1, math.Inf(-1)), centered(2, 3)},
		yr:     models.VisibleRange{Min: 0, Max: 10},
		groups: 3,
	}
	recs := Detect(sp, DefaultConfig())
	require.Len(t, recs, 2)

	assert.Equal(t, "inf", recs[0].Label)
	assert.Equal(t, models.SideHigh, recs[0].Side)
	assert.Equal(t, "-inf", recs[1].Label)
	assert.Equal(t, models.SideLow, recs[1].Side)
}

func TestAnnotateLabelWithStd(t *testing.T) {
	sp := &fakeSubplot{
		bars:   []models.Bar{centered(0, 12.345)},
		segs:   []models.ErrorSegment{segment(0, 12.345, 0.456)},
		yr:     models.VisibleRange{Min: 0, Max: 10},
		groups: 1,
	}
	Annotate(sp, DefaultConfig())
	require.Len(t, sp.annotations, 1)

	a := sp.annotations[0]
	assert.Equal(t, "12.35 ± 0.46", a.Text)
	assert.InDelta(t, 0.0, a.X, 1e-12)
	assert.InDelta(t, 0.0, a.AnchorX, 1e-12)
	assert.Equal(t, 0.0, a.AnchorY)
	assert.InDelta(t, HighAnchor, a.Y, 1e-12)
	assert.Equal(t, float64(FontSize), a.FontSize)
	assert.Equal(t, BoxAlpha, a.BoxAlpha)
}

func TestAnnotateIsNotIdempotent(t *testing.T) {
	sp := &fakeSubplot{
		bars:   []models.Bar{centered(0, 20), centered(1, -5)},
		yr:     models.VisibleRange{Min: 0, Max: 10},
		groups: 2,
	}
	Annotate(sp, DefaultConfig())
	Annotate(sp, DefaultConfig())

	// Each call adds its own annotations; callers annotate once per render.
	assert.Len(t, sp.annotations, 4)
	assert.Equal(t, sp.annotations[0], sp.annotations[2])
	assert.Equal(t, sp.annotations[1], sp.annotations[3])
}

func TestFormatLabel(t *testing.T) {
	tests := []struct {
		name     string
		mean     float64
		std      float64
		decimals int
		expected string
	}{
		{"plain", 12.0, 0, 2, "12.00"},
		{"with std", 12.5, 1.25, 1, "12.5 ± 1.2"},
		{"nan std ignored", -3.14159, math.NaN(), 2, "-3.14"},
		{"zero decimals", 99.5, 0, 0, "100"},
		{"half to even", 0.125, 0, 2, "0.12"},
		{"inf", math.Inf(1), 3, 2, "inf"},
		{"negative inf", math.Inf(-1), 3, 2, "-inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatLabel(tt.mean, tt.std, tt.decimals))
		})
	}
}

func TestClassify(t *testing.T) {
	r := models.VisibleRange{Min: -1, Max: 1}
	tests := []struct {
		v       float64
		side    models.Side
		outlier bool
	}{
		{2, models.SideHigh, true},
		{-2, models.SideLow, true},
		{1, "", false},
		{-1, "", false},
		{0, "", false},
		{math.NaN(), "", false},
		{math.Inf(1), models.SideHigh, true},
		{math.Inf(-1), models.SideLow, true},
	}

	for _, tt := range tests {
		side, ok := Classify(tt.v, r)
		assert.Equal(t, tt.outlier, ok, "Classify(%v)", tt.v)
		assert.Equal(t, tt.side, side, "Classify(%v)", tt.v)
	}
}

func TestLayoutStacksCloseHighOutliers(t *testing.T) {
	recs := []models.OutlierRecord{
		{Side: models.SideHigh, X: 0.2},
		{Side: models.SideHigh, X: 0},
		{Side: models.SideHigh, X: 0.1},
	}
	Layout(recs, 1)

	assert.InDelta(t, 0.98, recs[1].Y, 1e-9)
	assert.InDelta(t, 0.94, recs[2].Y, 1e-9)
	assert.InDelta(t, 0.90, recs[0].Y, 1e-9)
}

func TestLayoutStacksCloseLowOutliers(t *testing.T) {
	recs := []models.OutlierRecord{
		{Side: models.SideLow, X: 0},
		{Side: models.SideLow, X: 0.1},
		{Side: models.SideLow, X: 2},
		{Side: models.SideLow, X: 2.05},
	}
	Layout(recs, 1)

	assert.InDelta(t, 0.02, recs[0].Y, 1e-9)
	assert.InDelta(t, 0.06, recs[1].Y, 1e-9)
	assert.InDelta(t, 0.02, recs[2].Y, 1e-9, "a gap resets the run")
	assert.InDelta(t, 0.06, recs[3].Y, 1e-9)
}

func TestLayoutThresholdScalesWithGroups(t *testing.T) {
	recs := []models.OutlierRecord{
		{Side: models.SideHigh, X: 0},
		{Side: models.SideHigh, X: 0.4},
	}
	Layout(recs, 1)
	assert.InDelta(t, 0.98, recs[1].Y, 1e-9)

	Layout(recs, 3)
	assert.InDelta(t, 0.94, recs[1].Y, 1e-9)
}

func TestLayoutSidesAreIndependent(t *testing.T) {
	low := models.OutlierRecord{Side: models.SideLow, X: 0.05}

	alone := []models.OutlierRecord{low}
	Layout(alone, 1)

	mixed := []models.OutlierRecord{
		{Side: models.SideHigh, X: 0},
		low,
		{Side: models.SideHigh, X: 0.1},
		{Side: models.SideHigh, X: 0.12},
	}
	Layout(mixed, 1)

	assert.Equal(t, alone[0].Y, mixed[1].Y)
	assert.InDelta(t, 0.98, mixed[0].Y, 1e-9)
}

func TestExtract(t *testing.T) {
	bars := []models.Bar{centered(0, 1), centered(1, 2), centered(2, 3)}
	segs := []models.ErrorSegment{segment(0, 1, 0.5), segment(1, 2, 0.25)}

	samples := Extract(bars, segs, false)
	require.Len(t, samples, 3)
	assert.InDelta(t, 0.5, samples[0].Std, 1e-12)
	assert.InDelta(t, 0.25, samples[1].Std, 1e-12)
	assert.Equal(t, 0.0, samples[2].Std, "no segment means zero std")
	assert.InDelta(t, 2.0, samples[2].X, 1e-12)
	assert.Equal(t, 3.0, samples[2].Mean)
}

func TestExtractWithoutErrorBars(t *testing.T) {
	samples := Extract([]models.Bar{centered(0, 1)}, nil, false)
	require.Len(t, samples, 1)
	assert.Equal(t, 0.0, samples[0].Std)
}

func TestExtractMaskedReadsFirstHalf(t *testing.T) {
	bars := []models.Bar{
		centered(0, 20), centered(1, 2),
		centered(0, 20), centered(1, 2),
	}
	segs := []models.ErrorSegment{segment(0, 20, 1), segment(1, 2, 1)}

	assert.Len(t, Extract(bars, segs, true), 2)
	assert.Len(t, Extract(bars, nil, true), 2)
	assert.Len(t, Extract(bars, nil, false), 4)
}

func TestExtractUnmaskedKeepsBarsWithoutSegments(t *testing.T) {
	// errors on the first two bars only: twice as many bars as segments
	bars := []models.Bar{
		centered(0, 1), centered(1, 2),
		centered(0, 50), centered(1, -50),
	}
	segs := []models.ErrorSegment{segment(0, 1, 0.1), segment(1, 2, 0.2)}

	samples := Extract(bars, segs, false)
	require.Len(t, samples, 4)
	assert.InDelta(t, 0.2, samples[1].Std, 1e-12)
	assert.Equal(t, 50.0, samples[2].Mean)
	assert.Equal(t, 0.0, samples[2].Std)
	assert.Equal(t, -50.0, samples[3].Mean)
	assert.Equal(t, 0.0, samples[3].Std)
}

func TestDetectIndexesSeriesMajor(t *testing.T) {
	// two series over three groups, rendered series by series
	sp := &fakeSubplot{
		bars: []models.Bar{
			centered(0, 1), centered(1, 1), centered(2, 50),
			centered(0.2, 1), centered(1.2, -50), centered(2.2, 1),
		},
		yr:     models.VisibleRange{Min: 0, Max: 10},
		groups: 3,
	}
	recs := Detect(sp, DefaultConfig())
	require.Len(t, recs, 2)

	assert.Equal(t, 2, recs[0].GroupIndex)
	assert.Equal(t, 0, recs[0].BarIndex)
	assert.Equal(t, 1, recs[1].GroupIndex)
	assert.Equal(t, 1, recs[1].BarIndex)
}

func TestFindLogsNothingForRegularInput(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Logger = zerolog.New(&buf)

	samples := []models.Sample{{X: 0, Mean: 100}, {X: 1, Mean: math.NaN()}}
	recs := Find(samples, models.VisibleRange{Min: 0, Max: 1}, 2, cfg)

	assert.Len(t, recs, 1)
	assert.Empty(t, buf.String())
}
