// Package outliers labels bars whose values fall outside the visible
// vertical range of a subplot.
//
// The input contract is a sequence of (position, mean, std) samples plus a
// visible range. Subplot adapts anything that can report rendered bar and
// error-bar geometry to that contract.
package outliers

import (
	"math"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ukaji3/myfigure-go/pkg/myfigure/models"
)

// Layout constants, as fractions of the axes height.
const (
	LowAnchor  = 0.02
	HighAnchor = 0.98
	Step       = 0.04
	// Proximity is the x separation, per x group, under which labels stack.
	Proximity = 0.15
	// FontSize is the annotation font size in points.
	FontSize = 9
	// BoxAlpha is the opacity of the label background.
	BoxAlpha = 0.7
)

// Subplot is the rendering surface the annotator reads from and writes to.
type Subplot interface {
	// Bars returns the bar rectangles in rendering order.
	Bars() []models.Bar
	// ErrorSegments returns the error-bar segments in rendering order,
	// or nil when the subplot has no error-bar collection.
	ErrorSegments() []models.ErrorSegment
	// YRange returns the visible vertical range.
	YRange() models.VisibleRange
	// Groups returns the number of x groups (major ticks).
	Groups() int
	// Annotate places a text annotation.
	Annotate(models.Annotation)
}

// Config configures outlier annotation.
type Config struct {
	// DecimalPlaces is the precision of mean and std in labels.
	DecimalPlaces int
	// Masked indicates the subplot renders every bar twice
	// (data bars followed by a mask layer).
	Masked bool
	// Logger receives anomaly reports. The zero value discards them.
	Logger zerolog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{DecimalPlaces: 2, Logger: zerolog.Nop()}
}

// Annotate adds one text annotation per out-of-range bar of sp.
// It is not idempotent: every call adds a fresh set of annotations.
func Annotate(sp Subplot, cfg Config) {
	for _, rec := range Detect(sp, cfg) {
		sp.Annotate(models.Annotation{
			Text:     rec.Label,
			AnchorX:  rec.X,
			AnchorY:  0,
			X:        rec.X,
			Y:        rec.Y,
			FontSize: FontSize,
			BoxAlpha: BoxAlpha,
		})
	}
}

// Detect returns the outlier records of sp with their label positions,
// without annotating anything.
func Detect(sp Subplot, cfg Config) []models.OutlierRecord {
	bars := sp.Bars()
	if len(bars) == 0 {
		return nil
	}
	samples := Extract(bars, sp.ErrorSegments(), cfg.Masked)
	return Find(samples, sp.YRange(), sp.Groups(), cfg)
}

// Extract recovers samples from bar and error-bar geometry. Error segment i
// pairs with bar i; bars without a segment get a zero std. Masked subplots
// render every bar twice, data bars first, so only the first half is read.
func Extract(bars []models.Bar, segs []models.ErrorSegment, masked bool) []models.Sample {
	n := len(bars)
	if masked {
		n /= 2
	}

	samples := make([]models.Sample, n)
	for i := 0; i < n; i++ {
		std := 0.0
		if i < len(segs) {
			std = segs[i].HalfExtent()
		}
		samples[i] = models.Sample{
			Index: i,
			X:     bars[i].Center(),
			Mean:  bars[i].Height,
			Std:   std,
		}
	}
	return samples
}

// Find classifies samples against r, formats their labels and lays them out.
func Find(samples []models.Sample, r models.VisibleRange, groups int, cfg Config) []models.OutlierRecord {
	var records []models.OutlierRecord
	for _, s := range samples {
		if !r.Excludes(s.Mean) {
			continue
		}
		side, ok := Classify(s.Mean, r)
		if !ok {
			cfg.Logger.Warn().
				Float64("mean", s.Mean).
				Float64("min", r.Min).
				Float64("max", r.Max).
				Msg("Out-of-range value is neither high nor low")
			continue
		}
		rec := models.OutlierRecord{
			Mean:  s.Mean,
			Std:   s.Std,
			Side:  side,
			X:     s.X,
			Label: FormatLabel(s.Mean, s.Std, cfg.DecimalPlaces),
		}
		if groups > 0 {
			rec.GroupIndex = s.Index % groups
			rec.BarIndex = s.Index / groups
		} else {
			rec.GroupIndex = s.Index
		}
		records = append(records, rec)
	}

	Layout(records, groups)
	return records
}

// Classify returns the side of v relative to r. Boundary values and NaN are
// not outliers.
func Classify(v float64, r models.VisibleRange) (models.Side, bool) {
	switch {
	case math.IsInf(v, 1):
		return models.SideHigh, true
	case math.IsInf(v, -1):
		return models.SideLow, true
	case v > r.Max:
		return models.SideHigh, true
	case v < r.Min:
		return models.SideLow, true
	}
	return "", false
}

// FormatLabel formats mean (and std, when nonzero) with the given precision.
// Infinite means are written as "inf" and "-inf".
func FormatLabel(mean, std float64, decimals int) string {
	if math.IsInf(mean, 1) {
		return "inf"
	}
	if math.IsInf(mean, -1) {
		return "-inf"
	}
	if decimals < 0 {
		decimals = 0
	}
	label := strconv.FormatFloat(mean, 'f', decimals, 64)
	if std != 0 && !math.IsNaN(std) {
		label += " ± " + strconv.FormatFloat(std, 'f', decimals, 64)
	}
	return label
}

// Layout assigns the Y fraction of every record. Each side is handled on its
// own, in ascending x order: the first record sits at the side's anchor and
// each record closer than Proximity*groups to its predecessor is placed one
// Step further from the axis edge than that predecessor.
func Layout(records []models.OutlierRecord, groups int) {
	if groups < 1 {
		groups = 1
	}
	threshold := Proximity * float64(groups)

	for _, side := range []struct {
		side   models.Side
		anchor float64
		step   float64
	}{
		{models.SideLow, LowAnchor, Step},
		{models.SideHigh, HighAnchor, -Step},
	} {
		var idx []int
		for i := range records {
			if records[i].Side == side.side {
				idx = append(idx, i)
			}
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return records[idx[a]].X < records[idx[b]].X
		})

		run := 0
		for k, i := range idx {
			if k > 0 && records[i].X-records[idx[k-1]].X < threshold {
				run++
			} else {
				run = 0
			}
			records[i].Y = side.anchor + side.step*float64(run)
		}
	}
}
