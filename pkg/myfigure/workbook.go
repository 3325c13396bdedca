package myfigure

import (
	"archive/zip"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/myfigure-go/internal/logging"
	"github.com/ukaji3/myfigure-go/pkg/myfigure/models"
	"github.com/ukaji3/myfigure-go/pkg/myfigure/outliers"
	"github.com/ukaji3/myfigure-go/pkg/myfigure/parser"
)

// AnalyzeWorkbook finds the bars of every bar chart in an xlsx workbook whose
// values fall outside the chart's value axis range.
func AnalyzeWorkbook(path string, opts AnalyzeOptions) (*models.WorkbookReport, error) {
	logger := logging.GetLogger("workbook")
	done := logging.LogOperationStart(logger, "analyze")
	defer done()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer f.Close()

	charts, err := parser.ExtractCharts(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return nil, err
	}

	report := &models.WorkbookReport{
		BookName: filepath.Base(path),
		Sheets:   make(map[string][]models.ChartReport),
	}
	for _, sheet := range f.GetSheetList() {
		var reports []models.ChartReport
		for _, chart := range charts[sheet] {
			rep, ok, err := analyzeChart(f, chart, opts, logger)
			if err != nil {
				return nil, &ChartError{SheetName: sheet, ChartName: chart.Name, Err: err}
			}
			if !ok {
				continue
			}
			if len(rep.Outliers) == 0 && !opts.ShouldIncludeEmpty() {
				continue
			}
			reports = append(reports, rep)
		}
		if len(reports) > 0 {
			report.Sheets[sheet] = reports
		}
	}

	logger.Info().
		Str("book", report.BookName).
		Int("outliers", report.OutlierCount()).
		Msg("Workbook analyzed")
	return report, nil
}

// analyzeChart reports false for charts that are not analyzed.
func analyzeChart(f *excelize.File, chart models.Chart, opts AnalyzeOptions, logger zerolog.Logger) (models.ChartReport, bool, error) {
	log := logger.With().Str("chart", chart.Name).Logger()
	if !chart.IsBar() {
		log.Debug().Str("type", chart.ChartType).Msg("Skipping chart without bars")
		return models.ChartReport{}, false, nil
	}
	if chart.IsStacked() {
		log.Warn().Str("grouping", chart.Grouping).Msg("Skipping stacked bar chart")
		return models.ChartReport{}, false, nil
	}
	if err := parser.ResolveChart(f, &chart); err != nil {
		return models.ChartReport{}, false, err
	}

	sp := newChartSubplot(chart)
	recs := outliers.Detect(sp, outliers.Config{
		DecimalPlaces: opts.DecimalPlaces,
		Logger:        log,
	})
	return models.ChartReport{
		Chart:    chart,
		Range:    sp.yRange,
		Outliers: recs,
	}, true, nil
}

// chartSubplot lays the series of a workbook chart out as grouped bars the
// way Axes.BarGroups would render them.
type chartSubplot struct {
	bars     []models.Bar
	segments []models.ErrorSegment
	yRange   models.VisibleRange
	groups   int
}

var _ outliers.Subplot = (*chartSubplot)(nil)

func newChartSubplot(chart models.Chart) *chartSubplot {
	sp := &chartSubplot{groups: chart.Groups()}
	withErrors := false
	for _, s := range chart.Series {
		if s.Errors != nil {
			withErrors = true
		}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	n := len(chart.Series)
	for si, s := range chart.Series {
		for g := 0; g < sp.groups; g++ {
			v, e := math.NaN(), 0.0
			if g < len(s.Values) {
				v = s.Values[g]
			}
			if g < len(s.Errors) && !math.IsNaN(s.Errors[g]) {
				e = s.Errors[g]
			}
			b := barGeometry(g, si, n)
			b.Height = v
			sp.bars = append(sp.bars, b)
			if withErrors {
				sp.segments = append(sp.segments, errorSegment(b.Center(), v, e))
			}
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				lo = math.Min(lo, math.Min(0, v-e))
				hi = math.Max(hi, math.Max(0, v+e))
			}
		}
	}

	switch {
	case len(chart.YAxisRange) == 2:
		sp.yRange = models.VisibleRange{Min: chart.YAxisRange[0], Max: chart.YAxisRange[1]}
	case lo <= hi:
		sp.yRange = models.VisibleRange{Min: lo, Max: hi}
	}
	return sp
}

// errorSegment spans e either side of v. Non-finite values get a segment
// around zero so the std survives.
func errorSegment(x, v, e float64) models.ErrorSegment {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return models.ErrorSegment{
		A: models.Point{X: x, Y: v - e},
		B: models.Point{X: x, Y: v + e},
	}
}

func (c *chartSubplot) Bars() []models.Bar                   { return c.bars }
func (c *chartSubplot) ErrorSegments() []models.ErrorSegment { return c.segments }
func (c *chartSubplot) YRange() models.VisibleRange          { return c.yRange }
func (c *chartSubplot) Groups() int                          { return c.groups }

// Annotate is a no-op: workbook analysis only reports records.
func (c *chartSubplot) Annotate(models.Annotation) {}
