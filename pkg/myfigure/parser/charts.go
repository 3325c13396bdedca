package parser

import (
	"archive/zip"
	"encoding/xml"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/ukaji3/myfigure-go/pkg/myfigure/models"
)

// ChartTypeMap maps OOXML chart element tags to chart type names.
var ChartTypeMap = map[string]string{
	"lineChart":      "Line",
	"line3DChart":    "3DLine",
	"barChart":       "Bar",
	"bar3DChart":     "3DBar",
	"areaChart":      "Area",
	"area3DChart":    "3DArea",
	"pieChart":       "Pie",
	"pie3DChart":     "3DPie",
	"doughnutChart":  "Doughnut",
	"scatterChart":   "XYScatter",
	"bubbleChart":    "Bubble",
	"radarChart":     "Radar",
	"surfaceChart":   "Surface",
	"surface3DChart": "3DSurface",
	"stockChart":     "Stock",
	"ofPieChart":     "PieOfPie",
}

// chartRef is a chart found in a drawing part.
type chartRef struct {
	name      string
	chartPath string
}

// ExtractCharts extracts the charts of every worksheet of an xlsx file.
// Values come from the chart caches; ResolveChart fills in what the caches
// lack.
func ExtractCharts(xlsxPath string) (map[string][]models.Chart, error) {
	r, err := zip.OpenReader(xlsxPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return extractCharts(&r.Reader), nil
}

func extractCharts(r *zip.Reader) map[string][]models.Chart {
	pkg := openPackage{r: r}
	result := make(map[string][]models.Chart)
	for sheetName, sheetPath := range pkg.sheetParts() {
		drawingPath := pkg.drawingPart(sheetPath)
		if drawingPath == "" {
			continue
		}
		var charts []models.Chart
		for _, ref := range chartRefsFromDrawing(r, drawingPath) {
			chartXML, err := readZipFile(r, ref.chartPath)
			if err != nil || chartXML == nil {
				continue
			}
			charts = append(charts, parseChartXML(chartXML, ref.name))
		}
		if len(charts) > 0 {
			result[sheetName] = charts
		}
	}
	return result
}

// chartRefsFromDrawing returns the charts anchored in a drawing part, in
// document order.
func chartRefsFromDrawing(r *zip.Reader, drawingPath string) []chartRef {
	drawingXML, err := readZipFile(r, drawingPath)
	if err != nil || drawingXML == nil {
		return nil
	}
	frames := parseDrawingForCharts(drawingXML)
	if len(frames) == 0 {
		return nil
	}

	relsXML, err := readZipFile(r, relsPathFor(drawingPath))
	if err != nil || relsXML == nil {
		return nil
	}
	targets := parseRelationships(relsXML, "chart")

	var result []chartRef
	for _, f := range frames {
		if target, ok := targets[f.rID]; ok {
			result = append(result, chartRef{
				name:      f.name,
				chartPath: resolveRelativePath(target, path.Dir(drawingPath)),
			})
		}
	}
	return result
}

// graphicFrame is a chart frame of a drawing.
type graphicFrame struct {
	rID  string
	name string
}

// parseDrawingForCharts parses drawing XML to find chart frames.
func parseDrawingForCharts(data []byte) []graphicFrame {
	var result []graphicFrame
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "graphicFrame" {
			if f := parseGraphicFrame(decoder); f.rID != "" {
				result = append(result, f)
			}
		}
	}

	return result
}

// parseGraphicFrame parses graphicFrame content.
func parseGraphicFrame(decoder *xml.Decoder) graphicFrame {
	var f graphicFrame
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "cNvPr":
				f.name = attrValue(t, "name")
			case "chart":
				f.rID = attrValue(t, "id")
			}
		case xml.EndElement:
			depth--
		}
	}

	return f
}

// chartGroup is one chart type element of a plot area.
type chartGroup struct {
	chartType string
	barDir    string
	grouping  string
	series    []models.ChartSeries
}

// parseChartXML parses chart XML content.
func parseChartXML(data []byte, name string) models.Chart {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	chart := models.Chart{Name: name}

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "chart" {
			parseChartElement(decoder, &chart)
		}
	}

	if chart.ChartType == "" {
		chart.ChartType = "unknown"
	}
	return chart
}

// parseChartElement parses c:chart element.
func parseChartElement(decoder *xml.Decoder, chart *models.Chart) {
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "title":
				chart.Title = parseChartTitle(decoder)
				depth--
			case "plotArea":
				parsePlotArea(decoder, chart)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
}

// parseChartTitle parses chart title element.
func parseChartTitle(decoder *xml.Decoder) string {
	var parts []string
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "t" {
				if txt, err := readElementText(decoder); err == nil {
					parts = append(parts, txt)
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return strings.TrimSpace(strings.Join(parts, ""))
}

// parsePlotArea parses plot area element. A bar chart group wins over other
// groups of a combination chart; the first value axis gives the y scaling.
func parsePlotArea(decoder *xml.Decoder, chart *models.Chart) {
	var groups []chartGroup
	seenValAx := false
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if ct, ok := ChartTypeMap[t.Name.Local]; ok {
				g := parseChartGroup(decoder)
				g.chartType = ct
				groups = append(groups, g)
				depth--
			} else if t.Name.Local == "valAx" && !seenValAx {
				chart.YAxisTitle, chart.YAxisRange = parseValueAxis(decoder)
				seenValAx = true
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	if len(groups) == 0 {
		return
	}
	pick := groups[0]
	for _, g := range groups {
		if g.chartType == "Bar" || g.chartType == "3DBar" {
			pick = g
			break
		}
	}
	chart.ChartType = pick.chartType
	chart.BarDirection = pick.barDir
	chart.Grouping = pick.grouping
	chart.Series = pick.series
}

// parseChartGroup parses the series and bar layout of a chart type element.
func parseChartGroup(decoder *xml.Decoder) chartGroup {
	var g chartGroup
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			// Only direct children: ser elements carry their own nested tags.
			if depth != 2 {
				continue
			}
			switch t.Name.Local {
			case "barDir":
				g.barDir = attrValue(t, "val")
			case "grouping":
				g.grouping = attrValue(t, "val")
			case "ser":
				g.series = append(g.series, parseSingleSeries(decoder))
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return g
}

// parseSingleSeries parses a single series element.
func parseSingleSeries(decoder *xml.Decoder) models.ChartSeries {
	var s models.ChartSeries
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			// Data labels carry tx elements of their own.
			if depth != 2 {
				continue
			}
			switch t.Name.Local {
			case "tx":
				s.Name, s.NameRange = parseSeriesName(decoder)
				depth--
			case "cat":
				src := parseDataSource(decoder)
				s.XRange, s.Categories = src.ref, src.points
				depth--
			case "val":
				src := parseDataSource(decoder)
				s.YRange, s.Values = src.ref, toFloats(src.points)
				depth--
			case "errBars":
				eb := parseErrorBars(decoder)
				if s.ErrorBars == nil && eb.errDir != "x" {
					s.ErrorBars = &eb.ErrorBars
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	ComputeErrors(&s)
	return s
}

// parseSeriesName parses series name from tx element.
func parseSeriesName(decoder *xml.Decoder) (name, nameRange string) {
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "f":
				if txt, err := readElementText(decoder); err == nil {
					nameRange = strings.TrimSpace(txt)
				}
				depth--
			case "v":
				if txt, err := readElementText(decoder); err == nil {
					name = strings.TrimSpace(txt)
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return
}

// dataSource is a cell reference with its cached points.
type dataSource struct {
	ref    string
	points []string
	// cached is false when the source carries no point cache.
	cached bool
}

// parseDataSource parses cat, val, plus and minus elements: a numRef,
// strRef, numLit or strLit holding a formula and a cache of points.
func parseDataSource(decoder *xml.Decoder) dataSource {
	var src dataSource
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "f":
				if txt, err := readElementText(decoder); err == nil {
					src.ref = strings.TrimSpace(txt)
				}
				depth--
			case "ptCount":
				if n, err := strconv.Atoi(attrValue(t, "val")); err == nil && n >= 0 {
					src.cached = true
					if n > len(src.points) {
						src.points = append(src.points, make([]string, n-len(src.points))...)
					}
				}
			case "pt":
				idx, err := strconv.Atoi(attrValue(t, "idx"))
				v := parsePointValue(decoder)
				depth--
				if err != nil || idx < 0 {
					continue
				}
				if idx >= len(src.points) {
					src.points = append(src.points, make([]string, idx+1-len(src.points))...)
				}
				src.points[idx] = v
				src.cached = true
			}
		case xml.EndElement:
			depth--
		}
	}

	if !src.cached {
		src.points = nil
	}
	return src
}

// parsePointValue returns the text of the v child of a pt element.
func parsePointValue(decoder *xml.Decoder) string {
	var v string
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "v" {
				if txt, err := readElementText(decoder); err == nil {
					v = strings.TrimSpace(txt)
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return v
}

// errorBarsElement is a parsed errBars element.
type errorBarsElement struct {
	models.ErrorBars
	errDir string
}

// parseErrorBars parses an errBars element.
func parseErrorBars(decoder *xml.Decoder) errorBarsElement {
	var eb errorBarsElement
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "errDir":
				eb.errDir = attrValue(t, "val")
			case "errValType":
				eb.Type = attrValue(t, "val")
			case "val":
				if v, err := strconv.ParseFloat(attrValue(t, "val"), 64); err == nil {
					eb.Value = v
				}
			case "plus":
				src := parseDataSource(decoder)
				eb.PlusRange, eb.Plus = src.ref, toFloats(src.points)
				depth--
			case "minus":
				src := parseDataSource(decoder)
				eb.MinusRange, eb.Minus = src.ref, toFloats(src.points)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	if eb.Type == "" {
		eb.Type = "fixedVal"
	}
	return eb
}

// parseValueAxis parses value axis element.
func parseValueAxis(decoder *xml.Decoder) (title string, axisRange []float64) {
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "title":
				title = parseChartTitle(decoder)
				depth--
			case "scaling":
				axisRange = parseAxisScaling(decoder)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return
}

// parseAxisScaling parses axis scaling element. The range is only returned
// when both bounds are fixed.
func parseAxisScaling(decoder *xml.Decoder) []float64 {
	var min, max *float64
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "min":
				if v, err := strconv.ParseFloat(attrValue(t, "val"), 64); err == nil {
					min = &v
				}
			case "max":
				if v, err := strconv.ParseFloat(attrValue(t, "val"), 64); err == nil {
					max = &v
				}
			}
		case xml.EndElement:
			depth--
		}
	}

	if min != nil && max != nil {
		return []float64{*min, *max}
	}
	return nil
}

// ComputeErrors derives the per-value errors of s from its error bars and
// values. Custom error bars use the plus values, or the minus values when no
// plus values are given.
func ComputeErrors(s *models.ChartSeries) {
	eb := s.ErrorBars
	if eb == nil {
		s.Errors = nil
		return
	}
	n := len(s.Values)
	errs := make([]float64, n)
	switch eb.Type {
	case "fixedVal":
		for i := range errs {
			errs[i] = eb.Value
		}
	case "percentage":
		for i, v := range s.Values {
			errs[i] = math.Abs(v) * eb.Value / 100
		}
	case "stdDev":
		sd, _ := stdDev(s.Values)
		for i := range errs {
			errs[i] = eb.Value * sd
		}
	case "stdErr":
		sd, k := stdDev(s.Values)
		for i := range errs {
			if k > 0 {
				errs[i] = sd / math.Sqrt(float64(k))
			}
		}
	case "cust":
		src := eb.Plus
		if len(src) == 0 {
			src = eb.Minus
		}
		for i := range errs {
			if i < len(src) && !math.IsNaN(src[i]) {
				errs[i] = math.Abs(src[i])
			}
		}
	default:
		s.Errors = nil
		return
	}
	s.Errors = errs
}

// stdDev returns the population standard deviation of the finite values and
// their count.
func stdDev(vals []float64) (float64, int) {
	var sum float64
	k := 0
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		k++
	}
	if k == 0 {
		return 0, 0
	}
	mean := sum / float64(k)
	var ss float64
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(k)), k
}

// toFloats converts cached point texts to numbers; blanks and text become NaN.
func toFloats(points []string) []float64 {
	if points == nil {
		return nil
	}
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = toFloat(parseValue(p))
	}
	return out
}
