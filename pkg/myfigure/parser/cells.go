package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/myfigure-go/pkg/myfigure/models"
)

// ResolveChart fills the series names, categories, values and custom error
// values the chart caches lack by reading the referenced cells.
func ResolveChart(f *excelize.File, chart *models.Chart) error {
	for i := range chart.Series {
		if err := resolveSeries(f, &chart.Series[i]); err != nil {
			return fmt.Errorf("series %d: %w", i, err)
		}
	}
	return nil
}

func resolveSeries(f *excelize.File, s *models.ChartSeries) error {
	if s.Name == "" && s.NameRange != "" {
		vals, err := ReadRange(f, s.NameRange)
		if err != nil {
			return err
		}
		s.Name = strings.Join(vals, " ")
	}
	if s.Categories == nil && s.XRange != "" {
		vals, err := ReadRange(f, s.XRange)
		if err != nil {
			return err
		}
		s.Categories = vals
	}
	if s.Values == nil && s.YRange != "" {
		vals, err := ReadRange(f, s.YRange)
		if err != nil {
			return err
		}
		s.Values = toFloats(vals)
	}
	if eb := s.ErrorBars; eb != nil && eb.Type == "cust" {
		if eb.Plus == nil && eb.PlusRange != "" {
			vals, err := ReadRange(f, eb.PlusRange)
			if err != nil {
				return err
			}
			eb.Plus = toFloats(vals)
		}
		if eb.Minus == nil && eb.MinusRange != "" {
			vals, err := ReadRange(f, eb.MinusRange)
			if err != nil {
				return err
			}
			eb.Minus = toFloats(vals)
		}
	}
	ComputeErrors(s)
	return nil
}

// ReadRange returns the raw values of the cells of a chart reference
// such as Sheet1!$B$2:$B$4, 'My data'!$C$3 or (Sheet1!$A$1,Sheet1!$A$3), in
// row-major order.
func ReadRange(f *excelize.File, ref string) ([]string, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "=")
	if strings.HasPrefix(ref, "(") && strings.HasSuffix(ref, ")") {
		ref = ref[1 : len(ref)-1]
	}

	var out []string
	for _, part := range splitAreas(ref) {
		sheet, area, err := splitRef(part)
		if err != nil {
			return nil, err
		}
		cells, err := areaCells(area)
		if err != nil {
			return nil, fmt.Errorf("invalid reference %q: %w", part, err)
		}
		for _, cell := range cells {
			v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// splitAreas splits a union reference on the commas outside quoted sheet names.
func splitAreas(ref string) []string {
	var parts []string
	quoted := false
	start := 0
	for i, ch := range ref {
		switch ch {
		case '\'':
			quoted = !quoted
		case ',':
			if !quoted {
				parts = append(parts, ref[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, ref[start:])
}

// splitRef splits Sheet!A1:B2 into the sheet name and the area.
func splitRef(ref string) (sheet, area string, err error) {
	i := strings.LastIndex(ref, "!")
	if i < 0 {
		return "", "", fmt.Errorf("reference %q has no sheet name", ref)
	}
	sheet, area = ref[:i], ref[i+1:]
	if strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") && len(sheet) >= 2 {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	return sheet, strings.ReplaceAll(area, "$", ""), nil
}

// areaCells lists the cell names of an area like B2:C4, row by row.
func areaCells(area string) ([]string, error) {
	from, to, found := strings.Cut(area, ":")
	if !found {
		to = from
	}
	c1, r1, err := excelize.CellNameToCoordinates(from)
	if err != nil {
		return nil, err
	}
	c2, r2, err := excelize.CellNameToCoordinates(to)
	if err != nil {
		return nil, err
	}
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	if r1 > r2 {
		r1, r2 = r2, r1
	}

	var cells []string
	for r := r1; r <= r2; r++ {
		for c := c1; c <= c2; c++ {
			name, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return nil, err
			}
			cells = append(cells, name)
		}
	}
	return cells, nil
}

// parseValue attempts to parse a string value as a number.
// Returns int64 for integers, float64 for decimals, or the original string.
func parseValue(s string) interface{} {
	// Try integer first
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	// Try float
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	// Return as string
	return s
}

// toFloat converts a parsed cell value to a number; text becomes NaN.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return math.NaN()
}
