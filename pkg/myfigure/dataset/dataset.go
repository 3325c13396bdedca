// Package dataset reads grouped bar data (one row per bar) from CSV files or
// xlsx sheets and lays it out as bar series.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/myfigure-go/pkg/myfigure"
)

// Row is one bar.
type Row struct {
	// Axis is the zero-based axes the bar is drawn on.
	Axis   int
	Group  string
	Series string
	Mean   float64
	Std    float64
	// Significant is false for bars masked as not significant.
	Significant bool
}

// Table is a parsed data table.
type Table struct {
	Rows []Row
	// HasStd and HasSignificance tell whether the optional columns exist.
	HasStd          bool
	HasSignificance bool
}

// Load reads a .csv file, or the given sheet of an .xlsx file (the first
// sheet when sheet is empty).
func Load(path, sheet string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return loadSheet(path, sheet)
	}
	return nil, fmt.Errorf("%w: unsupported data file %s", myfigure.ErrInvalidFormat, filepath.Base(path))
}

// ReadCSV parses a CSV data table.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", myfigure.ErrInvalidFormat, err)
	}
	return FromRecords(records)
}

func loadSheet(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", myfigure.ErrInvalidFormat, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	return FromRecords(rows)
}

// FromRecords builds a table from a header row and data rows. The group,
// series and mean columns are required; std, significant and axis are
// optional. Header names are case-insensitive and blank rows are skipped.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty data table", myfigure.ErrInvalidFormat)
	}
	cols := make(map[string]int)
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"group", "series", "mean"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", myfigure.ErrInvalidFormat, required)
		}
	}

	_, hasStd := cols["std"]
	_, hasSig := cols["significant"]
	t := &Table{HasStd: hasStd, HasSignificance: hasSig}

	for n, rec := range records[1:] {
		line := n + 2
		if blank(rec) {
			continue
		}
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		row := Row{Group: field("group"), Series: field("series"), Significant: true}
		var err error
		if row.Mean, err = parseNumber(field("mean")); err != nil {
			return nil, fmt.Errorf("%w: row %d: mean: %v", myfigure.ErrInvalidFormat, line, err)
		}
		if s := field("std"); s != "" {
			if row.Std, err = parseNumber(s); err != nil {
				return nil, fmt.Errorf("%w: row %d: std: %v", myfigure.ErrInvalidFormat, line, err)
			}
		}
		if s := field("significant"); s != "" {
			if row.Significant, err = parseFlag(s); err != nil {
				return nil, fmt.Errorf("%w: row %d: significant: %v", myfigure.ErrInvalidFormat, line, err)
			}
		}
		if s := field("axis"); s != "" {
			if row.Axis, err = strconv.Atoi(s); err != nil || row.Axis < 0 {
				return nil, fmt.Errorf("%w: row %d: axis must be a non-negative integer", myfigure.ErrInvalidFormat, line)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Axes returns the number of axes the table addresses.
func (t *Table) Axes() int {
	n := 0
	for _, r := range t.Rows {
		if r.Axis+1 > n {
			n = r.Axis + 1
		}
	}
	return n
}

// Build lays the rows of one axes out as categories (groups in order of
// first appearance) and one series per series name. Bars missing from the
// table are NaN.
func (t *Table) Build(axis int) ([]string, []myfigure.BarSeries) {
	var categories, names []string
	groupIdx := make(map[string]int)
	seriesIdx := make(map[string]int)
	for _, r := range t.Rows {
		if r.Axis != axis {
			continue
		}
		if _, ok := groupIdx[r.Group]; !ok {
			groupIdx[r.Group] = len(categories)
			categories = append(categories, r.Group)
		}
		if _, ok := seriesIdx[r.Series]; !ok {
			seriesIdx[r.Series] = len(names)
			names = append(names, r.Series)
		}
	}

	series := make([]myfigure.BarSeries, len(names))
	for i, name := range names {
		s := myfigure.BarSeries{Label: name, Values: make([]float64, len(categories))}
		for g := range s.Values {
			s.Values[g] = math.NaN()
		}
		if t.HasStd {
			s.Errors = make([]float64, len(categories))
		}
		if t.HasSignificance {
			s.Significant = make([]bool, len(categories))
			for g := range s.Significant {
				s.Significant[g] = true
			}
		}
		series[i] = s
	}

	for _, r := range t.Rows {
		if r.Axis != axis {
			continue
		}
		s, g := &series[seriesIdx[r.Series]], groupIdx[r.Group]
		s.Values[g] = r.Mean
		if s.Errors != nil {
			s.Errors[g] = r.Std
		}
		if s.Significant != nil {
			s.Significant[g] = r.Significant
		}
	}
	return categories, series
}

func parseNumber(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y", "*":
		return true, nil
	case "no", "n", "ns", "n.s.":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
