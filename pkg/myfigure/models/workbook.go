package models

// ChartReport holds the outliers detected in one chart.
type ChartReport struct {
	Chart Chart `json:"chart"`
	// Range is the visible range the chart was checked against.
	Range    VisibleRange    `json:"range"`
	Outliers []OutlierRecord `json:"outliers"`
}

// WorkbookReport represents the workbook-level container with per-sheet reports.
type WorkbookReport struct {
	// BookName is the workbook file name (no path).
	BookName string `json:"book_name"`
	// Sheets maps sheet name to its chart reports.
	Sheets map[string][]ChartReport `json:"sheets"`
}

// OutlierCount returns the number of outliers across all sheets.
func (w WorkbookReport) OutlierCount() int {
	n := 0
	for _, reports := range w.Sheets {
		for _, r := range reports {
			n += len(r.Outliers)
		}
	}
	return n
}
