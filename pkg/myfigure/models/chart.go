package models

// ChartSeries represents one series of a workbook bar chart.
type ChartSeries struct {
	// Name is the series display name.
	Name string `json:"name"`
	// NameRange is the range reference for the series name.
	NameRange string `json:"name_range,omitempty"`
	// XRange is the range reference for category labels.
	XRange string `json:"x_range,omitempty"`
	// YRange is the range reference for values.
	YRange string `json:"y_range,omitempty"`
	// Categories are the cached or resolved category labels.
	Categories []string `json:"categories,omitempty"`
	// Values are the cached or resolved bar values.
	Values []float64 `json:"values"`
	// Errors are per-value standard deviations (nil if the series has no error bars).
	Errors []float64 `json:"errors,omitempty"`
	// ErrorBars describes how Errors are derived.
	ErrorBars *ErrorBars `json:"error_bars,omitempty"`
}

// ErrorBars describes the error bars of a chart series.
type ErrorBars struct {
	// Type is the error amount type: fixedVal, percentage, stdDev, stdErr or cust.
	Type string `json:"type"`
	// Value is the amount of fixedVal, percentage and stdDev error bars.
	Value float64 `json:"value,omitempty"`
	// PlusRange and MinusRange reference the values of custom error bars.
	PlusRange  string `json:"plus_range,omitempty"`
	MinusRange string `json:"minus_range,omitempty"`
	// Plus and Minus hold the custom error values.
	Plus  []float64 `json:"-"`
	Minus []float64 `json:"-"`
}

// Chart represents a workbook bar chart including series and axis scaling.
type Chart struct {
	// Name is the chart name.
	Name string `json:"name"`
	// ChartType is the chart type (e.g., Bar, Line).
	ChartType string `json:"chart_type"`
	// BarDirection is "col" for vertical bars and "bar" for horizontal ones.
	BarDirection string `json:"bar_direction,omitempty"`
	// Grouping is the bar grouping: clustered, stacked, percentStacked or standard.
	Grouping string `json:"grouping,omitempty"`
	// Title is the chart title.
	Title string `json:"title,omitempty"`
	// YAxisTitle is the Y-axis title.
	YAxisTitle string `json:"y_axis_title,omitempty"`
	// YAxisRange is the fixed Y-axis range [min, max] when available.
	YAxisRange []float64 `json:"y_axis_range,omitempty"`
	// Series is the list of series included in the chart.
	Series []ChartSeries `json:"series"`
}

// IsBar reports whether the chart draws bars.
func (c Chart) IsBar() bool {
	return c.ChartType == "Bar" || c.ChartType == "3DBar"
}

// IsStacked reports whether the bars of a group are stacked rather than
// drawn side by side.
func (c Chart) IsStacked() bool {
	return c.Grouping == "stacked" || c.Grouping == "percentStacked"
}

// Groups returns the number of x groups in the chart.
func (c Chart) Groups() int {
	n := 0
	for _, s := range c.Series {
		if len(s.Values) > n {
			n = len(s.Values)
		}
	}
	return n
}
