package models

// Side tells whether an outlier exceeds the upper or the lower visible bound.
type Side string

const (
	// SideHigh marks values above the visible range.
	SideHigh Side = "H"
	// SideLow marks values below the visible range.
	SideLow Side = "L"
)

// VisibleRange is the currently configured vertical axis range.
type VisibleRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Excludes reports whether v lies strictly outside the range.
func (r VisibleRange) Excludes(v float64) bool {
	return v < r.Min || v > r.Max
}

// OutlierRecord describes one bar whose mean falls outside the visible range.
type OutlierRecord struct {
	// GroupIndex is the x group the bar belongs to.
	GroupIndex int `json:"group_index"`
	// BarIndex is the position of the bar within its group.
	BarIndex int     `json:"bar_index"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Side     Side    `json:"side"`
	// X is the bar center in data coordinates.
	X float64 `json:"x"`
	// Y is the label position as a fraction of the axes height.
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

// Annotation is a text label placed with a blended transform: X values are
// data coordinates, Y values are fractions of the axes height.
type Annotation struct {
	Text string `json:"text"`
	// AnchorX and AnchorY locate the annotated point.
	AnchorX float64 `json:"anchor_x"`
	AnchorY float64 `json:"anchor_y"`
	// X and Y locate the text.
	X float64 `json:"x"`
	Y float64 `json:"y"`
	// FontSize is in points.
	FontSize float64 `json:"font_size"`
	// BoxAlpha is the opacity of the white box drawn behind the text.
	BoxAlpha float64 `json:"box_alpha"`
}
