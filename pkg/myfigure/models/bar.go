// Package models defines data structures shared by figure construction,
// outlier detection and workbook analysis.
package models

// Point is a position in data coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bar represents a rendered bar rectangle.
type Bar struct {
	// X is the left edge of the bar in data coordinates.
	X float64 `json:"x"`
	// Width is the bar width in data coordinates.
	Width float64 `json:"width"`
	// Height is the value the bar represents (its mean).
	Height float64 `json:"height"`
}

// Center returns the x position of the bar center.
func (b Bar) Center() float64 {
	return b.X + b.Width/2
}

// ErrorSegment represents a rendered error bar spanning one standard
// deviation either side of a bar's mean. A is the lower end, B the upper.
type ErrorSegment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// HalfExtent returns half the vertical extent of the segment.
func (s ErrorSegment) HalfExtent() float64 {
	return (s.B.Y - s.A.Y) / 2
}

// Sample is a bar value recovered from rendered geometry.
type Sample struct {
	// Index is the position of the bar in rendering order.
	Index int `json:"index"`
	// X is the bar center.
	X float64 `json:"x"`
	// Mean is the bar height.
	Mean float64 `json:"mean"`
	// Std is the standard deviation, 0 when no error bar is present.
	Std float64 `json:"std"`
}
