package myfigure

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input file is not a valid xlsx format.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// ErrInvalidOption indicates an option value is out of its domain.
var ErrInvalidOption = errors.New("invalid option")

// ErrSizeMismatch indicates a per-axis option whose size does not match the number of axes.
var ErrSizeMismatch = errors.New("size mismatch")

// ErrUnsupportedFormat indicates an output format the backend cannot write.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// AxisError represents an error while configuring a single axes.
type AxisError struct {
	Axis      int
	Component string // "limits", "ticks", "bars", "letters", "inset", ...
	Err       error
}

func (e *AxisError) Error() string {
	return fmt.Sprintf("axes %d (%s): %v", e.Axis, e.Component, e.Err)
}

func (e *AxisError) Unwrap() error {
	return e.Err
}

// NewAxisError creates a new AxisError.
func NewAxisError(axis int, component string, err error) *AxisError {
	return &AxisError{
		Axis:      axis,
		Component: component,
		Err:       err,
	}
}

// ChartError represents an error while analyzing a workbook chart.
type ChartError struct {
	SheetName string
	ChartName string
	Err       error
}

func (e *ChartError) Error() string {
	return fmt.Sprintf("chart %q in sheet %q: %v", e.ChartName, e.SheetName, e.Err)
}

func (e *ChartError) Unwrap() error {
	return e.Err
}
