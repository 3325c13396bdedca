package myfigure

import "fmt"

// broadcastValue expands a per-axis property to n values. It returns nil when
// the property is unset.
func broadcastValue[T any](vals []T, n int, name string) ([]T, error) {
	switch len(vals) {
	case 0:
		return nil, nil
	case n:
		return vals, nil
	case 1:
		out := make([]T, n)
		for i := range out {
			out[i] = vals[0]
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: the size of the property %q does not match the number of axes", ErrSizeMismatch, name)
}

// broadcastList expands a per-axis list property to n lists. Per-axis lists
// must all have the same size.
func broadcastList[T any](vals [][]T, n int, name string) ([][]T, error) {
	switch len(vals) {
	case 0:
		return nil, nil
	case n:
		for _, v := range vals {
			if len(v) != len(vals[0]) {
				return nil, fmt.Errorf("%w: all inner lists in %q must have the same size", ErrSizeMismatch, name)
			}
		}
		return vals, nil
	case 1:
		out := make([][]T, n)
		for i := range out {
			out[i] = vals[0]
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: the structure of %q does not match the number of axes", ErrSizeMismatch, name)
}

// at returns vals[i], or the zero value when the property is unset.
func at[T any](vals []T, i int) (T, bool) {
	var zero T
	if vals == nil {
		return zero, false
	}
	return vals[i], true
}
