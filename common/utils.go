package common

import "fmt"

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// DefaultLabel returns label when it is set, otherwise a diagnostic label synthesized from the resource kind and id.
//
// Parameters:
//   - label: the caller supplied label, possibly empty
//   - kind: human readable resource kind, e.g. "Buffer"
//   - id: the resource id
//
// Returns:
//   - string: label, or "<kind>: <id>"
func DefaultLabel(label, kind string, id ResourceID) string {
	if label != "" {
		return label
	}
	return fmt.Sprintf("%s: %d", kind, id)
}
