package staff

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every *FormatError.
	ErrFormat = errors.New("format error")
	// ErrGeometry matches every *GeometryError.
	ErrGeometry = errors.New("geometry error")
)

// FormatError reports a malformed or unexpected record field.
type FormatError struct {
	Field  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("format error: %s", e.Reason)
	}
	return fmt.Sprintf("format error: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrFormat) succeed.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// GeometryError reports a staff model that is not rectified.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return "geometry error: " + e.Reason
}

// Is makes errors.Is(err, ErrGeometry) succeed.
func (e *GeometryError) Is(target error) bool {
	return target == ErrGeometry
}

func formatErrorf(field, format string, args ...any) *FormatError {
	return &FormatError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
