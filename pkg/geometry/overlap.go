package geometry

import (
	"errors"
	"fmt"
)

// ErrInvalidInterval is returned when an interval does not satisfy lo < hi.
var ErrInvalidInterval = errors.New("invalid interval")

// Interval is a 1-D range [Lo, Hi).
type Interval struct {
	Lo, Hi int
}

// XInterval returns the horizontal extent of the box.
func (b BBox) XInterval() Interval {
	return Interval{Lo: b.XMin, Hi: b.XMax}
}

// YInterval returns the vertical extent of the box.
func (b BBox) YInterval() Interval {
	return Interval{Lo: b.YMin, Hi: b.YMax}
}

// OverlapLength returns max(0, min(a.Hi, b.Hi) - max(a.Lo, b.Lo)).
// Both intervals must be non-degenerate.
func OverlapLength(a, b Interval) (int, error) {
	if a.Lo >= a.Hi {
		return 0, fmt.Errorf("%w: (%d,%d)", ErrInvalidInterval, a.Lo, a.Hi)
	}
	if b.Lo >= b.Hi {
		return 0, fmt.Errorf("%w: (%d,%d)", ErrInvalidInterval, b.Lo, b.Hi)
	}
	return span(a, b), nil
}

// OverlapArea returns the area shared by two boxes. Degenerate boxes share
// nothing, so the result is 0 rather than an error.
func OverlapArea(a, b BBox) int {
	if a.Empty() || b.Empty() {
		return 0
	}
	return span(a.XInterval(), b.XInterval()) * span(a.YInterval(), b.YInterval())
}

func span(a, b Interval) int {
	return max(0, min(a.Hi, b.Hi)-max(a.Lo, b.Lo))
}
