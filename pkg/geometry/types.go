// Package geometry provides the axis-aligned box type and interval overlap
// helpers used for glyph, staff and division boxes.
package geometry

import (
	"fmt"
	"image"
)

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// BBox is an axis-aligned box in page pixel coordinates.
// X and Y ranges are half-open: [XMin, XMax) x [YMin, YMax).
type BBox struct {
	XMin int `json:"xmin"`
	XMax int `json:"xmax"`
	YMin int `json:"ymin"`
	YMax int `json:"ymax"`
}

// NewBBox creates a new BBox in (xmin, xmax, ymin, ymax) order.
func NewBBox(xmin, xmax, ymin, ymax int) BBox {
	return BBox{XMin: xmin, XMax: xmax, YMin: ymin, YMax: ymax}
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() int {
	return b.XMax - b.XMin
}

// Height returns the vertical extent of the box.
func (b BBox) Height() int {
	return b.YMax - b.YMin
}

// Area returns Width*Height, or 0 for degenerate boxes.
func (b BBox) Area() int {
	if b.Empty() {
		return 0
	}
	return b.Width() * b.Height()
}

// Empty reports whether the box encloses no pixels.
func (b BBox) Empty() bool {
	return b.XMin >= b.XMax || b.YMin >= b.YMax
}

// Center returns the integer center of the box, truncated toward zero.
func (b BBox) Center() PointInt {
	return PointInt{X: (b.XMin + b.XMax) / 2, Y: (b.YMin + b.YMax) / 2}
}

// Translate returns the box shifted by (dx, dy).
func (b BBox) Translate(dx, dy int) BBox {
	return BBox{XMin: b.XMin + dx, XMax: b.XMax + dx, YMin: b.YMin + dy, YMax: b.YMax + dy}
}

// Clamp returns the part of the box that lies inside bounds, and whether
// any clipping happened. A box fully outside bounds clamps to an empty box.
func (b BBox) Clamp(bounds BBox) (BBox, bool) {
	c := BBox{
		XMin: max(b.XMin, bounds.XMin),
		XMax: min(b.XMax, bounds.XMax),
		YMin: max(b.YMin, bounds.YMin),
		YMax: min(b.YMax, bounds.YMax),
	}
	if c.Empty() {
		c = BBox{XMin: bounds.XMin, XMax: bounds.XMin, YMin: bounds.YMin, YMax: bounds.YMin}
	}
	return c, c != b
}

// Rectangle converts the box to an image.Rectangle.
func (b BBox) Rectangle() image.Rectangle {
	return image.Rect(b.XMin, b.YMin, b.XMax, b.YMax)
}

// FromRectangle converts an image.Rectangle to a BBox.
func FromRectangle(r image.Rectangle) BBox {
	return BBox{XMin: r.Min.X, XMax: r.Max.X, YMin: r.Min.Y, YMax: r.Max.Y}
}

func (b BBox) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", b.XMin, b.XMax, b.YMin, b.YMax)
}
