package geometry

import (
	"image"
	"math"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Size holds pixel dimensions of a raster or canvas region.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Area returns the size's area in square pixels.
func (s Size) Area() int { return s.W * s.H }

// Box is an axis-aligned bounding box in pixel coordinates.
// X and Y are the top-left corner.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// NewBox constructs a Box from two corner points, ensuring ordering.
func NewBox(x1, y1, x2, y2 int) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// FromRect converts an image.Rectangle to a Box.
func FromRect(r image.Rectangle) Box {
	r = r.Canon()
	return Box{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// Right returns the exclusive right edge coordinate.
func (b Box) Right() int { return b.X + b.W }

// Bottom returns the exclusive bottom edge coordinate.
func (b Box) Bottom() int { return b.Y + b.H }

// Area returns the box area in square pixels.
func (b Box) Area() int { return b.W * b.H }

// Empty reports whether the box has no extent.
func (b Box) Empty() bool { return b.W <= 0 || b.H <= 0 }

// Center returns the box center point.
func (b Box) Center() Point {
	return Point{X: float64(b.X) + float64(b.W)/2, Y: float64(b.Y) + float64(b.H)/2}
}

// ToRect converts a Box to an image.Rectangle.
func (b Box) ToRect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Union returns the smallest box containing both boxes. Empty boxes are
// treated as identity elements.
func (b Box) Union(o Box) Box {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return NewBox(minInt(b.X, o.X), minInt(b.Y, o.Y),
		maxInt(b.Right(), o.Right()), maxInt(b.Bottom(), o.Bottom()))
}

// Intersect returns the overlapping region of two boxes, or an empty box.
func (b Box) Intersect(o Box) Box {
	x1 := maxInt(b.X, o.X)
	y1 := maxInt(b.Y, o.Y)
	x2 := minInt(b.Right(), o.Right())
	y2 := minInt(b.Bottom(), o.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Box{}
	}
	return Box{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Overlaps reports whether the boxes share any area.
func (b Box) Overlaps(o Box) bool { return !b.Intersect(o).Empty() }

// OverlapsWithClearance reports whether the boxes would overlap if both
// were expanded by the given margin. Used for collision checks where a
// minimum gap must be preserved.
func (b Box) OverlapsWithClearance(o Box, margin int) bool {
	return b.Pad(margin).Overlaps(o)
}

// Contains reports whether the box fully contains o, allowing the given
// tolerance in pixels on every edge.
func (b Box) Contains(o Box, tol int) bool {
	return o.X >= b.X-tol && o.Y >= b.Y-tol &&
		o.Right() <= b.Right()+tol && o.Bottom() <= b.Bottom()+tol
}

// ContainsPoint reports whether the point lies inside the box.
func (b Box) ContainsPoint(p Point) bool {
	return p.X >= float64(b.X) && p.X < float64(b.Right()) &&
		p.Y >= float64(b.Y) && p.Y < float64(b.Bottom())
}

// Pad grows the box by the margin on all sides. Negative margins shrink.
func (b Box) Pad(margin int) Box {
	return b.PadXY(margin, margin)
}

// PadXY grows the box by dx horizontally and dy vertically on each side.
func (b Box) PadXY(dx, dy int) Box {
	nb := Box{X: b.X - dx, Y: b.Y - dy, W: b.W + 2*dx, H: b.H + 2*dy}
	if nb.W < 0 {
		nb.W = 0
	}
	if nb.H < 0 {
		nb.H = 0
	}
	return nb
}

// Clamp restricts the box to lie within [0,0)-(w,h).
func (b Box) Clamp(w, h int) Box {
	x1 := clampInt(b.X, 0, w)
	y1 := clampInt(b.Y, 0, h)
	x2 := clampInt(b.Right(), 0, w)
	y2 := clampInt(b.Bottom(), 0, h)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return Box{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Translate returns the box shifted by dx, dy.
func (b Box) Translate(dx, dy int) Box {
	return Box{X: b.X + dx, Y: b.Y + dy, W: b.W, H: b.H}
}

// HorizontalOverlap returns the width in pixels of the shared x-range,
// or 0 if the boxes do not overlap horizontally.
func (b Box) HorizontalOverlap(o Box) int {
	v := minInt(b.Right(), o.Right()) - maxInt(b.X, o.X)
	if v < 0 {
		return 0
	}
	return v
}

// VerticalGap returns the vertical distance between the boxes, or 0 if
// they touch or overlap vertically.
func (b Box) VerticalGap(o Box) int {
	if b.Y > o.Y {
		b, o = o, b
	}
	gap := o.Y - b.Bottom()
	if gap < 0 {
		return 0
	}
	return gap
}

// HorizontalGap returns the horizontal distance between the boxes, or 0
// if they touch or overlap horizontally.
func (b Box) HorizontalGap(o Box) int {
	if b.X > o.X {
		b, o = o, b
	}
	gap := o.X - b.Right()
	if gap < 0 {
		return 0
	}
	return gap
}

// BoundingBox returns the union of all boxes. An empty input yields an
// empty box.
func BoundingBox(boxes []Box) Box {
	var out Box
	for _, b := range boxes {
		out = out.Union(b)
	}
	return out
}

// ScaleBox scales a box by independent x and y factors, rounding
// outward so the scaled box never undercovers the original area.
func ScaleBox(b Box, sx, sy float64) Box {
	x1 := int(math.Floor(float64(b.X) * sx))
	y1 := int(math.Floor(float64(b.Y) * sy))
	x2 := int(math.Ceil(float64(b.Right()) * sx))
	y2 := int(math.Ceil(float64(b.Bottom()) * sy))
	return NewBox(x1, y1, x2, y2)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
