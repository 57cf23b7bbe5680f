// Package geom holds the screen-space geometry shared by the capture
// components.
package geom

import (
	"fmt"
	"image"
)

// Point is a position in root window coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is an axis-aligned rectangle with an integer origin and an unsigned size.
type Rect struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Span returns the rectangle covering both points: the smaller coordinates
// become the origin, the absolute differences the size.
func Span(a, b Point) Rect {
	return Rect{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  uint32(abs(b.X - a.X)),
		Height: uint32(abs(b.Y - a.Y)),
	}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// Right is the exclusive right edge.
func (r Rect) Right() int {
	return r.X + int(r.Width)
}

// Bottom is the exclusive bottom edge.
func (r Rect) Bottom() int {
	return r.Y + int(r.Height)
}

// Contains reports whether p lies inside r. Edges are half-open.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Clip returns the part of r that lies within bounds. The result is empty
// when they do not overlap.
func (r Rect) Clip(bounds Rect) Rect {
	ir := r.Image().Intersect(bounds.Image())
	if ir.Empty() {
		return Rect{X: r.X, Y: r.Y}
	}
	return FromImage(ir)
}

// Image converts r into an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}

// FromImage converts an image.Rectangle into a Rect.
func FromImage(ir image.Rectangle) Rect {
	ir = ir.Canon()
	return Rect{
		X:      ir.Min.X,
		Y:      ir.Min.Y,
		Width:  uint32(ir.Dx()),
		Height: uint32(ir.Dy()),
	}
}

// String formats the rectangle as an X geometry string (WxH+X+Y).
func (r Rect) String() string {
	return fmt.Sprintf("%dx%d%+d%+d", r.Width, r.Height, r.X, r.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
