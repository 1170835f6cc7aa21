// Package geometry provides basic geometric types used throughout the application.
package geometry

// Point represents a pixel position within a frame.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NewPoint creates a new Point.
func NewPoint(x, y int) Point {
	return Point{X: x, Y: y}
}

// ROI is a rectangular region of interest in frame pixel coordinates.
// Right and Bottom are inclusive.
type ROI struct {
	Left   int `json:"left"`
	Right  int `json:"right"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// NewROI creates a new ROI.
func NewROI(left, right, top, bottom int) ROI {
	return ROI{Left: left, Right: right, Top: top, Bottom: bottom}
}

// Width returns the pixel width of the region.
func (r ROI) Width() int {
	return r.Right - r.Left + 1
}

// Height returns the pixel height of the region.
func (r ROI) Height() int {
	return r.Bottom - r.Top + 1
}

// Empty reports whether the region covers no pixels. The zero value and any
// region with an inverted axis are empty; with inclusive bounds a
// single-pixel region is not.
func (r ROI) Empty() bool {
	if r == (ROI{}) {
		return true
	}
	return r.Right < r.Left || r.Bottom < r.Top
}

// Contains returns true if the point lies inside the region.
func (r ROI) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// Clamp restricts the region to an image of the given dimensions.
func (r ROI) Clamp(width, height int) ROI {
	out := r
	if out.Left < 0 {
		out.Left = 0
	}
	if out.Top < 0 {
		out.Top = 0
	}
	if out.Right > width-1 {
		out.Right = width - 1
	}
	if out.Bottom > height-1 {
		out.Bottom = height - 1
	}
	return out
}
