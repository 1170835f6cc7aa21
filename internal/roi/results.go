// Package roi auto-detects the rectangular region of interest covering the
// LED wall by locating the four reference colour anchors rendered in the
// distortion/ROI calibration patch.
package roi

import (
	"errors"

	"wallcal/pkg/geometry"
)

// ErrDetectionFailed is returned when the anchor points cannot be located
// or do not form a valid quadrilateral. Callers must not proceed with a
// partial region.
var ErrDetectionFailed = errors.New("auto ROI detection failed")

// Anchor is one detected reference pixel and its score.
type Anchor struct {
	Point geometry.Point
	Score float64
	Found bool
}

// Results holds the four detected anchor points. The anchors are expected to
// form a quadrilateral: red top-left, green top-right, blue bottom-left,
// white bottom-right.
type Results struct {
	Red   Anchor
	Green Anchor
	Blue  Anchor
	White Anchor
}

// IsValid reports whether all four anchors were found and satisfy the
// corner ordering: each top anchor above both bottom anchors, each left
// anchor left of both right anchors.
func (r *Results) IsValid() bool {
	if r == nil || !r.Red.Found || !r.Green.Found || !r.Blue.Found || !r.White.Found {
		return false
	}

	red, green := r.Red.Point, r.Green.Point
	blue, white := r.Blue.Point, r.White.Point

	if red.X >= green.X || red.X >= white.X {
		return false
	}
	if blue.X >= green.X || blue.X >= white.X {
		return false
	}
	if red.Y >= blue.Y || red.Y >= white.Y {
		return false
	}
	if green.Y >= blue.Y || green.Y >= white.Y {
		return false
	}
	return true
}

// ROI returns the bounding box of the four anchor points as
// [left, right, top, bottom], or the zero ROI when the results are invalid.
func (r *Results) ROI() geometry.ROI {
	if !r.IsValid() {
		return geometry.ROI{}
	}

	left := min(r.Red.Point.X, r.Blue.Point.X)
	right := max(r.Green.Point.X, r.White.Point.X)
	top := min(r.Red.Point.Y, r.Green.Point.Y)
	bottom := max(r.Blue.Point.Y, r.White.Point.Y)
	return geometry.NewROI(left, right, top, bottom)
}
