// Package sequence loads recorded calibration plate image sequences and
// exposes them to the analysis pipeline as numbered frames.
package sequence

import (
	"wallcal/internal/imaging"
	"wallcal/pkg/geometry"
)

// Frame is a single loaded image of the recorded sequence. Frames are
// immutable once loaded and are cached by their loader.
type Frame struct {
	Num      int
	FileName string
	Image    *imaging.Image
}

// ExtractROI returns a copy of the frame's pixels inside the region of
// interest. An empty ROI returns the whole frame.
func (f *Frame) ExtractROI(roi geometry.ROI) *imaging.Image {
	return f.Image.ExtractROI(roi)
}
