// Package separation identifies how many camera frames each calibration
// patch occupies in a recorded sequence by locating the first red, green,
// blue and grey anchor patches plus the second red patch.
package separation

import (
	"fmt"
	"math"

	"wallcal/internal/sequence"
)

// Error is the user-facing failure raised when a sequence ends before all
// anchor patches have been located.
type Error struct {
	Wall string
}

func (e *Error) Error() string {
	return fmt.Sprintf("separation detection failed for LED wall %q: sequence ended before all anchor patches were found", e.Wall)
}

// Results holds the five anchor frames located in the sequence. All fields
// are nil until identification succeeds.
type Results struct {
	FirstRed   *sequence.Frame
	FirstGreen *sequence.Frame
	FirstBlue  *sequence.Frame
	FirstGrey  *sequence.Frame
	SecondRed  *sequence.Frame
}

// IsValid reports whether every anchor frame was found and the derived
// separation is usable.
func (r *Results) IsValid() bool {
	if r == nil {
		return false
	}
	for _, f := range r.anchors() {
		if f == nil {
			return false
		}
	}
	return r.Separation() >= 1
}

// Separation returns the number of frames each patch occupies, derived as
// the rounded average of the four consecutive anchor deltas. It returns -1
// when any anchor is missing or the anchors are out of order.
func (r *Results) Separation() int {
	anchors := r.anchors()
	for _, f := range anchors {
		if f == nil {
			return -1
		}
	}

	nums := make([]int, len(anchors))
	for i, f := range anchors {
		nums[i] = f.Num
	}
	for i := 1; i < len(nums); i++ {
		if nums[i] < nums[i-1] {
			return -1
		}
	}

	total := (nums[1] - nums[0]) + (nums[2] - nums[1]) + (nums[3] - nums[2]) + (nums[4] - nums[3])
	return int(math.Round(float64(total) / 4.0))
}

func (r *Results) anchors() []*sequence.Frame {
	return []*sequence.Frame{r.FirstRed, r.FirstGreen, r.FirstBlue, r.FirstGrey, r.SecondRed}
}
