package separation

import (
	"fmt"

	"wallcal/internal/imaging"
	"wallcal/internal/sequence"
	"wallcal/pkg/geometry"
)

// anchorCount is how many colour-difference peaks must accumulate before
// scanning stops: first red, green, blue, grey and the second red patch.
const anchorCount = 5

// peakMinHeight is the minimum colour distance, in the reference space
// metric, for a frame-to-frame change to count as a patch boundary.
const peakMinHeight = 1.0

// Identifier scans a sequence for the anchor patches and derives the
// separation. The scan is streaming: peaks are re-evaluated after every
// frame and the scan stops as soon as all anchors are found.
type Identifier struct {
	Seq            sequence.Sequence
	ROI            geometry.ROI
	PlateGamut     imaging.Space
	ReferenceGamut imaging.Space
	WallName       string
}

// Run scans the sequence and returns the populated results. It returns a
// *Error when the sequence is exhausted before every anchor patch has been
// seen.
func (id *Identifier) Run() (*Results, error) {
	results := &Results{}

	slate, err := id.Seq.GetFrame(id.Seq.StartFrame())
	if err != nil {
		return results, fmt.Errorf("load slate frame: %w", err)
	}
	slateRef, err := imaging.Convert(slate.Image, id.PlateGamut, id.ReferenceGamut)
	if err != nil {
		return results, err
	}
	whiteBalance := imaging.WhiteBalanceMatrix(slateRef)

	var frameNums []int
	var distances []float64
	var prevMean imaging.RGB
	havePrev := false

	for num := id.Seq.StartFrame(); num <= id.Seq.EndFrame(); num++ {
		frame, err := id.Seq.GetFrame(num)
		if err != nil {
			return results, err
		}

		section := frame.ExtractROI(id.ROI)
		converted, err := imaging.Convert(section, id.PlateGamut, id.ReferenceGamut)
		if err != nil {
			return results, err
		}
		balanced := imaging.ApplyMatrix(converted, whiteBalance)
		mean := balanced.MeanColour()

		distance := 0.0
		if havePrev {
			distance = imaging.Distance(mean, prevMean)
		}
		frameNums = append(frameNums, frame.Num)
		distances = append(distances, distance)
		prevMean, havePrev = mean, true

		peaks := findPeaks(distances, peakMinHeight)
		if len(peaks) >= anchorCount {
			if err := id.assignAnchors(results, frameNums, peaks); err != nil {
				return results, err
			}
			break
		}
	}

	if !results.IsValid() {
		return results, &Error{Wall: id.WallName}
	}
	return results, nil
}

// assignAnchors maps the first five peaks back to their frames in anchor
// order.
func (id *Identifier) assignAnchors(results *Results, frameNums []int, peaks []int) error {
	targets := []**sequence.Frame{
		&results.FirstRed,
		&results.FirstGreen,
		&results.FirstBlue,
		&results.FirstGrey,
		&results.SecondRed,
	}
	for i, target := range targets {
		frame, err := id.Seq.GetFrame(frameNums[peaks[i]])
		if err != nil {
			return err
		}
		*target = frame
	}
	return nil
}
