package roi

import (
	"fmt"

	"wallcal/internal/imaging"
	"wallcal/internal/patch"
	"wallcal/internal/sample"
	"wallcal/internal/separation"
	"wallcal/internal/sequence"
	"wallcal/pkg/geometry"
)

const (
	// anchorPixelBuffer offsets each detected anchor inward from the patch
	// edge so downstream sampling does not land on the edge itself.
	anchorPixelBuffer = 5

	// detectionThreshold is the multiplicative margin by which a channel
	// must dominate the other two for a pixel to qualify as an anchor.
	detectionThreshold = 1.7
)

// AutoROI locates the four reference anchors in the distortion/ROI patch
// frame and derives the wall's region of interest.
type AutoROI struct {
	sample.Base
}

// New creates an AutoROI detector for the given sequence. The ROI on the
// embedded Base is ignored; detection always scans the full frame.
func New(seq sequence.Sequence, sep *separation.Results, numGreyPatches int,
	plateGamut, referenceGamut imaging.Space) *AutoROI {
	return &AutoROI{
		Base: sample.NewBase(seq, sep, patch.DistortAndROI, numGreyPatches,
			geometry.ROI{}, plateGamut, referenceGamut),
	}
}

// Run scores every pixel of the detection frame for redness, greenness,
// blueness and whiteness and returns the four arg-max anchor points. It
// returns ErrDetectionFailed when the anchors do not form a valid
// quadrilateral.
func (a *AutoROI) Run() (*Results, error) {
	firstPatchFrame, _, err := a.PatchFrameRange()
	if err != nil {
		return nil, err
	}

	frameNum := firstPatchFrame + a.TrimFrames
	if frameNum > a.Seq.EndFrame() {
		return nil, fmt.Errorf("ROI patch frame %d beyond end of sequence %d: %w",
			frameNum, a.Seq.EndFrame(), ErrDetectionFailed)
	}

	frame, err := a.Seq.GetFrame(frameNum)
	if err != nil {
		return nil, err
	}

	whiteBalance, err := a.WhiteBalanceFromSlate()
	if err != nil {
		return nil, err
	}
	converted, err := imaging.Convert(frame.Image, a.PlateGamut, a.ReferenceGamut)
	if err != nil {
		return nil, err
	}
	balanced := imaging.ApplyMatrix(converted, whiteBalance)

	results := scanAnchors(balanced)
	if !results.IsValid() {
		return results, fmt.Errorf("anchors red=%v green=%v blue=%v white=%v: %w",
			results.Red, results.Green, results.Blue, results.White, ErrDetectionFailed)
	}
	return results, nil
}

// scanAnchors finds the best-scoring pixel for each of the four anchors in a
// single pass. Red/green/blue anchors require their channel to dominate the
// other two by the detection threshold; white is simply the brightest
// balanced pixel, scored by its weakest channel.
func scanAnchors(img *imaging.Image) *Results {
	results := &Results{
		Red:   Anchor{Score: -1},
		Green: Anchor{Score: -1},
		Blue:  Anchor{Score: -1},
		White: Anchor{Score: -1},
	}

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			pixel := img.At(x, y)
			red := clampNonNegative(pixel[0])
			green := clampNonNegative(pixel[1])
			blue := clampNonNegative(pixel[2])

			if score := red - (green+blue)/2; score > results.Red.Score {
				if red > max(green, blue)*detectionThreshold {
					results.Red = Anchor{
						Point: geometry.NewPoint(x+anchorPixelBuffer, y+anchorPixelBuffer),
						Score: score,
						Found: true,
					}
				}
			}
			if score := green - (red+blue)/2; score > results.Green.Score {
				if green > max(red, blue)*detectionThreshold {
					results.Green = Anchor{
						Point: geometry.NewPoint(x-anchorPixelBuffer, y+anchorPixelBuffer),
						Score: score,
						Found: true,
					}
				}
			}
			if score := blue - (red+green)/2; score > results.Blue.Score {
				if blue > max(red, green)*detectionThreshold {
					results.Blue = Anchor{
						Point: geometry.NewPoint(x+anchorPixelBuffer, y-anchorPixelBuffer),
						Score: score,
						Found: true,
					}
				}
			}
			if score := min(red, green, blue); score > results.White.Score {
				results.White = Anchor{
					Point: geometry.NewPoint(x-anchorPixelBuffer, y-anchorPixelBuffer),
					Score: score,
					Found: true,
				}
			}
		}
	}
	return results
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
