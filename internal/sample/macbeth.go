package sample

import (
	"wallcal/internal/imaging"
	"wallcal/internal/patch"
)

// macbethSwatchCount is the swatch count of a standard colour checker chart.
const macbethSwatchCount = 24

// DetectFunc locates a colour checker chart in an image and returns the
// average colour of each swatch in chart order. It returns nil when no chart
// is found; returned values may contain NaN for swatches the detector could
// not resolve.
type DetectFunc func(img *imaging.Image) []imaging.RGB

// MacbethSample samples the colour checker patch: the chart is detected in
// every usable frame of the trimmed patch range and the per-swatch colours
// are averaged across frames.
type MacbethSample struct {
	Base
	Detect DetectFunc
}

// NewMacbethSample creates a sampler for the colour checker patch using the
// given chart detector.
func NewMacbethSample(base Base, detect DetectFunc) *MacbethSample {
	base.Patch = patch.Macbeth
	return &MacbethSample{Base: base, Detect: detect}
}

// Run samples the chart. The result always holds 24 swatch colours; if
// detection fails or yields NaN for any swatch, all 24 are replaced with
// black so callers never see NaN.
func (m *MacbethSample) Run() (*Results, error) {
	first, last, err := m.PatchFrameRange()
	if err != nil {
		return nil, err
	}

	results := &Results{}
	var perFrame [][]imaging.RGB

	for num := first + m.TrimFrames; num <= last-m.TrimFrames; num++ {
		frame, err := m.Seq.GetFrame(num)
		if err != nil {
			return nil, err
		}
		results.Frames = append(results.Frames, frame)

		section := frame.ExtractROI(m.ROI)

		// Chart detection works on log-encoded data; the detected swatch
		// colours are carried back to the reference space.
		logEncoded, err := imaging.Convert(section, m.PlateGamut, imaging.SpaceACEScct)
		if err != nil {
			return nil, err
		}

		swatches := m.Detect(logEncoded)
		if swatches == nil {
			continue
		}

		converted := make([]imaging.RGB, len(swatches))
		for i, swatch := range swatches {
			converted[i], err = imaging.ConvertSample(swatch, imaging.SpaceACEScct, m.ReferenceGamut)
			if err != nil {
				return nil, err
			}
		}
		perFrame = append(perFrame, converted)
	}

	results.Samples = averageSwatches(perFrame)
	return results, nil
}

// averageSwatches computes the column-wise mean across frames for each
// swatch. Any NaN, or no detections at all, collapses the whole set to
// black placeholder swatches.
func averageSwatches(perFrame [][]imaging.RGB) []imaging.RGB {
	blacks := make([]imaging.RGB, macbethSwatchCount)
	if len(perFrame) == 0 {
		return blacks
	}

	averaged := make([]imaging.RGB, macbethSwatchCount)
	for col := 0; col < macbethSwatchCount; col++ {
		var sum imaging.RGB
		count := 0
		for _, frameSwatches := range perFrame {
			if col >= len(frameSwatches) {
				return blacks
			}
			sum = sum.Add(frameSwatches[col])
			count++
		}
		mean := sum.Scale(1.0 / float64(count))
		if mean.HasNaN() {
			return blacks
		}
		averaged[col] = mean
	}
	return averaged
}
