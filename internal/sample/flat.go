package sample

import (
	"fmt"

	"wallcal/internal/imaging"
)

// Patch samples a flat colour patch by averaging the mean ROI colour over
// every frame of the trimmed patch range.
type Patch struct {
	Base
}

// NewPatch creates a sampler for the named flat patch.
func NewPatch(base Base) *Patch {
	return &Patch{Base: base}
}

// Run samples the patch and returns a single averaged colour.
func (p *Patch) Run() (*Results, error) {
	first, last, err := p.PatchFrameRange()
	if err != nil {
		return nil, err
	}
	return p.analyseRange(first, last)
}

// analyseRange averages the per-frame mean ROI colour over
// [first+trim, last-trim]. The mean is a running sum divided by the frame
// count, so the result is independent of sampling order.
func (b *Base) analyseRange(first, last int) (*Results, error) {
	results := &Results{}
	var sum imaging.RGB
	count := 0

	for num := first + b.TrimFrames; num <= last-b.TrimFrames; num++ {
		frame, err := b.Seq.GetFrame(num)
		if err != nil {
			return nil, err
		}

		section := frame.ExtractROI(b.ROI)
		converted, err := imaging.Convert(section, b.PlateGamut, b.ReferenceGamut)
		if err != nil {
			return nil, err
		}
		mean := converted.ClippedMeanColour(3)

		sum = sum.Add(mean)
		count++
		results.Frames = append(results.Frames, frame)
	}

	if count == 0 {
		return nil, fmt.Errorf("patch %s: no frames left to sample after trimming %d frames per side", b.Patch, b.TrimFrames)
	}

	results.Samples = []imaging.RGB{sum.Scale(1.0 / float64(count))}
	return results, nil
}
