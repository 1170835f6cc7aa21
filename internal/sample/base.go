// Package sample extracts averaged colour samples for the calibration
// patches of a recorded sequence. Frame ranges are pure integer arithmetic
// over the detected separation; all averaging happens in the reference
// colour space.
package sample

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"wallcal/internal/imaging"
	"wallcal/internal/patch"
	"wallcal/internal/separation"
	"wallcal/internal/sequence"
	"wallcal/pkg/geometry"
)

// Base resolves the absolute frame range a named patch occupies. TrimFrames
// is per-instance state: it widens monotonically as ranges are computed and
// never leaks across walls.
type Base struct {
	Seq            sequence.Sequence
	Sep            *separation.Results
	Patch          patch.Name
	NumGreyPatches int
	ROI            geometry.ROI
	PlateGamut     imaging.Space
	ReferenceGamut imaging.Space

	// TrimFrames is how many frames are discarded from each end of a patch
	// range before sampling, to skip multiplexed frames at patch boundaries.
	TrimFrames int

	// RequiredSampleFrames is the minimum number of usable frames a patch
	// must provide after trimming.
	RequiredSampleFrames int
}

// NewBase creates a Base with the default trim of one frame per side.
func NewBase(seq sequence.Sequence, sep *separation.Results, name patch.Name,
	numGreyPatches int, roi geometry.ROI, plateGamut, referenceGamut imaging.Space) Base {
	return Base{
		Seq:                  seq,
		Sep:                  sep,
		Patch:                name,
		NumGreyPatches:       numGreyPatches,
		ROI:                  roi,
		PlateGamut:           plateGamut,
		ReferenceGamut:       referenceGamut,
		TrimFrames:           1,
		RequiredSampleFrames: 3,
	}
}

// patchesRelativeToRed returns the patch's offset in patch counts from the
// desaturated red anchor. Patches ordered after the EOTF ramp block occupy
// NumGreyPatches extra slots because the ramp plays one patch per grey step.
func (b *Base) patchesRelativeToRed() int {
	eotfIndex := patch.Index(patch.EOTFRamps)
	patchIndex := patch.Index(b.Patch)
	redIndex := patch.Index(patch.RedPrimaryDesaturated)
	if patchIndex > eotfIndex {
		return patchIndex - redIndex + b.NumGreyPatches
	}
	return patchIndex - redIndex
}

// PatchFrameRange returns the inclusive first and last frame numbers of the
// patch. The trim is widened to (range length)/RequiredSampleFrames whenever
// that exceeds the current trim; it never shrinks.
func (b *Base) PatchFrameRange() (first, last int, err error) {
	if !b.Sep.IsValid() {
		return 0, 0, fmt.Errorf("separation results are not valid")
	}

	sep := b.Sep.Separation()
	first = b.Sep.FirstRed.Num + b.patchesRelativeToRed()*sep
	last = first + sep - 1

	if trim := (last - first) / b.RequiredSampleFrames; trim > b.TrimFrames {
		b.TrimFrames = trim
	}
	return first, last, nil
}

// WhiteBalanceFromSlate derives the white balance matrix from the slate
// frame at the head of the sequence, converted to the reference space.
func (b *Base) WhiteBalanceFromSlate() (*mat.Dense, error) {
	slate, err := b.Seq.GetFrame(b.Seq.StartFrame())
	if err != nil {
		return nil, fmt.Errorf("load slate frame: %w", err)
	}
	converted, err := imaging.Convert(slate.Image, b.PlateGamut, b.ReferenceGamut)
	if err != nil {
		return nil, err
	}
	return imaging.WhiteBalanceMatrix(converted), nil
}

// Results holds the frames used for one sampling pass and the averaged
// samples: a single colour for flat patches, one colour per swatch for the
// colour checker.
type Results struct {
	Frames  []*sequence.Frame
	Samples []imaging.RGB
}
