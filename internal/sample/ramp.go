package sample

import (
	"sync"

	"wallcal/internal/patch"
)

// RampPatches samples the EOTF ramp block: NumGreyPatches sequential grey
// steps preceded by one black step. Each sub-patch occupies its own
// separation-sized frame range, so the sub-patches are sampled concurrently,
// one worker per step, each writing to its own result slot.
type RampPatches struct {
	Patch
}

// NewRampPatches creates a sampler for the EOTF ramp block.
func NewRampPatches(base Base) *RampPatches {
	base.Patch = patch.EOTFRamps
	return &RampPatches{Patch: Patch{Base: base}}
}

// Run samples every sub-patch and returns the results ordered by sub-patch
// index, black step first.
func (r *RampPatches) Run() ([]*Results, error) {
	firstPatchFrame, _, err := r.PatchFrameRange()
	if err != nil {
		return nil, err
	}
	sep := r.Sep.Separation()

	// The trim is fixed before the workers start; the workers read disjoint
	// frame ranges and write to disjoint slots, so the only synchronisation
	// needed is the final join.
	count := r.NumGreyPatches + 1
	results := make([]*Results, count)
	errs := make([]error, count)

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		start := firstPatchFrame + i*sep
		last := start + sep - 1

		wg.Add(1)
		go func(slot, start, last int) {
			defer wg.Done()
			results[slot], errs[slot] = r.analyseRange(start, last)
		}(i, start, last)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
