// Package process orchestrates the per-wall calibration pipeline: temporal
// alignment, region detection, patch sampling, the solver hand-off and the
// rule engines, in reference-wall dependency order.
package process

import (
	"fmt"
	"log/slog"

	"wallcal/internal/imaging"
	"wallcal/internal/patch"
	"wallcal/internal/roi"
	"wallcal/internal/rules"
	"wallcal/internal/sample"
	"wallcal/internal/separation"
	"wallcal/internal/sequence"
	"wallcal/internal/settings"
	"wallcal/pkg/geometry"
)

// Measurement keys of the sample set handed to the solver.
const (
	MeasurementGrey                = "grey"
	MeasurementDesaturatedRGB      = "desaturated_rgb"
	MeasurementPrimariesSaturation = "primaries_saturation"
	MeasurementEOTFRamp            = "EOTF_ramp"
	MeasurementEOTFRampSignal      = "EOTF_ramp_signal"
	MeasurementMacbeth             = "Macbeth"
	MeasurementMaxWhite            = "Max_White"
)

// SlateVerifier checks that the wall name burnt into a slate frame matches
// the wall being processed. Implementations are advisory; failures log, they
// never abort.
type SlateVerifier interface {
	VerifyWallName(img *imaging.Image, wallName string) (bool, string, error)
}

// SampleSet is the output of one wall's sampling pass.
type SampleSet struct {
	WallName string         `json:"wall_name"`
	ROI      geometry.ROI   `json:"roi"`
	Samples  map[string]any `json:"samples"`

	// SlateText is what OCR read off the slate frame, when a verifier was
	// configured.
	SlateText string `json:"slate_text,omitempty"`
}

// Processing runs the calibration pipeline for a single LED wall.
type Processing struct {
	Project *settings.Project
	Wall    *settings.LedWall
	Seq     sequence.Sequence
	Solver  Solver

	// Detect locates the colour checker chart; nil disables macbeth
	// sampling and yields the black placeholder swatches.
	Detect sample.DetectFunc

	// Slate optionally verifies the wall name on the slate frame.
	Slate SlateVerifier

	Log *slog.Logger
}

// New creates a Processing for the given wall.
func New(project *settings.Project, wall *settings.LedWall, seq sequence.Sequence, log *slog.Logger) *Processing {
	if log == nil {
		log = slog.Default()
	}
	return &Processing{
		Project: project,
		Wall:    wall,
		Seq:     seq,
		Log:     log.With("wall", wall.Name),
	}
}

// IdentifySeparation resolves the wall's temporal alignment. Results cached
// on the wall are reused, as are a reference wall's results when this wall is
// set to match it; both walls were shot in the same take and share one
// alignment.
func (p *Processing) IdentifySeparation() (*separation.Results, error) {
	if p.Wall.Separation != nil && p.Wall.Separation.IsValid() {
		return p.Wall.Separation, nil
	}

	if p.Wall.MatchReferenceWall && p.Wall.ReferenceWall != "" {
		ref := p.Project.GetWall(p.Wall.ReferenceWall)
		if ref == nil {
			return nil, fmt.Errorf("wall %q references unknown wall %q", p.Wall.Name, p.Wall.ReferenceWall)
		}
		if ref.Separation != nil && ref.Separation.IsValid() {
			p.Log.Info("reusing separation from reference wall",
				"reference", ref.Name, "separation", ref.Separation.Separation())
			p.Wall.Separation = ref.Separation
			return ref.Separation, nil
		}
		return nil, fmt.Errorf("reference wall %q has no separation results yet", ref.Name)
	}

	identifier := &separation.Identifier{
		Seq:            p.Seq,
		ROI:            p.manualROI(),
		PlateGamut:     p.Wall.InputPlateGamut,
		ReferenceGamut: p.Project.ReferenceGamut,
		WallName:       p.Wall.Name,
	}
	results, err := identifier.Run()
	if err != nil {
		return nil, err
	}

	p.Log.Info("separation identified",
		"separation", results.Separation(), "first_red_frame", results.FirstRed.Num)
	p.Wall.Separation = results
	return results, nil
}

// AutoDetectROI resolves the wall's region of interest. A manually
// configured region wins; otherwise the anchors in the distortion patch are
// detected and the derived region is stored back on the wall.
func (p *Processing) AutoDetectROI(sep *separation.Results) (geometry.ROI, error) {
	if p.Wall.HasValidROI() {
		return *p.Wall.ROI, nil
	}

	detector := roi.New(p.Seq, sep, p.Wall.NumGreyPatches,
		p.Wall.InputPlateGamut, p.Project.ReferenceGamut)
	results, err := detector.Run()
	if err != nil {
		return geometry.ROI{}, fmt.Errorf("wall %q: %w", p.Wall.Name, err)
	}

	region := results.ROI()
	p.Log.Info("auto-detected ROI",
		"left", region.Left, "right", region.Right, "top", region.Top, "bottom", region.Bottom)
	p.Wall.ROI = &region
	return region, nil
}

// RunSampling runs the full sampling pass: separation, region detection and
// every patch sampler, plus the slate check when configured. The trim state
// is shared across the samplers of this pass so a widened trim applies to
// the patches that follow.
func (p *Processing) RunSampling() (*SampleSet, error) {
	sep, err := p.IdentifySeparation()
	if err != nil {
		return nil, err
	}
	region, err := p.AutoDetectROI(sep)
	if err != nil {
		return nil, err
	}

	set := &SampleSet{
		WallName: p.Wall.Name,
		ROI:      region,
		Samples:  make(map[string]any),
	}

	if p.Slate != nil {
		p.verifySlate(set)
	}

	base := sample.NewBase(p.Seq, sep, patch.Grey18Percent, p.Wall.NumGreyPatches,
		region, p.Wall.InputPlateGamut, p.Project.ReferenceGamut)

	grey, err := p.sampleFlat(&base, patch.Grey18Percent)
	if err != nil {
		return nil, err
	}
	set.Samples[MeasurementGrey] = grey

	var desaturated []imaging.RGB
	for _, name := range []patch.Name{
		patch.RedPrimaryDesaturated, patch.GreenPrimaryDesaturated, patch.BluePrimaryDesaturated,
	} {
		colour, err := p.sampleFlat(&base, name)
		if err != nil {
			return nil, err
		}
		desaturated = append(desaturated, colour)
	}
	set.Samples[MeasurementDesaturatedRGB] = desaturated
	set.Samples[MeasurementPrimariesSaturation] = p.Wall.PrimariesSaturation

	maxWhite, err := p.sampleFlat(&base, patch.MaxWhite)
	if err != nil {
		return nil, err
	}
	set.Samples[MeasurementMaxWhite] = maxWhite

	ramp, err := p.sampleRamp(&base)
	if err != nil {
		return nil, err
	}
	set.Samples[MeasurementEOTFRamp] = ramp
	set.Samples[MeasurementEOTFRampSignal] = imaging.GreySignals(p.Wall.TargetMaxLumNits, p.Wall.NumGreyPatches)

	macbeth, err := p.sampleMacbeth(&base)
	if err != nil {
		return nil, err
	}
	set.Samples[MeasurementMacbeth] = macbeth

	p.Log.Info("sampling complete", "measurements", len(set.Samples))
	return set, nil
}

// Analyse hands the sample set to the solver for a pre-calibration grading
// and runs the validation checks on the outcome.
func (p *Processing) Analyse(set *SampleSet) (*rules.CalibrationResults, []rules.ValidationResult, error) {
	if p.Solver == nil {
		return nil, nil, fmt.Errorf("no solver configured")
	}

	results, err := p.Solver.Analyse(p.solveRequest(set))
	if err != nil {
		return nil, nil, fmt.Errorf("analyse wall %q: %w", p.Wall.Name, err)
	}

	validations := rules.NewValidation().Run(results)
	for _, v := range validations {
		switch v.Status {
		case rules.StatusFail:
			p.Log.Error("validation failed", "check", v.Name, "message", v.Message)
		case rules.StatusWarning:
			p.Log.Warn("validation warning", "check", v.Name, "message", v.Message)
		}
	}
	return results, validations, nil
}

// Calibrate hands the sample set to the solver for the calibration proper
// and runs the configuration checks on the outcome.
func (p *Processing) Calibrate(set *SampleSet) (*rules.CalibrationResults, []rules.ConfigurationResult, error) {
	if p.Solver == nil {
		return nil, nil, fmt.Errorf("no solver configured")
	}

	results, err := p.Solver.Calibrate(p.solveRequest(set))
	if err != nil {
		return nil, nil, fmt.Errorf("calibrate wall %q: %w", p.Wall.Name, err)
	}

	recommendations := rules.NewConfiguration().Run(results)
	for _, r := range recommendations {
		p.Log.Info("configuration recommendation", "param", r.Param, "value", r.Value)
	}
	return results, recommendations, nil
}

func (p *Processing) solveRequest(set *SampleSet) *SolveRequest {
	return &SolveRequest{
		WallName:         p.Wall.Name,
		TargetMaxLumNits: p.Wall.TargetMaxLumNits,
		ReferenceGamut:   string(p.Project.ReferenceGamut),
		Samples:          set.Samples,
		ReferenceSamples: p.referenceSamples(),
	}
}

// referenceSamples builds the expected patch values the solver compares the
// measurements against. Flat reference patches are played at known signal
// levels; the ramp references follow the PQ grey signals.
func (p *Processing) referenceSamples() map[string]any {
	signals := imaging.GreySignals(p.Wall.TargetMaxLumNits, p.Wall.NumGreyPatches)
	ramp := make([]imaging.RGB, len(signals))
	for i, v := range signals {
		ramp[i] = imaging.RGB{v, v, v}
	}
	return map[string]any{
		MeasurementEOTFRamp:            ramp,
		MeasurementEOTFRampSignal:      signals,
		MeasurementPrimariesSaturation: p.Wall.PrimariesSaturation,
	}
}

func (p *Processing) manualROI() geometry.ROI {
	if p.Wall.HasValidROI() {
		return *p.Wall.ROI
	}
	return geometry.ROI{}
}

func (p *Processing) sampleFlat(base *sample.Base, name patch.Name) (imaging.RGB, error) {
	base.Patch = name
	sampler := sample.NewPatch(*base)
	results, err := sampler.Run()
	if err != nil {
		return imaging.RGB{}, fmt.Errorf("sample %s: %w", name, err)
	}
	base.TrimFrames = sampler.TrimFrames
	return results.Samples[0], nil
}

func (p *Processing) sampleRamp(base *sample.Base) ([]imaging.RGB, error) {
	sampler := sample.NewRampPatches(*base)
	results, err := sampler.Run()
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", patch.EOTFRamps, err)
	}
	base.TrimFrames = sampler.TrimFrames

	steps := make([]imaging.RGB, len(results))
	for i, r := range results {
		steps[i] = r.Samples[0]
	}
	return steps, nil
}

func (p *Processing) sampleMacbeth(base *sample.Base) ([]imaging.RGB, error) {
	detect := p.Detect
	if detect == nil {
		detect = func(*imaging.Image) []imaging.RGB { return nil }
	}
	sampler := sample.NewMacbethSample(*base, detect)
	results, err := sampler.Run()
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", patch.Macbeth, err)
	}
	base.TrimFrames = sampler.TrimFrames
	return results.Samples, nil
}

// verifySlate reads the slate frame and logs when the burnt-in wall name
// does not match. A wrong plate pointed at a wall is an operator mistake
// worth flagging, but OCR is not reliable enough to abort on.
func (p *Processing) verifySlate(set *SampleSet) {
	frame, err := p.Seq.GetFrame(p.Seq.StartFrame())
	if err != nil {
		p.Log.Warn("slate check skipped", "error", err)
		return
	}

	ok, text, err := p.Slate.VerifyWallName(frame.Image, p.Wall.Name)
	if err != nil {
		p.Log.Warn("slate check skipped", "error", err)
		return
	}

	set.SlateText = text
	if !ok {
		p.Log.Warn("slate text does not match wall name", "slate_text", text)
	}
}
