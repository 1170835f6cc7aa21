package process

import (
	"log/slog"
	"math"
	"testing"

	"wallcal/internal/imaging"
	"wallcal/internal/rules"
	"wallcal/internal/sequence"
	"wallcal/internal/settings"
	"wallcal/pkg/geometry"
)

// syntheticTake builds a full calibration take with separation 5 starting at
// frame 75, two grey ramp patches and anchor blocks in the distortion patch.
func syntheticTake() *sequence.Memory {
	solid := func(colour imaging.RGB) *imaging.Image {
		return imaging.NewSolidImage(64, 64, colour)
	}

	distort := solid(imaging.RGB{0, 0, 0})
	block := func(x0, y0 int, colour imaging.RGB) {
		for y := y0; y < y0+4; y++ {
			for x := x0; x < x0+4; x++ {
				distort.Set(x, y, colour)
			}
		}
	}
	block(8, 8, imaging.RGB{1, 0, 0})
	block(52, 8, imaging.RGB{0, 1, 0})
	block(8, 52, imaging.RGB{0, 0, 1})
	block(52, 52, imaging.RGB{1, 1, 1})

	// One image per patch slot, five frames each from frame 70. The ramp
	// block holds three slots for NumGreyPatches=2.
	images := []*imaging.Image{
		solid(imaging.RGB{0.01, 0.01, 0.01}), // slate
		solid(imaging.RGB{1.2, 0, 0}),        // red desaturated
		solid(imaging.RGB{0, 1.2, 0}),        // green desaturated
		solid(imaging.RGB{0, 0, 1.2}),        // blue desaturated
		solid(imaging.RGB{0.8, 0.8, 0.8}),    // 18% grey
		solid(imaging.RGB{1, 0, 0}),          // red primary
		solid(imaging.RGB{0, 1, 0}),          // green primary
		solid(imaging.RGB{0, 0, 1}),          // blue primary
		solid(imaging.RGB{1, 1, 1}),          // max white
		solid(imaging.RGB{0.3, 0.3, 0.3}),    // macbeth
		solid(imaging.RGB{0.5, 0.2, 0.1}),    // saturation ramp
		distort,                              // distortion / ROI
		solid(imaging.RGB{0.9, 0.9, 0.9}),    // flat field
		solid(imaging.RGB{0, 0, 0}),          // ramp step 0
		solid(imaging.RGB{0.45, 0.45, 0.45}), // ramp step 1
		solid(imaging.RGB{0.9, 0.9, 0.9}),    // ramp step 2
		solid(imaging.RGB{0.01, 0.01, 0.01}), // end slate
	}

	seq := sequence.NewMemory()
	for slot, img := range images {
		for offset := 0; offset < 5; offset++ {
			seq.AddFrame(&sequence.Frame{Num: 70 + slot*5 + offset, Image: img})
		}
	}
	return seq
}

func testProject() (*settings.Project, *settings.LedWall) {
	project := settings.New("stage_test")
	wall := project.AddWall("wall_a")
	wall.NumGreyPatches = 2
	return project, wall
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRunSampling(t *testing.T) {
	project, wall := testProject()
	proc := New(project, wall, syntheticTake(), quietLogger())

	set, err := proc.RunSampling()
	if err != nil {
		t.Fatalf("sampling failed: %v", err)
	}

	if wall.Separation == nil || wall.Separation.Separation() != 5 {
		t.Fatalf("separation not stored on the wall: %+v", wall.Separation)
	}

	wantROI := geometry.NewROI(13, 47, 13, 47)
	if set.ROI != wantROI {
		t.Errorf("got ROI %+v, want %+v", set.ROI, wantROI)
	}
	if wall.ROI == nil || *wall.ROI != wantROI {
		t.Errorf("detected ROI not stored on the wall: %+v", wall.ROI)
	}

	approx := func(got, want imaging.RGB, what string) {
		t.Helper()
		for ch := 0; ch < 3; ch++ {
			if math.Abs(got[ch]-want[ch]) > 1e-9 {
				t.Errorf("%s channel %d: got %v, want %v", what, ch, got[ch], want[ch])
				return
			}
		}
	}

	grey, ok := set.Samples[MeasurementGrey].(imaging.RGB)
	if !ok {
		t.Fatalf("grey sample has type %T", set.Samples[MeasurementGrey])
	}
	approx(grey, imaging.RGB{0.8, 0.8, 0.8}, "grey")

	desaturated, ok := set.Samples[MeasurementDesaturatedRGB].([]imaging.RGB)
	if !ok || len(desaturated) != 3 {
		t.Fatalf("desaturated samples: %v", set.Samples[MeasurementDesaturatedRGB])
	}
	approx(desaturated[0], imaging.RGB{1.2, 0, 0}, "desaturated red")
	approx(desaturated[1], imaging.RGB{0, 1.2, 0}, "desaturated green")
	approx(desaturated[2], imaging.RGB{0, 0, 1.2}, "desaturated blue")

	maxWhite, _ := set.Samples[MeasurementMaxWhite].(imaging.RGB)
	approx(maxWhite, imaging.RGB{1, 1, 1}, "max white")

	saturation, ok := set.Samples[MeasurementPrimariesSaturation].(float64)
	if !ok || saturation != settings.DefaultPrimariesSaturation {
		t.Errorf("primaries saturation: got %v, want %v",
			set.Samples[MeasurementPrimariesSaturation], settings.DefaultPrimariesSaturation)
	}

	ramp, ok := set.Samples[MeasurementEOTFRamp].([]imaging.RGB)
	if !ok || len(ramp) != 3 {
		t.Fatalf("ramp samples: %v", set.Samples[MeasurementEOTFRamp])
	}
	approx(ramp[0], imaging.RGB{0, 0, 0}, "ramp step 0")
	approx(ramp[1], imaging.RGB{0.45, 0.45, 0.45}, "ramp step 1")
	approx(ramp[2], imaging.RGB{0.9, 0.9, 0.9}, "ramp step 2")

	signals, ok := set.Samples[MeasurementEOTFRampSignal].([]float64)
	if !ok || len(signals) != 3 {
		t.Fatalf("ramp signals: %v", set.Samples[MeasurementEOTFRampSignal])
	}

	swatches, ok := set.Samples[MeasurementMacbeth].([]imaging.RGB)
	if !ok || len(swatches) != 24 {
		t.Fatalf("macbeth samples: %v", set.Samples[MeasurementMacbeth])
	}
	// No chart detector is configured; every swatch is the black
	// placeholder.
	for i, s := range swatches {
		if s != (imaging.RGB{}) {
			t.Fatalf("swatch %d is %v, want black", i, s)
		}
	}
}

func TestManualROISkipsDetection(t *testing.T) {
	project, wall := testProject()
	manual := geometry.NewROI(0, 63, 0, 63)
	wall.ROI = &manual

	proc := New(project, wall, syntheticTake(), quietLogger())
	set, err := proc.RunSampling()
	if err != nil {
		t.Fatalf("sampling failed: %v", err)
	}
	if set.ROI != manual {
		t.Errorf("manual ROI was not honoured: got %+v", set.ROI)
	}
}

func TestSeparationReuseFromReferenceWall(t *testing.T) {
	project, wallA := testProject()
	wallB := project.AddWall("wall_b")
	wallB.NumGreyPatches = 2
	wallB.ReferenceWall = "wall_a"
	wallB.MatchReferenceWall = true

	take := syntheticTake()
	runner := &Runner{
		Project:   project,
		Sequences: map[string]sequence.Sequence{"wall_a": take, "wall_b": take},
		Log:       quietLogger(),
	}

	sets, err := runner.RunAll()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("got %d sample sets, want 2", len(sets))
	}
	if wallA.Separation == nil || wallB.Separation != wallA.Separation {
		t.Error("wall_b did not reuse wall_a's separation results")
	}
}

func TestSeparationReuseRequiresProcessedReference(t *testing.T) {
	project, _ := testProject()
	wallB := project.AddWall("wall_b")
	wallB.ReferenceWall = "wall_a"
	wallB.MatchReferenceWall = true

	proc := New(project, wallB, syntheticTake(), quietLogger())
	if _, err := proc.IdentifySeparation(); err == nil {
		t.Fatal("expected an error when the reference wall has no separation yet")
	}
}

// stubSolver returns a fixed result set.
type stubSolver struct {
	results *rules.CalibrationResults
}

func (s *stubSolver) Analyse(req *SolveRequest) (*rules.CalibrationResults, error) {
	return s.results, nil
}

func (s *stubSolver) Calibrate(req *SolveRequest) (*rules.CalibrationResults, error) {
	return s.results, nil
}

func TestAnalyseRunsValidations(t *testing.T) {
	project, wall := testProject()
	proc := New(project, wall, syntheticTake(), quietLogger())
	proc.Solver = &stubSolver{results: &rules.CalibrationResults{
		Measured18Percent:     0.18,
		ExposureScalingFactor: 1.0,
		TargetMaxLumNits:      100,
		MaxWhiteDelta:         1.0,
		DeltaEEOTFRamp:        []float64{1, 1, 1, 1, 1, 1},
		DeltaERGBW:            []float64{4, 5, 6, 7},
	}}

	set, err := proc.RunSampling()
	if err != nil {
		t.Fatalf("sampling failed: %v", err)
	}

	_, validations, err := proc.Analyse(set)
	if err != nil {
		t.Fatalf("analyse failed: %v", err)
	}
	if len(validations) != 6 {
		t.Fatalf("got %d validation results, want 6", len(validations))
	}
	if rules.AnyFailed(validations) {
		t.Errorf("unexpected validation failure: %+v", validations)
	}
}

func TestCalibrateRunsConfiguration(t *testing.T) {
	project, wall := testProject()
	proc := New(project, wall, syntheticTake(), quietLogger())
	proc.Solver = &stubSolver{results: &rules.CalibrationResults{
		MaxDistances: []float64{1.5},
	}}

	set, err := proc.RunSampling()
	if err != nil {
		t.Fatalf("sampling failed: %v", err)
	}

	_, recommendations, err := proc.Calibrate(set)
	if err != nil {
		t.Fatalf("calibrate failed: %v", err)
	}
	if len(recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recommendations))
	}
	if !recommendations[1].Value {
		t.Error("gamut compression should be recommended for distance 1.5")
	}
}

func TestAnalyseWithoutSolver(t *testing.T) {
	project, wall := testProject()
	proc := New(project, wall, syntheticTake(), quietLogger())
	if _, _, err := proc.Analyse(&SampleSet{}); err == nil {
		t.Fatal("expected an error without a solver")
	}
}
