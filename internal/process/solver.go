package process

import "wallcal/internal/rules"

// SolveRequest carries the measured and reference sample sets for one wall
// into the colorimetric solver.
type SolveRequest struct {
	WallName         string         `json:"wall_name"`
	TargetMaxLumNits float64        `json:"target_max_lum_nits"`
	ReferenceGamut   string         `json:"reference_gamut"`
	Samples          map[string]any `json:"samples"`
	ReferenceSamples map[string]any `json:"reference_samples"`
}

// Solver turns sampled patch data into calibration results. The colorimetric
// fitting itself lives outside this module; implementations typically shell
// out to it or post the request to a service.
type Solver interface {
	// Analyse grades the wall as shot, without applying a calibration.
	Analyse(req *SolveRequest) (*rules.CalibrationResults, error)

	// Calibrate computes the calibration and returns its result set.
	Calibrate(req *SolveRequest) (*rules.CalibrationResults, error)
}
