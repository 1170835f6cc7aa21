// Package rules implements the decision rule engines that consume the
// calibration results produced by the colorimetric solver: configuration
// checks recommend settings, validation checks grade the captured plates.
package rules

// Status is the outcome grade of a single validation check.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusWarning Status = "WARNING"
	StatusFail    Status = "FAIL"
	StatusInfo    Status = "INFO"
)

// ValidationResult is the outcome of one validation check. Checks default to
// PASS with an empty message and only set status and message on deviation.
type ValidationResult struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// ConfigurationResult is the recommendation of one configuration check: the
// settings parameter to update and the value it should take.
type ConfigurationResult struct {
	Param string `json:"param"`
	Value bool   `json:"value"`
}

// Settings parameter names emitted by configuration checks.
const (
	ParamEnableEOTFCorrection   = "enable_EOTF_correction"
	ParamEnableGamutCompression = "enable_gamut_compression"
)

// CalibrationResults is the flat result set handed over by the solver. The
// JSON field names are the solver's own result keys.
type CalibrationResults struct {
	// EOTFLinearity is the per-step RGB linearity ratio of the measured
	// grey ramp against the expected response.
	EOTFLinearity [][3]float64 `json:"eotf_linearity"`

	// MaxDistances holds, per primary, the furthest measured excursion
	// outside the target gamut.
	MaxDistances []float64 `json:"max_distances"`

	// Measured18Percent is the camera-measured value of the 18% grey patch,
	// green channel, white balanced in the camera native gamut.
	Measured18Percent float64 `json:"measured_18_percent_sample"`

	// ExposureScalingFactor normalises the measured samples to the
	// reference exposure.
	ExposureScalingFactor float64 `json:"exposure_scaling_factor"`

	// TargetMaxLumNits is the configured peak luminance of the wall.
	TargetMaxLumNits float64 `json:"target_max_lum_nits"`

	// DeltaEEOTFRamp is the per-step delta-E of the measured EOTF ramp
	// against the reference ramp.
	DeltaEEOTFRamp []float64 `json:"DELTA_E_EOTF_RAMP"`

	// DeltaERGBW is the delta-E of the red, green, blue and white patches
	// against their references.
	DeltaERGBW []float64 `json:"DELTA_E_RGBW"`

	// MaxWhiteDelta is the ratio between the measured max white patch and
	// the top of the EOTF ramp.
	MaxWhiteDelta float64 `json:"max_white_delta"`

	// PreEOTFRamps is the measured RGB EOTF ramp before correction.
	PreEOTFRamps [][3]float64 `json:"pre_EOTF_ramps"`
}

// validRampSamples drops the bottom third and the last sample of a ramp
// series. The shadow region is too noisy to judge and the final sample sits
// at the clip point.
func validRampSamples[T any](ramp []T) []T {
	if len(ramp) < 2 {
		return nil
	}
	start := len(ramp) / 3
	return ramp[start : len(ramp)-1]
}
