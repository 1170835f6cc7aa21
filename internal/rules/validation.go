package rules

import (
	"fmt"
	"math"
	"strings"
)

// ValidationCheck grades one aspect of the calibration results.
type ValidationCheck func(results *CalibrationResults) ValidationResult

// Validation runs an ordered list of validation checks. A FAIL conventionally
// aborts the calibration, a WARNING prompts the operator; the engine itself
// only reports.
type Validation struct {
	checks []ValidationCheck
}

// NewValidation returns the engine with the standard checks registered.
func NewValidation() *Validation {
	return &Validation{
		checks: []ValidationCheck{
			ExposureValidation,
			MaxWhiteVsEOTFRamp,
			ScaledExposureValidation,
			EOTFValidation,
			EOTFClampingValidation,
			GamutDeltaEValidation,
		},
	}
}

// Run executes every registered check and returns the results in
// registration order.
func (v *Validation) Run(results *CalibrationResults) []ValidationResult {
	out := make([]ValidationResult, 0, len(v.checks))
	for _, check := range v.checks {
		out = append(out, check(results))
	}
	return out
}

// AnyFailed reports whether any result carries FAIL status.
func AnyFailed(results []ValidationResult) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

// Exposure bands for the measured 18% grey patch: a quarter stop either way
// is a hard failure, a tenth of a stop either way is the ideal band.
const (
	quarterStopDown = 0.144
	quarterStopUp   = 0.225
	tenthStopDown   = 0.163
	tenthStopUp     = 0.198
)

// ExposureValidation checks the measured 18% patch sits within exposure
// tolerance of its nominal value.
func ExposureValidation(results *CalibrationResults) ValidationResult {
	result := ValidationResult{Name: "Measured Exposure Validation", Status: StatusPass}

	measured := results.Measured18Percent
	if measured < quarterStopDown || measured > quarterStopUp {
		result.Status = StatusFail
		result.Message = fmt.Sprintf(
			"the 18%% patch measured %.1f%%; the calibration patches were not exposed correctly. "+
				"Re-expose the first 18%% patch using the camera false colour or a light meter",
			measured*100)
		return result
	}

	if measured <= tenthStopDown || measured >= tenthStopUp {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf(
			"the 18%% patch measured %.1f%%, outside the ideal band. "+
				"Re-expose the first 18%% patch using the camera false colour or a light meter",
			measured*100)
	}
	return result
}

// maxWhiteTolerance is the accepted deviation of the max white patch from
// the top of the EOTF ramp.
const maxWhiteTolerance = 0.1

// MaxWhiteVsEOTFRamp checks the max white patch agrees with the top of the
// EOTF ramp; disagreement means the wall settings do not match its actual
// peak luminance.
func MaxWhiteVsEOTFRamp(results *CalibrationResults) ValidationResult {
	result := ValidationResult{Name: "Max White vs EOTF Validation", Status: StatusPass}

	delta := math.Abs(results.MaxWhiteDelta)
	if math.Abs(delta-1) > maxWhiteTolerance {
		result.Status = StatusFail
		result.Message = "the EOTF ramp does not match the peak luminance of the LED wall. " +
			"Check the wall settings against its actual peak luminance and the imaging chain " +
			"from content engine to LED processor, then re-shoot the plates"
	}
	return result
}

// Scaled 18% bounds as fractions of the target peak luminance.
const (
	scaledExposureLower = 0.16
	scaledExposureUpper = 0.20
)

// ScaledExposureValidation checks the 18% patch, once normalised by the
// exposure scaling factor, lands near 18% of the target peak luminance. An
// extreme scaled value points at an equipment setup problem.
func ScaledExposureValidation(results *CalibrationResults) ValidationResult {
	result := ValidationResult{Name: "Check Scaled 18% Validation", Status: StatusPass}

	scaledNits := (results.Measured18Percent / results.ExposureScalingFactor) * 100
	minNits := results.TargetMaxLumNits * scaledExposureLower
	maxNits := results.TargetMaxLumNits * scaledExposureUpper

	if scaledNits < minNits || scaledNits > maxNits {
		result.Status = StatusFail
		result.Message = fmt.Sprintf(
			"the scaled 18%% patch is out of range at %.1f nits. "+
				"Check the wall settings against its actual peak luminance and the imaging chain "+
				"from content engine to LED processor, then re-shoot the plates",
			scaledNits)
	}
	return result
}

// eotfDeltaELimit is the highest tolerable mean delta-E over the usable
// portion of the EOTF ramp.
const eotfDeltaELimit = 5.0

// EOTFValidation checks the mean delta-E of the usable EOTF ramp samples.
func EOTFValidation(results *CalibrationResults) ValidationResult {
	result := ValidationResult{Name: "EOTF Validation", Status: StatusPass}

	samples := validRampSamples(results.DeltaEEOTFRamp)
	if len(samples) == 0 {
		result.Status = StatusInfo
		result.Message = "not enough EOTF ramp samples to validate"
		return result
	}

	total := 0.0
	for _, s := range samples {
		total += s
	}
	if total/float64(len(samples)) > eotfDeltaELimit {
		result.Status = StatusFail
		result.Message = "the detected EOTF is out of tolerance. Check the imaging chain " +
			"from content engine to LED processor and re-shoot the plates"
	}
	return result
}

// Clamping detection over the tail of the measured EOTF ramp.
const (
	clampSampleCount = 4
	clampTolerance   = 0.01
)

// EOTFClampingValidation checks the last ramp samples per channel for values
// close enough to suggest highlight clamping.
func EOTFClampingValidation(results *CalibrationResults) ValidationResult {
	result := ValidationResult{Name: "EOTF Clamping Validation", Status: StatusPass}

	ramps := results.PreEOTFRamps
	if len(ramps) < clampSampleCount {
		return result
	}
	tail := ramps[len(ramps)-clampSampleCount:]

	var messages []string
	for channel, name := range [3]string{"red", "green", "blue"} {
		values := make([]float64, len(tail))
		for i, sample := range tail {
			values[i] = sample[channel]
		}
		if anyPairClose(values, clampTolerance) {
			result.Status = StatusFail
			messages = append(messages, fmt.Sprintf(
				"the last %d EOTF samples in the %s channel hold near-identical values, "+
					"which suggests they are being clamped",
				clampSampleCount, name))
		}
	}

	result.Message = strings.Join(messages, "\n")
	return result
}

// anyPairClose reports whether any two values are within tolerance of each
// other.
func anyPairClose(values []float64, tolerance float64) bool {
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			if math.Abs(values[i]-values[j]) <= tolerance {
				return true
			}
		}
	}
	return false
}

// perceivableDeltaELimit is the delta-E below which a calibration gains
// nothing perceivable.
const perceivableDeltaELimit = 3.0

// GamutDeltaEValidation warns when every RGBW delta-E is already below the
// perceivable limit: the wall likely does not need calibrating.
func GamutDeltaEValidation(results *CalibrationResults) ValidationResult {
	result := ValidationResult{Name: "Gamut Delta Validation", Status: StatusPass}

	for _, value := range results.DeltaERGBW {
		if value > perceivableDeltaELimit {
			return result
		}
	}

	result.Status = StatusWarning
	result.Message = "the LED wall as viewed by the camera is within a perceivable tolerance; " +
		"this wall may not need calibrating"
	return result
}
