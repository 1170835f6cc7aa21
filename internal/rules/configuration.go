package rules

// ConfigurationCheck inspects the calibration results and recommends a value
// for one settings parameter.
type ConfigurationCheck func(results *CalibrationResults) ConfigurationResult

// Configuration runs an ordered list of configuration checks. Checks are
// bound at construction and independent of one another.
type Configuration struct {
	checks []ConfigurationCheck
}

// NewConfiguration returns the engine with the standard checks registered.
func NewConfiguration() *Configuration {
	return &Configuration{
		checks: []ConfigurationCheck{
			DecideEOTFCorrection,
			DecideGamutCompression,
		},
	}
}

// NewConfigurationWithChecks returns an engine running only the given checks,
// in the given order.
func NewConfigurationWithChecks(checks ...ConfigurationCheck) *Configuration {
	return &Configuration{checks: checks}
}

// Run executes every registered check and returns the recommendations in
// registration order.
func (c *Configuration) Run(results *CalibrationResults) []ConfigurationResult {
	out := make([]ConfigurationResult, 0, len(c.checks))
	for _, check := range c.checks {
		out = append(out, check(results))
	}
	return out
}

// eotfLinearityLower and eotfLinearityUpper bound the acceptable linearity
// ratio of the measured EOTF; outside this band the wall needs EOTF
// correction applied.
const (
	eotfLinearityLower = 0.9
	eotfLinearityUpper = 1.1
)

// DecideEOTFCorrection recommends enabling EOTF correction when any channel
// of the usable linearity samples strays outside the tolerance band.
func DecideEOTFCorrection(results *CalibrationResults) ConfigurationResult {
	result := ConfigurationResult{Param: ParamEnableEOTFCorrection}

	for _, sample := range validRampSamples(results.EOTFLinearity) {
		for _, channel := range sample {
			if channel < eotfLinearityLower || channel > eotfLinearityUpper {
				result.Value = true
				return result
			}
		}
	}
	return result
}

// maxDistanceLimit is the furthest out-of-gamut excursion tolerated before
// gamut compression does more good than harm.
const maxDistanceLimit = 1.1

// DecideGamutCompression recommends enabling gamut compression when any
// primary's maximum distance exceeds the tolerable limit.
func DecideGamutCompression(results *CalibrationResults) ConfigurationResult {
	result := ConfigurationResult{Param: ParamEnableGamutCompression}

	for _, distance := range results.MaxDistances {
		if distance > maxDistanceLimit {
			result.Value = true
			break
		}
	}
	return result
}
