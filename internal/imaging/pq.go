package imaging

import "math"

// SMPTE ST 2084 (PQ) constants.
const (
	pqM1 = 2610.0 / 16384.0
	pqM2 = 2523.0 / 4096.0 * 128.0
	pqC1 = 3424.0 / 4096.0
	pqC2 = 2413.0 / 4096.0 * 32.0
	pqC3 = 2392.0 / 4096.0 * 32.0
)

// NitsToPQ encodes an absolute luminance in nits as a PQ code value in [0, 1].
func NitsToPQ(nits float64) float64 {
	y := math.Pow(nits/10000.0, pqM1)
	return math.Pow((pqC1+pqC2*y)/(1.0+pqC3*y), pqM2)
}

// PQToNits decodes a PQ code value in [0, 1] to absolute luminance in nits.
func PQToNits(pq float64) float64 {
	v := math.Pow(pq, 1.0/pqM2)
	num := v - pqC1
	if num < 0 {
		num = 0
	}
	return math.Pow(num/(pqC2-pqC3*v), 1.0/pqM1) * 10000.0
}

// GreySignals returns the numGreyPatches+1 signal values of the EOTF ramp,
// PQ spaced from black to the target peak luminance and scaled so that 1.0
// is 100 nits.
func GreySignals(targetMaxLumNits float64, numGreyPatches int) []float64 {
	signals := make([]float64, 0, numGreyPatches+1)
	maxPQ := NitsToPQ(targetMaxLumNits)
	perPatch := maxPQ / float64(numGreyPatches)
	for i := 0; i <= numGreyPatches; i++ {
		signals = append(signals, PQToNits(float64(i)*perPatch)*0.01)
	}
	return signals
}
