package separation

// findPeaks returns the indices of local maxima in the series whose value is
// at least minHeight. A plateau of equal values flanked by strictly smaller
// neighbours counts as a single peak at the plateau midpoint. The first and
// last samples can never be peaks.
func findPeaks(series []float64, minHeight float64) []int {
	var peaks []int
	i := 1
	for i < len(series)-1 {
		if series[i-1] >= series[i] {
			i++
			continue
		}

		// Walk across a possible plateau of equal values.
		ahead := i + 1
		for ahead < len(series)-1 && series[ahead] == series[i] {
			ahead++
		}

		if series[ahead] < series[i] {
			mid := (i + ahead - 1) / 2
			if series[mid] >= minHeight {
				peaks = append(peaks, mid)
			}
			i = ahead
			continue
		}
		i = ahead
	}
	return peaks
}
