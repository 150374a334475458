package features

import "gonum.org/v1/gonum/stat"

// LaggedRollingMean returns, at each position i, the mean of the up to window
// values strictly before i. Positions with fewer than minPeriods prior values
// get zero. The value at i never depends on series[i] or anything after it.
func LaggedRollingMean(series []float64, window, minPeriods int) []float64 {
	out := make([]float64, len(series))
	for i := range series {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		prior := series[lo:i]
		if len(prior) == 0 || len(prior) < minPeriods {
			continue
		}
		out[i] = stat.Mean(prior, nil)
	}
	return out
}

// LaggedExpandingMean returns, at each position i, the mean of every earlier
// value whose include flag is set, or zero when there is none yet.
func LaggedExpandingMean(series []float64, include []bool) []float64 {
	out := make([]float64, len(series))
	var sum float64
	var n int
	for i := range series {
		if n > 0 {
			out[i] = sum / float64(n)
		}
		if include[i] {
			sum += series[i]
			n++
		}
	}
	return out
}
