// Package stats computes the per-core summary the sampling engine reports
// at shutdown: sample count and observed average rate.
package stats

import "github.com/aclements/go-moremath/stats"

// Rate summarizes one core's observed sampling cadence.
type Rate struct {
	Count         int
	MeanInterval  float64 // mean inter-sample interval, in seconds
	StdDev        float64 // standard deviation of the interval, in seconds
	SamplesPerSec float64
}

// FromMonotonicNs computes a Rate from a core's sequence of
// monotonic_time_ns values, in production order. If fewer than two samples
// are present (no interval is defined), only Count is set.
func FromMonotonicNs(monotonicNs []uint64) Rate {
	n := len(monotonicNs)
	if n < 2 {
		return Rate{Count: n}
	}
	intervals := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		intervals = append(intervals, float64(monotonicNs[i]-monotonicNs[i-1])/1e9)
	}
	s := stats.Sample{Xs: intervals}
	mean := s.Mean()
	sd := s.StdDev()

	rate := Rate{Count: n, MeanInterval: mean, StdDev: sd}
	if mean > 0 {
		rate.SamplesPerSec = 1 / mean
	}
	return rate
}
