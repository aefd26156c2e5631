package clock

import "testing"

func TestNowMonotonicNonDecreasing(t *testing.T) {
	m1, _ := Now()
	m2, _ := Now()
	if m2 < m1 {
		t.Errorf("monotonic clock went backwards: %d then %d", m1, m2)
	}
}

func TestNowRealIsPlausible(t *testing.T) {
	_, real := Now()
	// Sanity bound: some time after 2020-01-01 in nanoseconds since epoch.
	const y2020Ns = 1577836800 * uint64(1e9)
	if real < y2020Ns {
		t.Errorf("real time %d ns looks implausible (before 2020)", real)
	}
}
