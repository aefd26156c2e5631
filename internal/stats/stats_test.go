package stats

import "testing"

func TestFromMonotonicNsEmpty(t *testing.T) {
	r := FromMonotonicNs(nil)
	if r.Count != 0 {
		t.Errorf("Count = %d, want 0", r.Count)
	}
	r = FromMonotonicNs([]uint64{100})
	if r.Count != 1 || r.MeanInterval != 0 {
		t.Errorf("single-sample Rate = %+v, want Count=1, MeanInterval=0", r)
	}
}

func TestFromMonotonicNsConstantRate(t *testing.T) {
	// 1 microsecond between each of 5 samples -> 1e6 samples/sec.
	ts := []uint64{0, 1000, 2000, 3000, 4000}
	r := FromMonotonicNs(ts)
	if r.Count != 5 {
		t.Errorf("Count = %d, want 5", r.Count)
	}
	const wantRate = 1e6
	if diff := r.SamplesPerSec - wantRate; diff > 1 || diff < -1 {
		t.Errorf("SamplesPerSec = %v, want ~%v", r.SamplesPerSec, wantRate)
	}
	if r.StdDev != 0 {
		t.Errorf("StdDev = %v, want 0 for constant interval", r.StdDev)
	}
}
