package pmu

import "testing"

func TestEventSelectEncoding(t *testing.T) {
	tests := []struct {
		event, umask uint64
		want         uint64
	}{
		{llcLoadsEvent, llcLoadsUmask, 0x2E | (0x4F << 8) | usrBit | enableBit},
		{llcMissesEvent, llcMissesUmask, 0x2E | (0x41 << 8) | usrBit | enableBit},
		{instrRetiredEvent, instrRetiredUmask, 0xC0 | usrBit | enableBit},
	}
	for _, tt := range tests {
		got := eventSelect(tt.event, tt.umask)
		if got != tt.want {
			t.Errorf("eventSelect(0x%x, 0x%x) = 0x%x, want 0x%x", tt.event, tt.umask, got, tt.want)
		}
		// User-mode bit must be set, kernel-mode bit (17) must not be.
		if got&usrBit == 0 {
			t.Errorf("eventSelect(0x%x, 0x%x): user-mode bit not set", tt.event, tt.umask)
		}
		if got&(1<<17) != 0 {
			t.Errorf("eventSelect(0x%x, 0x%x): kernel-mode bit unexpectedly set", tt.event, tt.umask)
		}
	}
}

func TestArmAllEnablesThreeCounters(t *testing.T) {
	if armAll != 0x7 {
		t.Fatalf("armAll = 0x%x, want 0x7", armAll)
	}
}
