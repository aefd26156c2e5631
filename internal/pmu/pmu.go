// Package pmu programs the fixed set of architectural performance counters
// this sampler reads: LLC loads, LLC misses, and instructions retired. The
// event/umask encodings target Intel Haswell/Broadwell-class (E5 v3) server
// processors and are not table-driven — extending this to other events or
// microarchitectures is out of scope (see spec's Non-goals).
package pmu

import "github.com/aclements/corecounter/internal/msr"

// MSR addresses, per the Intel SDM and the E5 v3 uncore/PMU layout.
const (
	globalCtrl = 0x38F // IA32_PERF_GLOBAL_CTRL
	evtSel0    = 0x186 // IA32_PERFEVTSEL0 -- LLC loads
	evtSel1    = 0x187 // IA32_PERFEVTSEL1 -- LLC misses
	evtSel2    = 0x188 // IA32_PERFEVTSEL2 -- instructions retired
	pmc0       = 0xC1  // IA32_PMC0
	pmc1       = 0xC2  // IA32_PMC1
	pmc2       = 0xC3  // IA32_PMC2
)

const (
	llcLoadsEvent     = 0x2E
	llcLoadsUmask     = 0x4F
	llcMissesEvent    = 0x2E
	llcMissesUmask    = 0x41
	instrRetiredEvent = 0xC0
	instrRetiredUmask = 0x00

	usrBit    = 1 << 16
	enableBit = 1 << 22

	armAll = 0x7 // enable counters 0, 1, 2
)

func eventSelect(event, umask uint64) uint64 {
	return event | (umask << 8) | usrBit | enableBit
}

// Counter identifies one of the three fixed PMC registers in declaration
// order, matching the order counters must be read in during a sample.
type Counter int

const (
	CounterLLCLoads Counter = iota
	CounterLLCMisses
	CounterInstrRetired
	numCounters
)

var pmcAddr = [numCounters]uint32{pmc0, pmc1, pmc2}

// Read returns the raw value of the given counter via h.
func Read(h *msr.Handle, c Counter) (uint64, error) {
	return h.Read(pmcAddr[c])
}

// Program disarms all counters, configures the three fixed event/umask
// pairs with user-mode-only monitoring, zeroes the data counters, and arms
// counters 0-2. It must run before the first sample is taken on h.
func Program(h *msr.Handle) error {
	if err := h.Write(globalCtrl, 0); err != nil {
		return err
	}
	selects := [numCounters]struct {
		reg          uint32
		event, umask uint64
	}{
		{evtSel0, llcLoadsEvent, llcLoadsUmask},
		{evtSel1, llcMissesEvent, llcMissesUmask},
		{evtSel2, instrRetiredEvent, instrRetiredUmask},
	}
	for _, s := range selects {
		if err := h.Write(s.reg, eventSelect(s.event, s.umask)); err != nil {
			return err
		}
	}
	for _, reg := range pmcAddr {
		if err := h.Write(reg, 0); err != nil {
			return err
		}
	}
	return h.Write(globalCtrl, armAll)
}

// Disarm writes 0 to the global control register, disabling all counters.
// It is the only operation PMU teardown performs.
func Disarm(h *msr.Handle) error {
	return h.Write(globalCtrl, 0)
}
