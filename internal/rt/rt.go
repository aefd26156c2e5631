// Package rt provides the engine's best-effort real-time posture: thread
// pinning, FIFO scheduling at max priority, and locking pages resident.
// Every function here returns an error rather than logging; the engine
// treats a PinCurrentThread failure as fatal at startup and logs
// RequestRealtimePriority and LockMemory failures as warnings.
package rt

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// PinCurrentThread restricts the calling OS thread's CPU affinity to coreID.
// It does not lock the goroutine to its thread; callers must have already
// called runtime.LockOSThread (and keep holding it) for the duration this
// pinning should remain in effect.
func PinCurrentThread(coreID int) error {
	var set unix.CPUSet
	set.Set(coreID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("rt: set CPU affinity to core %d: %w", coreID, err)
	}
	return nil
}

// RequestRealtimePriority asks the scheduler for SCHED_FIFO at the highest
// priority the OS will grant. Typical failure mode is lacking
// CAP_SYS_NICE; that is a startup warning, not fatal.
func RequestRealtimePriority() error {
	max, err := unix.SchedGetPriorityMax(unix.SCHED_FIFO)
	if err != nil {
		return fmt.Errorf("rt: query max SCHED_FIFO priority: %w", err)
	}
	param := unix.SchedParam{Priority: int32(max)}
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, &param); err != nil {
		return fmt.Errorf("rt: set SCHED_FIFO priority %d: %w", max, err)
	}
	return nil
}

// LockMemory locks all of the calling process's current and future pages
// into RAM, so the hot loop never takes a jitter-inducing page fault.
func LockMemory() error {
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		return fmt.Errorf("rt: mlockall: %w", err)
	}
	return nil
}
