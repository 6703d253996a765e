package clock

import "time"

// CPUClock reports CPU time consumed by the current process.
type CPUClock interface {
	// CPUTime returns the consumed user+system time. ok is false when the
	// host has no CPU-time clock.
	CPUTime() (d time.Duration, ok bool)
}

// NoCPU is a CPUClock for hosts without a CPU-time clock.
type NoCPU struct{}

// CPUTime always reports absent.
func (NoCPU) CPUTime() (time.Duration, bool) { return 0, false }

// ProcessCPU returns the CPU clock of the host.
func ProcessCPU() CPUClock {
	return processCPU{}
}

// FixedCPU is a CPUClock for tests that reports a settable value.
type FixedCPU struct {
	Value time.Duration
}

// CPUTime returns the stored value.
func (f *FixedCPU) CPUTime() (time.Duration, bool) { return f.Value, true }
