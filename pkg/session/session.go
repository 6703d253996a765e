// Package session holds the immutable result of one profiling run.
package session

import (
	"slices"
	"time"

	"github.com/danpilch/stackprof/pkg/frame"
)

// Sample is one accepted observation. Duration is the time elapsed since the
// previous accepted sample, or since the run started for the first one.
type Sample struct {
	Stack    frame.Snapshot
	Duration time.Duration
}

// Params are the inputs for New.
type Params struct {
	Samples  []Sample
	Start    time.Time
	Duration time.Duration
	// CPUTime is only meaningful when HasCPUTime is set.
	CPUTime    time.Duration
	HasCPUTime bool
	Program    string
}

// Session is a completed profiling run. It is never modified after New
// returns; accessors hand out copies.
type Session struct {
	samples    []Sample
	start      time.Time
	duration   time.Duration
	cpuTime    time.Duration
	hasCPUTime bool
	program    string
}

// New assembles a session. The samples and their stacks are copied.
func New(p Params) *Session {
	samples := make([]Sample, len(p.Samples))
	for i, sm := range p.Samples {
		samples[i] = Sample{Stack: slices.Clone(sm.Stack), Duration: sm.Duration}
	}
	return &Session{
		samples:    samples,
		start:      p.Start,
		duration:   p.Duration,
		cpuTime:    p.CPUTime,
		hasCPUTime: p.HasCPUTime,
		program:    p.Program,
	}
}

// Samples returns a copy of the samples in capture order.
func (s *Session) Samples() []Sample {
	out := make([]Sample, len(s.samples))
	for i := range s.samples {
		out[i] = s.Sample(i)
	}
	return out
}

// Sample returns a copy of the i-th sample.
func (s *Session) Sample(i int) Sample {
	sm := s.samples[i]
	sm.Stack = slices.Clone(sm.Stack)
	return sm
}

// SampleCount returns the number of samples.
func (s *Session) SampleCount() int { return len(s.samples) }

// Start returns the wall-clock time at which the run started.
func (s *Session) Start() time.Time { return s.start }

// Duration returns the wall-clock length of the run.
func (s *Session) Duration() time.Duration { return s.duration }

// CPUTime returns the process CPU time consumed during the run. ok is false
// if the host had no CPU-time clock.
func (s *Session) CPUTime() (d time.Duration, ok bool) { return s.cpuTime, s.hasCPUTime }

// Program returns the identifier of the profiled program.
func (s *Session) Program() string { return s.program }

// SampledDuration returns the sum of all sample durations.
func (s *Session) SampledDuration() time.Duration {
	var total time.Duration
	for _, sm := range s.samples {
		total += sm.Duration
	}
	return total
}
