package output

import (
	"io"
	"slices"

	"github.com/google/pprof/profile"

	"github.com/danpilch/stackprof/pkg/frame"
	"github.com/danpilch/stackprof/pkg/session"
)

// buildPprof converts a session into a pprof profile with a sample count and
// a wall-time value per stack.
func buildPprof(s *session.Session) *profile.Profile {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "samples", Unit: "count"},
			{Type: "wall", Unit: "nanoseconds"},
		},
		PeriodType:    &profile.ValueType{Type: "wall", Unit: "nanoseconds"},
		TimeNanos:     s.Start().UnixNano(),
		DurationNanos: int64(s.Duration()),
	}
	if s.Program() != "" {
		prof.Comments = []string{s.Program()}
	}
	if n := s.SampleCount(); n > 0 {
		prof.Period = int64(s.SampledDuration()) / int64(n)
	}

	// One location per call site.
	locations := make(map[frame.Key]*profile.Location)
	loc := func(k frame.Key) *profile.Location {
		if l, ok := locations[k]; ok {
			return l
		}
		fn := &profile.Function{
			ID:         uint64(len(prof.Function) + 1),
			Name:       k.Function,
			SystemName: k.Function,
			Filename:   k.File,
			StartLine:  int64(k.FirstLine),
		}
		prof.Function = append(prof.Function, fn)
		l := &profile.Location{
			ID:   uint64(len(prof.Location) + 1),
			Line: []profile.Line{{Function: fn, Line: int64(k.FirstLine)}},
		}
		prof.Location = append(prof.Location, l)
		locations[k] = l
		return l
	}

	// Identical stacks share one sample.
	type merged struct {
		stack  frame.Snapshot
		sample *profile.Sample
	}
	buckets := make(map[uint64][]merged)
next:
	for i := 0; i < s.SampleCount(); i++ {
		sm := s.Sample(i)
		h := sm.Stack.Hash()
		for _, m := range buckets[h] {
			if m.stack.Equal(sm.Stack) {
				m.sample.Value[0]++
				m.sample.Value[1] += int64(sm.Duration)
				continue next
			}
		}

		locs := make([]*profile.Location, 0, len(sm.Stack))
		// pprof wants the leaf first.
		for _, k := range slices.Backward(sm.Stack) {
			locs = append(locs, loc(k))
		}
		ps := &profile.Sample{
			Location: locs,
			Value:    []int64{1, int64(sm.Duration)},
		}
		buckets[h] = append(buckets[h], merged{stack: sm.Stack, sample: ps})
		prof.Sample = append(prof.Sample, ps)
	}
	return prof
}

// writePprof writes s as a gzip-compressed pprof protobuf.
func writePprof(w io.Writer, s *session.Session) error {
	return buildPprof(s).Write(w)
}
