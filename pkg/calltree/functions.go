package calltree

import (
	"slices"
	"strings"
	"time"

	"github.com/danpilch/stackprof/pkg/frame"
	"github.com/danpilch/stackprof/pkg/session"
)

// FunctionStat is the flat profile entry of one call site.
type FunctionStat struct {
	Key  frame.Key
	Self time.Duration
	// Total counts each sample once even when the call site recurses.
	Total   time.Duration
	Samples int
}

// Functions aggregates s per call site, ordered by self time, longest first.
func Functions(s *session.Session) []FunctionStat {
	stats := make(map[frame.Key]*FunctionStat)
	get := func(k frame.Key) *FunctionStat {
		st, ok := stats[k]
		if !ok {
			st = &FunctionStat{Key: k}
			stats[k] = st
		}
		return st
	}

	seen := make(map[frame.Key]bool)
	for i := 0; i < s.SampleCount(); i++ {
		sm := s.Sample(i)
		clear(seen)
		for _, k := range sm.Stack {
			if seen[k] {
				continue
			}
			seen[k] = true
			st := get(k)
			st.Total += sm.Duration
			st.Samples++
		}
		if leaf, ok := sm.Stack.Leaf(); ok {
			get(leaf).Self += sm.Duration
		}
	}

	out := make([]FunctionStat, 0, len(stats))
	for _, st := range stats {
		out = append(out, *st)
	}
	slices.SortFunc(out, func(a, b FunctionStat) int {
		if a.Self != b.Self {
			if a.Self > b.Self {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Key.ID(), b.Key.ID())
	})
	return out
}
