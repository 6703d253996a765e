package crosscheck

import (
	"fmt"
	"runtime"
	"time"

	"github.com/danpilch/stackprof/pkg/session"
)

// SanityResult holds the outcome of a constraint check.
type SanityResult struct {
	Check   string `json:"check"`
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

func pass(check, format string, args ...any) SanityResult {
	return SanityResult{Check: check, Passed: true, Details: fmt.Sprintf(format, args...)}
}

func fail(check, format string, args ...any) SanityResult {
	return SanityResult{Check: check, Passed: false, Details: fmt.Sprintf(format, args...)}
}

// RunSanityChecks validates a session against the constraints every
// recorded session satisfies.
func RunSanityChecks(s *session.Session) []SanityResult {
	var results []SanityResult

	negative, emptyFrames, badLines := 0, 0, 0
	for i := 0; i < s.SampleCount(); i++ {
		sample := s.Sample(i)
		if sample.Duration < 0 {
			negative++
		}
		for _, k := range sample.Stack {
			if k.Function == "" {
				emptyFrames++
			}
			if k.FirstLine < 0 {
				badLines++
			}
		}
	}

	if negative > 0 {
		results = append(results, fail("sample durations", "%d negative durations", negative))
	} else {
		results = append(results, pass("sample durations", "%d samples, none negative", s.SampleCount()))
	}

	if emptyFrames > 0 || badLines > 0 {
		results = append(results, fail("frame keys", "%d unnamed frames, %d negative first lines", emptyFrames, badLines))
	} else {
		results = append(results, pass("frame keys", "all frames named"))
	}

	// Durations run from the previous accepted sample, so their sum is the
	// time up to the last sample.
	sampled := s.SampledDuration()
	if sampled > s.Duration() {
		results = append(results, fail("sampled time", "%v sampled exceeds %v wall time", sampled, s.Duration()))
	} else {
		results = append(results, pass("sampled time", "%v of %v wall time", sampled, s.Duration()))
	}

	if cpu, ok := s.CPUTime(); ok {
		limit := s.Duration() * time.Duration(runtime.NumCPU())
		switch {
		case cpu < 0:
			results = append(results, fail("cpu time", "negative cpu time: %v", cpu))
		case cpu > limit:
			results = append(results, fail("cpu time", "%v exceeds %v (%d cpus)", cpu, limit, runtime.NumCPU()))
		default:
			results = append(results, pass("cpu time", "%v within %v (%d cpus)", cpu, limit, runtime.NumCPU()))
		}
	}

	return results
}
