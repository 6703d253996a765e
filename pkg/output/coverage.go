package output

import "github.com/danpilch/stackprof/pkg/session"

// Coverage returns the share of the session's wall-clock span that is
// accounted for by sample durations, between 0 and 1.
func Coverage(s *session.Session) float64 {
	if s.Duration() <= 0 {
		return 0
	}
	c := float64(s.SampledDuration()) / float64(s.Duration())
	if c > 1 {
		c = 1
	}
	return c
}

// CoverageLabel returns a human-readable label for a coverage value.
func CoverageLabel(c float64) string {
	if c >= 0.9 {
		return "Dense"
	}
	if c >= 0.5 {
		return "Partial"
	}
	return "Sparse"
}
