package output

import (
	"strings"

	"github.com/danpilch/stackprof/pkg/session"
)

// sparkline block characters from lowest to highest
var sparkBlocks = []rune{
	'\u2581', // ▁
	'\u2582', // ▂
	'\u2583', // ▃
	'\u2584', // ▄
	'\u2585', // ▅
	'\u2586', // ▆
	'\u2587', // ▇
	'\u2588', // █
}

// SampleRate buckets the samples of s into width equal slices of the sampled
// span and returns the number of samples per slice.
func SampleRate(s *session.Session, width int) []float64 {
	if width < 1 || s.SampleCount() == 0 {
		return nil
	}
	span := s.SampledDuration()
	buckets := make([]float64, width)
	if span <= 0 {
		buckets[0] = float64(s.SampleCount())
		return buckets
	}

	var at int64
	for i := 0; i < s.SampleCount(); i++ {
		at += int64(s.Sample(i).Duration)
		idx := int(at * int64(width) / int64(span))
		if idx >= width {
			idx = width - 1
		}
		buckets[idx]++
	}
	return buckets
}

// Sparkline returns a Unicode sparkline for values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	// Find min and max
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	var b strings.Builder
	rng := max - min
	for _, v := range values {
		idx := 0
		if rng > 0 {
			idx = int((v - min) / rng * float64(len(sparkBlocks)-1))
		}
		if idx >= len(sparkBlocks) {
			idx = len(sparkBlocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(sparkBlocks[idx])
	}

	return b.String()
}
