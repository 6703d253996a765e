// Package benchmark measures the overhead of the capture callback.
package benchmark

import (
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/stackprof/pkg/capture"
	"github.com/danpilch/stackprof/pkg/clock"
	"github.com/danpilch/stackprof/pkg/frame"
	"github.com/danpilch/stackprof/pkg/profiler"
)

// Options configures a benchmark run.
type Options struct {
	Iterations int
	Warmup     int
	// Depth is the length of the synthetic call chain.
	Depth int
}

// DefaultOptions returns sensible benchmark defaults.
func DefaultOptions() Options {
	return Options{
		Iterations: 10_000,
		Warmup:     100,
		Depth:      32,
	}
}

// Scenario is one way of driving the recorder.
type Scenario struct {
	Name     string
	Interval time.Duration
	Tag      capture.EventTag
}

// DefaultScenarios covers the accepted and the throttled path.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "accept/sample", Interval: 0, Tag: capture.EventSample},
		{Name: "accept/call", Interval: 0, Tag: capture.EventCall},
		{Name: "throttled", Interval: time.Hour, Tag: capture.EventSample},
	}
}

// Result holds the latencies of one scenario.
type Result struct {
	Scenario  string
	Latencies []time.Duration
	P50       time.Duration
	P95       time.Duration
	P99       time.Duration
	Recorded  int
}

// Overhead holds the allocation cost of a benchmark run.
type Overhead struct {
	AllocBytes uint64
	AllocCount uint64
	GCPauses   uint32
}

var (
	bmTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bmHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	bmDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// syntheticChain builds a chain of depth records.
func syntheticChain(depth int) (*frame.Arena, frame.Index) {
	a := frame.NewArena(depth)
	idx := frame.NoParent
	for i := 0; i < depth; i++ {
		idx = a.PushCaller(idx, fmt.Sprintf("bench.level%d", i), "bench.go", i*10+1, i*10+2)
	}
	return a, idx
}

// Run benchmarks each scenario and reports the allocation overhead of all
// of them together.
func Run(scenarios []Scenario, opts Options) ([]Result, Overhead) {
	arena, leaf := syntheticChain(opts.Depth)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)

	results := make([]Result, 0, len(scenarios))
	for _, sc := range scenarios {
		start := time.Now()
		rec := profiler.NewRecorder(sc.Interval, clock.System{}, capture.DefaultSkipPolicy, start)

		for i := 0; i < opts.Warmup; i++ {
			rec.Record(arena, leaf, sc.Tag)
		}

		latencies := make([]time.Duration, opts.Iterations)
		for i := 0; i < opts.Iterations; i++ {
			t0 := time.Now()
			rec.Record(arena, leaf, sc.Tag)
			latencies[i] = time.Since(t0)
		}
		recorded := len(rec.Close())

		// Sort latencies for percentile calculation
		sort.Slice(latencies, func(i, j int) bool {
			return latencies[i] < latencies[j]
		})

		results = append(results, Result{
			Scenario:  sc.Name,
			Latencies: latencies,
			P50:       percentile(latencies, 0.50),
			P95:       percentile(latencies, 0.95),
			P99:       percentile(latencies, 0.99),
			Recorded:  recorded,
		})
	}

	runtime.ReadMemStats(&after)
	return results, Overhead{
		AllocBytes: after.TotalAlloc - before.TotalAlloc,
		AllocCount: after.Mallocs - before.Mallocs,
		GCPauses:   after.NumGC - before.NumGC,
	}
}

// RenderResults outputs styled benchmark results.
func RenderResults(w io.Writer, opts Options, results []Result, overhead Overhead) {
	fmt.Fprintln(w, bmTitle.Render("Capture Callback Overhead"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("═", 70)))
	fmt.Fprintf(w, "%d iterations, chain depth %d\n\n", opts.Iterations, opts.Depth)
	fmt.Fprintf(w, "  %s %s %s %s %s\n",
		bmHeader.Render("SCENARIO          "),
		bmHeader.Render("P50        "),
		bmHeader.Render("P95        "),
		bmHeader.Render("P99        "),
		bmHeader.Render("RECORDED  "))
	fmt.Fprintln(w, "  "+bmDim.Render(strings.Repeat("─", 70)))

	for _, r := range results {
		fmt.Fprintf(w, "  %-20s %-12v %-12v %-12v %d\n",
			r.Scenario, r.P50, r.P95, r.P99, r.Recorded)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bmTitle.Render("Allocation Overhead"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(w, "  Memory allocated: %s\n", lipgloss.NewStyle().Bold(true).Render(formatBytes(overhead.AllocBytes)))
	fmt.Fprintf(w, "  Allocations:      %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", overhead.AllocCount)))
	fmt.Fprintf(w, "  GC cycles:        %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", overhead.GCPauses)))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
