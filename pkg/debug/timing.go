package debug

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	debugTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	debugHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	debugDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// PhaseTiming records the duration of one named phase of a command.
type PhaseTiming struct {
	Name     string
	Duration time.Duration
}

// Stopwatch collects phase timings in the order they finish.
type Stopwatch struct {
	mu      sync.Mutex
	now     func() time.Time
	timings []PhaseTiming
}

// NewStopwatch returns an empty stopwatch.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{now: time.Now}
}

// Phase starts timing name. Call the returned function when it ends.
func (s *Stopwatch) Phase(name string) func() {
	start := s.now()
	return func() {
		d := s.now().Sub(start)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.timings = append(s.timings, PhaseTiming{Name: name, Duration: d})
	}
}

// Time runs fn as the phase name.
func (s *Stopwatch) Time(name string, fn func() error) error {
	done := s.Phase(name)
	defer done()
	return fn()
}

// Timings returns a copy of the recorded timings.
func (s *Stopwatch) Timings() []PhaseTiming {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PhaseTiming, len(s.timings))
	copy(out, s.timings)
	return out
}

// TimingReport prints a styled timing summary for all recorded phases.
func TimingReport(w io.Writer, timings []PhaseTiming) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Phase Timing Report"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 40)))
	fmt.Fprintf(w, "  %s  %s\n",
		debugHeader.Render("PHASE              "),
		debugHeader.Render("DURATION    "))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 40)))

	var total time.Duration
	for _, t := range timings {
		fmt.Fprintf(w, "  %-20s %v\n", t.Name, t.Duration)
		total += t.Duration
	}
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(w, "  %-20s %v\n",
		lipgloss.NewStyle().Bold(true).Render("TOTAL"), total)
}
