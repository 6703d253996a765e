// Package workload provides a deterministic demo program to profile.
package workload

import (
	"context"
	"math/rand"
	"slices"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
)

// Marker receives instrumentation events from the workload. A
// *capture.Probe satisfies it.
type Marker interface {
	Enter()
	Mark()
}

type nopMarker struct{}

func (nopMarker) Enter() {}
func (nopMarker) Mark()  {}

// Options controls how much work each phase does.
type Options struct {
	// Fib is the argument of the recursive phase.
	Fib int
	// SortSize is the length of each slice sorted by the sort phase.
	SortSize int
	// SortRounds is the number of slices sorted.
	SortRounds int
	// Sleep is the total time spent in the sleep phase.
	Sleep time.Duration
	// Seed makes the sort input reproducible.
	Seed int64
}

// DefaultOptions returns a workload that runs for a fraction of a second.
func DefaultOptions() Options {
	return Options{
		Fib:        24,
		SortSize:   20_000,
		SortRounds: 20,
		Sleep:      50 * time.Millisecond,
		Seed:       1,
	}
}

// Result summarises a finished run.
type Result struct {
	Fib    int
	Sorted int
	Slept  time.Duration
}

// Workload runs the demo phases, reporting progress to a Marker.
type Workload struct {
	opts   Options
	marker Marker
	logger *logrus.Logger
}

// New returns a workload. A nil marker disables instrumentation.
func New(opts Options, marker Marker, logger *logrus.Logger) *Workload {
	if marker == nil {
		marker = nopMarker{}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Workload{opts: opts, marker: marker, logger: logger}
}

// Run executes every phase in order. It stops early when ctx is done.
func (w *Workload) Run(ctx context.Context) (Result, error) {
	w.marker.Enter()
	var res Result

	w.logger.WithField("n", w.opts.Fib).Debug("Running recursive phase")
	res.Fib = w.fib(w.opts.Fib)
	if err := ctx.Err(); err != nil {
		return res, errors.WrapIf(err, "workload cancelled after recursive phase")
	}

	w.logger.WithFields(logrus.Fields{
		"size":   w.opts.SortSize,
		"rounds": w.opts.SortRounds,
	}).Debug("Running sort phase")
	sorted, err := w.sortPhase(ctx)
	res.Sorted = sorted
	if err != nil {
		return res, err
	}

	w.logger.WithField("duration", w.opts.Sleep).Debug("Running sleep phase")
	slept, err := w.sleepPhase(ctx)
	res.Slept = slept
	return res, err
}

func (w *Workload) fib(n int) int {
	w.marker.Enter()
	if n < 2 {
		return n
	}
	return w.fib(n-1) + w.fib(n-2)
}

func (w *Workload) sortPhase(ctx context.Context) (int, error) {
	w.marker.Enter()
	rng := rand.New(rand.NewSource(w.opts.Seed))
	buf := make([]int, w.opts.SortSize)
	sorted := 0
	for round := 0; round < w.opts.SortRounds; round++ {
		if err := ctx.Err(); err != nil {
			return sorted, errors.WrapIff(err, "workload cancelled in sort round %d", round)
		}
		for i := range buf {
			buf[i] = rng.Int()
		}
		w.marker.Mark()
		slices.Sort(buf)
		w.marker.Mark()
		sorted += len(buf)
	}
	return sorted, nil
}

func (w *Workload) sleepPhase(ctx context.Context) (time.Duration, error) {
	w.marker.Enter()
	const step = 5 * time.Millisecond
	start := time.Now()
	for time.Since(start) < w.opts.Sleep {
		w.marker.Mark()
		select {
		case <-ctx.Done():
			return time.Since(start), errors.WrapIf(ctx.Err(), "workload cancelled in sleep phase")
		case <-time.After(step):
		}
	}
	return time.Since(start), nil
}
