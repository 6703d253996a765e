package capture

import (
	"bytes"
	"context"
	"runtime/pprof"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/google/pprof/profile"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/stackprof/pkg/frame"
)

// LabelKey is the pprof label used to mark goroutines followed by a
// GoroutineSource.
const LabelKey = "stackprof"

// GoroutineSource samples the stack of a labelled goroutine from a timer. On
// every tick it takes a goroutine profile and delivers the stack of the first
// goroutine that carries the source's label.
type GoroutineSource struct {
	label  string
	logger *logrus.Logger

	mu   sync.Mutex
	stop func()

	// Only touched from the timer goroutine.
	buf   bytes.Buffer
	arena *frame.Arena
}

var _ Source = (*GoroutineSource)(nil)

// NewGoroutineSource returns a source following goroutines labelled with
// label.
func NewGoroutineSource(label string, logger *logrus.Logger) *GoroutineSource {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &GoroutineSource{
		label:  label,
		logger: logger,
		arena:  frame.NewArena(64),
	}
}

// Label returns the label value this source follows.
func (s *GoroutineSource) Label() string {
	return s.label
}

// Track runs fn on the calling goroutine with the source's label attached.
// Goroutines started by fn inherit the label.
func (s *GoroutineSource) Track(ctx context.Context, fn func(context.Context)) {
	pprof.Do(ctx, pprof.Labels(LabelKey, s.label), fn)
}

// Register implements Source.
func (s *GoroutineSource) Register(cb Callback, interval time.Duration) error {
	if cb == nil {
		return errors.New("nil callback")
	}
	if interval <= 0 {
		return errors.Errorf("invalid interval %v", interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return errors.New("goroutine source already registered")
	}

	s.logger.WithFields(logrus.Fields{
		"label":    s.label,
		"interval": interval,
	}).Debug("Arming goroutine sampler")

	s.stop = startPeriodic(context.Background(), interval, func() {
		s.capture(cb)
	})
	return nil
}

// Deregister implements Source.
func (s *GoroutineSource) Deregister() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	s.stop()
	s.stop = nil
	s.logger.WithField("label", s.label).Debug("Goroutine sampler disarmed")
}

func (s *GoroutineSource) capture(cb Callback) {
	s.buf.Reset()
	if err := pprof.Lookup("goroutine").WriteTo(&s.buf, 0); err != nil {
		s.logger.WithError(err).Debug("Goroutine profile failed")
		return
	}
	prof, err := profile.Parse(&s.buf)
	if err != nil {
		s.logger.WithError(err).Debug("Goroutine profile unreadable")
		return
	}

	s.arena.Reset()
	leaf, ok := chainFor(s.arena, prof, s.label)
	if !ok {
		// The followed goroutine is not alive, nothing to observe.
		return
	}
	cb(s.arena, leaf, EventSample)
}

// chainFor stores the stack of the first sample labelled with label into
// arena and returns its innermost record.
func chainFor(arena *frame.Arena, prof *profile.Profile, label string) (frame.Index, bool) {
	for _, sample := range prof.Sample {
		if !hasLabel(sample, label) {
			continue
		}

		idx := frame.NoParent
		// Locations are leaf first, and so are the inlined lines inside each
		// location.
		for i := len(sample.Location) - 1; i >= 0; i-- {
			loc := sample.Location[i]
			for j := len(loc.Line) - 1; j >= 0; j-- {
				ln := loc.Line[j]
				if ln.Function == nil || isRuntimeExit(ln.Function.Name) {
					continue
				}
				idx = arena.PushCaller(idx, ln.Function.Name, ln.Function.Filename,
					int(ln.Function.StartLine), int(ln.Line))
			}
		}
		return idx, true
	}
	return frame.NoParent, false
}

func hasLabel(sample *profile.Sample, label string) bool {
	for _, v := range sample.Label[LabelKey] {
		if v == label {
			return true
		}
	}
	return false
}
