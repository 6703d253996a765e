package profiler

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/stackprof/pkg/capture"
	"github.com/danpilch/stackprof/pkg/clock"
)

// DefaultInterval is the minimum time between two accepted samples.
const DefaultInterval = time.Millisecond

// Options configures a Profiler.
type Options struct {
	// Interval is the minimum spacing of accepted samples.
	Interval time.Duration
	// Program identifies the profiled program in the session.
	Program string
	// SkipPolicy decides how many synthetic innermost records are dropped
	// per event tag.
	SkipPolicy capture.SkipPolicy

	Clock    clock.Clock
	CPUClock clock.CPUClock
	Logger   *logrus.Logger

	// Deprecated: capture is always driven by the Source. Setting it only
	// logs a warning.
	UseSignal *bool
	// Deprecated: samples are always kept in memory. Setting it only logs a
	// warning.
	Recorder any
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Interval:   DefaultInterval,
		Program:    strings.Join(os.Args, " "),
		SkipPolicy: capture.DefaultSkipPolicy,
		Clock:      clock.System{},
		CPUClock:   clock.ProcessCPU(),
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Interval == 0 {
		o.Interval = d.Interval
	}
	if o.Program == "" {
		o.Program = d.Program
	}
	if o.SkipPolicy == nil {
		o.SkipPolicy = d.SkipPolicy
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	if o.CPUClock == nil {
		o.CPUClock = d.CPUClock
	}
	if o.Logger == nil {
		o.Logger = logrus.New()
		o.Logger.SetLevel(logrus.WarnLevel)
	}
	return o
}

// warnDeprecated reports deprecated options that were set.
func (o Options) warnDeprecated() {
	if o.UseSignal != nil {
		o.Logger.WithField("deprecated", "UseSignal").
			Warn("UseSignal is deprecated and should no longer be used")
	}
	if o.Recorder != nil {
		o.Logger.WithField("deprecated", "Recorder").
			Warn("Recorder is deprecated and should no longer be used")
	}
}
