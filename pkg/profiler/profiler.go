// Package profiler implements the sampling controller: it arms a capture
// source with a throttling recorder and turns each start/stop run into a
// session.
package profiler

import (
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/stackprof/pkg/capture"
	"github.com/danpilch/stackprof/pkg/session"
)

// Profiler owns the lifecycle of profiling runs. Start and Stop are not safe
// for concurrent use; callers sharing a Profiler between goroutines must
// serialize them.
type Profiler struct {
	opts   Options
	source capture.Source
	logger *logrus.Logger

	running   bool
	rec       *Recorder
	startWall time.Time
	startMono time.Time
	startCPU  time.Duration
	hasCPU    bool

	// last backs the deprecated accessors only.
	last *session.Session
}

// New returns a profiler delivering runs from source.
func New(source capture.Source, opts Options) (*Profiler, error) {
	if source == nil {
		return nil, errors.New("nil capture source")
	}
	opts = opts.withDefaults()
	if opts.Interval < 0 {
		return nil, errors.Errorf("invalid interval %v", opts.Interval)
	}
	opts.warnDeprecated()

	return &Profiler{
		opts:   opts,
		source: source,
		logger: opts.Logger,
	}, nil
}

// Interval returns the configured sampling interval.
func (p *Profiler) Interval() time.Duration { return p.opts.Interval }

// Running reports whether a run is active.
func (p *Profiler) Running() bool { return p.running }

// Start begins a run.
func (p *Profiler) Start() error {
	if p.running {
		return ErrAlreadyRunning
	}

	p.startWall = p.opts.Clock.Wall()
	p.startCPU, p.hasCPU = p.opts.CPUClock.CPUTime()
	p.startMono = p.opts.Clock.Now()
	p.rec = NewRecorder(p.opts.Interval, p.opts.Clock, p.opts.SkipPolicy, p.startMono)

	if err := p.source.Register(p.rec.Callback(), p.opts.Interval); err != nil {
		p.rec = nil
		return errors.WrapIf(err, "failed to arm capture source")
	}
	p.running = true

	p.logger.WithFields(logrus.Fields{
		"interval": p.opts.Interval,
		"cpu":      p.hasCPU,
	}).Debug("Profiling started")
	return nil
}

// Stop ends the run and returns its session.
func (p *Profiler) Stop() (*session.Session, error) {
	if !p.running {
		return nil, ErrNotRunning
	}

	p.source.Deregister()
	samples := p.rec.Close()

	params := session.Params{
		Samples:  samples,
		Start:    p.startWall,
		Duration: p.opts.Clock.Now().Sub(p.startMono),
		Program:  p.opts.Program,
	}
	if p.hasCPU {
		if now, ok := p.opts.CPUClock.CPUTime(); ok {
			params.CPUTime = now - p.startCPU
			params.HasCPUTime = true
		}
	}
	s := session.New(params)

	p.running = false
	p.rec = nil
	p.last = s

	p.logger.WithFields(logrus.Fields{
		"samples":  s.SampleCount(),
		"duration": s.Duration(),
	}).Debug("Profiling stopped")
	return s, nil
}

// Run profiles fn. Stop is called even if fn panics; the panic continues
// after the session is assembled.
func (p *Profiler) Run(fn func() error) (s *session.Session, err error) {
	if err := p.Start(); err != nil {
		return nil, err
	}
	defer func() {
		var stopErr error
		s, stopErr = p.Stop()
		if err == nil {
			err = stopErr
		}
	}()
	return nil, fn()
}
