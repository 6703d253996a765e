package debug

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/stackprof/pkg/capture"
	"github.com/danpilch/stackprof/pkg/frame"
)

// TraceSource wraps a capture source and logs every event it delivers at
// trace level. The logging runs inside the capture path, so it is only
// meant for diagnosing a source.
type TraceSource struct {
	inner  capture.Source
	logger *logrus.Logger
	events atomic.Int64
}

// NewTraceSource wraps inner.
func NewTraceSource(inner capture.Source, logger *logrus.Logger) *TraceSource {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &TraceSource{inner: inner, logger: logger}
}

// Register registers a logging wrapper around cb with the inner source.
func (t *TraceSource) Register(cb capture.Callback, interval time.Duration) error {
	t.logger.WithField("interval", interval).Trace("registering capture callback")
	return t.inner.Register(func(a *frame.Arena, leaf frame.Index, tag capture.EventTag) {
		n := t.events.Add(1)
		fields := logrus.Fields{"event": n, "tag": tag.String()}
		if r := a.At(leaf); r != nil {
			fields["function"] = r.Function
			fields["line"] = r.Line
		}
		t.logger.WithFields(fields).Trace("capture event")
		cb(a, leaf, tag)
	}, interval)
}

// Deregister deregisters from the inner source.
func (t *TraceSource) Deregister() {
	t.inner.Deregister()
	t.logger.WithField("events", t.events.Load()).Trace("capture callback deregistered")
}

// Events returns the number of events delivered so far.
func (t *TraceSource) Events() int64 {
	return t.events.Load()
}
