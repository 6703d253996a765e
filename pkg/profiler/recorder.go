package profiler

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/danpilch/stackprof/pkg/capture"
	"github.com/danpilch/stackprof/pkg/clock"
	"github.com/danpilch/stackprof/pkg/frame"
	"github.com/danpilch/stackprof/pkg/session"
)

const (
	recorderIdle int32 = iota
	recorderBusy
	recorderClosed
)

// Recorder is the capture callback. It drops events that arrive less than
// one interval after the last accepted sample and records everything else.
//
// Record never blocks, never logs and never fails: it runs inside whatever
// code the capture source interrupted. Concurrent deliveries are serialized
// with a compare-and-set; an event that finds the recorder busy or closed is
// dropped.
type Recorder struct {
	interval time.Duration
	clock    clock.Clock
	skip     capture.SkipPolicy

	state   atomic.Int32
	primed  bool
	last    time.Time
	samples []session.Sample
}

// NewRecorder returns a recorder whose run starts at start.
func NewRecorder(interval time.Duration, c clock.Clock, skip capture.SkipPolicy, start time.Time) *Recorder {
	if skip == nil {
		skip = capture.DefaultSkipPolicy
	}
	return &Recorder{
		interval: interval,
		clock:    c,
		skip:     skip,
		last:     start,
		samples:  make([]session.Sample, 0, 1024),
	}
}

// Callback returns Record as a capture.Callback.
func (r *Recorder) Callback() capture.Callback {
	return r.Record
}

// Record handles one capture event.
func (r *Recorder) Record(chain *frame.Arena, leaf frame.Index, tag capture.EventTag) {
	if !r.state.CompareAndSwap(recorderIdle, recorderBusy) {
		return
	}
	defer r.state.CompareAndSwap(recorderBusy, recorderIdle)

	now := r.clock.Now()
	elapsed := now.Sub(r.last)
	// The first event of a run is always taken, measured from the run start.
	if r.primed && elapsed < r.interval {
		return
	}
	if elapsed < 0 {
		elapsed = 0
	}

	stack := frame.BuildSnapshot(chain, leaf, r.skip(tag))
	r.samples = append(r.samples, session.Sample{Stack: stack, Duration: elapsed})
	r.last = now
	r.primed = true
}

// Close stops accepting events and waits for a delivery in progress. It
// returns the recorded samples; the recorder must not be used afterwards.
func (r *Recorder) Close() []session.Sample {
	for !r.state.CompareAndSwap(recorderIdle, recorderClosed) {
		if r.state.Load() == recorderClosed {
			break
		}
		runtime.Gosched()
	}
	return r.samples
}
