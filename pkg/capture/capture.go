// Package capture provides the sources that deliver call stacks to a
// profiler callback.
package capture

import (
	"time"

	"github.com/danpilch/stackprof/pkg/frame"
)

// EventTag tells a callback at which point the stack was captured.
type EventTag uint8

const (
	// EventCall fires on entry to a new call. The innermost record is the
	// call that was just entered and has not done any work yet.
	EventCall EventTag = iota
	// EventLine fires from an arbitrary point inside running code.
	EventLine
	// EventSample fires from a timer, outside of the profiled code.
	EventSample
)

func (t EventTag) String() string {
	switch t {
	case EventCall:
		return "call"
	case EventLine:
		return "line"
	case EventSample:
		return "sample"
	default:
		return "unknown"
	}
}

// Callback receives a captured chain. leaf is the innermost record, or
// frame.NoParent when nothing was active. The arena is only valid for the
// duration of the call.
type Callback func(chain *frame.Arena, leaf frame.Index, tag EventTag)

// Source arms and disarms periodic delivery of stacks.
type Source interface {
	// Register starts delivering stacks to cb at roughly interval.
	Register(cb Callback, interval time.Duration) error
	// Deregister stops delivery. Once it returns, cb is not running and will
	// not be called again.
	Deregister()
}

// SkipPolicy returns how many synthetic innermost records to drop for tag.
type SkipPolicy func(tag EventTag) int

// DefaultSkipPolicy drops the freshly entered call on EventCall and nothing
// otherwise.
func DefaultSkipPolicy(tag EventTag) int {
	if tag == EventCall {
		return 1
	}
	return 0
}
