package debug

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/stackprof/pkg/capture"
	"github.com/danpilch/stackprof/pkg/frame"
	"github.com/danpilch/stackprof/pkg/session"
)

type fakeSource struct {
	cb           capture.Callback
	deregistered bool
}

func (f *fakeSource) Register(cb capture.Callback, _ time.Duration) error {
	f.cb = cb
	return nil
}

func (f *fakeSource) Deregister() { f.deregistered = true }

func TestTraceSource(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)

	inner := &fakeSource{}
	ts := NewTraceSource(inner, logger)

	var delivered int
	require.NoError(t, ts.Register(func(*frame.Arena, frame.Index, capture.EventTag) {
		delivered++
	}, time.Millisecond))

	a := frame.NewArena(2)
	leaf := a.PushCaller(frame.NoParent, "main.work", "main.go", 10, 12)
	inner.cb(a, leaf, capture.EventLine)
	inner.cb(a, frame.NoParent, capture.EventSample)
	ts.Deregister()

	assert.Equal(t, 2, delivered)
	assert.Equal(t, int64(2), ts.Events())
	assert.True(t, inner.deregistered)

	var events []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "capture event" {
			events = append(events, e)
		}
	}
	require.Len(t, events, 2)
	assert.Equal(t, "main.work", events[0].Data["function"])
	assert.Equal(t, "line", events[0].Data["tag"])
	assert.NotContains(t, events[1].Data, "function")
}

func TestStopwatch(t *testing.T) {
	now := time.Unix(0, 0)
	sw := NewStopwatch()
	sw.now = func() time.Time { return now }

	done := sw.Phase("capture")
	now = now.Add(30 * time.Millisecond)
	done()
	require.NoError(t, sw.Time("render", func() error {
		now = now.Add(5 * time.Millisecond)
		return nil
	}))

	timings := sw.Timings()
	require.Len(t, timings, 2)
	assert.Equal(t, PhaseTiming{Name: "capture", Duration: 30 * time.Millisecond}, timings[0])
	assert.Equal(t, PhaseTiming{Name: "render", Duration: 5 * time.Millisecond}, timings[1])

	var buf bytes.Buffer
	TimingReport(&buf, timings)
	assert.Contains(t, buf.String(), "capture")
	assert.Contains(t, buf.String(), "35ms")
}

func TestDumpSamples(t *testing.T) {
	s := session.New(session.Params{
		Samples: []session.Sample{
			{Stack: frame.Snapshot{{Function: "main.main", File: "main.go", FirstLine: 3}}, Duration: 2 * time.Millisecond},
			{Duration: time.Millisecond},
		},
		Start:    time.Unix(0, 0),
		Duration: 3 * time.Millisecond,
	})

	var buf bytes.Buffer
	DumpSamples(&buf, s)
	out := buf.String()
	assert.Contains(t, out, "main.main (main.go:3)")
	assert.Contains(t, out, "[idle]")
	assert.Contains(t, out, "2ms")
}
