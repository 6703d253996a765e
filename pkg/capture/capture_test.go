package capture

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/stackprof/pkg/frame"
)

func TestDefaultSkipPolicy(t *testing.T) {
	assert.Equal(t, 1, DefaultSkipPolicy(EventCall))
	assert.Equal(t, 0, DefaultSkipPolicy(EventLine))
	assert.Equal(t, 0, DefaultSkipPolicy(EventSample))
}

func TestEventTagString(t *testing.T) {
	assert.Equal(t, "call", EventCall.String())
	assert.Equal(t, "line", EventLine.String())
	assert.Equal(t, "sample", EventSample.String())
	assert.Equal(t, "unknown", EventTag(42).String())
}

type probeEvent struct {
	stack frame.Snapshot
	tag   EventTag
}

func collect(events *[]probeEvent) Callback {
	return func(chain *frame.Arena, leaf frame.Index, tag EventTag) {
		*events = append(*events, probeEvent{
			stack: frame.BuildSnapshot(chain, leaf, 0),
			tag:   tag,
		})
	}
}

//go:noinline
func probeOuter(p *Probe) {
	probeInner(p)
}

//go:noinline
func probeInner(p *Probe) {
	p.Enter()
	time.Sleep(time.Millisecond)
	p.Mark()
}

func leafName(t *testing.T, s frame.Snapshot) string {
	t.Helper()
	k, ok := s.Leaf()
	require.True(t, ok)
	return k.Function
}

func TestProbe(t *testing.T) {
	p, err := NewProbe(0)
	require.NoError(t, err)

	var events []probeEvent
	require.NoError(t, p.Register(collect(&events), time.Nanosecond))
	probeOuter(p)
	p.Deregister()

	require.Len(t, events, 2)
	assert.Equal(t, EventCall, events[0].tag)
	assert.Equal(t, EventLine, events[1].tag)

	for _, ev := range events {
		assert.True(t, strings.HasSuffix(leafName(t, ev.stack), ".probeInner"))
		caller := ev.stack[len(ev.stack)-2]
		assert.True(t, strings.HasSuffix(caller.Function, ".probeOuter"))
		assert.NotZero(t, caller.FirstLine)
		assert.True(t, strings.HasSuffix(caller.File, "capture_test.go"))
	}
	// Same call site, equal keys.
	assert.True(t, events[0].stack.Equal(events[1].stack))

	// Root first: the test runner sits above the test function.
	assert.True(t, strings.HasPrefix(events[0].stack[0].Function, "testing."))
}

func TestProbeThrottle(t *testing.T) {
	p, err := NewProbe(16)
	require.NoError(t, err)

	var events []probeEvent
	require.NoError(t, p.Register(collect(&events), time.Hour))
	for i := 0; i < 10; i++ {
		p.Mark()
	}
	p.Deregister()
	assert.Len(t, events, 1)
}

func TestRegistrationSpacingFromDelivery(t *testing.T) {
	reg := &registration{interval: 10}
	reg.last.Store(-10)

	require.True(t, reg.due(0))
	// The walk finished at 3, so the next fire is due at 13, not 10.
	reg.settle(3)
	assert.False(t, reg.due(10))
	assert.False(t, reg.due(12))
	require.True(t, reg.due(13))

	// A late settle from an older fire never moves the mark backwards.
	reg.settle(5)
	assert.Equal(t, int64(13), reg.last.Load())
	reg.settle(14)
	assert.Equal(t, int64(14), reg.last.Load())
}

func TestProbeRegister(t *testing.T) {
	p, err := NewProbe(16)
	require.NoError(t, err)

	cb := func(*frame.Arena, frame.Index, EventTag) {}
	assert.Error(t, p.Register(nil, time.Millisecond))
	assert.Error(t, p.Register(cb, 0))
	require.NoError(t, p.Register(cb, time.Millisecond))
	assert.Error(t, p.Register(cb, time.Millisecond))
	p.Deregister()
	p.Deregister()
	require.NoError(t, p.Register(cb, time.Millisecond))
	p.Deregister()
}

func TestProbeUnregistered(t *testing.T) {
	p, err := NewProbe(16)
	require.NoError(t, err)
	// Must be a no-op.
	p.Enter()
	p.Mark()
}

//go:noinline
func spinUntil(ctx context.Context) {
	for ctx.Err() == nil {
		busyLoop()
	}
}

//go:noinline
func busyLoop() {
	x := 0
	for i := 0; i < 10_000; i++ {
		x += i
	}
	_ = x
}

func TestGoroutineSource(t *testing.T) {
	src := NewGoroutineSource("capture-test", nil)
	assert.Equal(t, "capture-test", src.Label())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		src.Track(ctx, spinUntil)
	}()

	found := make(chan frame.Snapshot, 1)
	var calls atomic.Int32
	cb := func(chain *frame.Arena, leaf frame.Index, tag EventTag) {
		calls.Add(1)
		assert.Equal(t, EventSample, tag)
		stack := frame.BuildSnapshot(chain, leaf, 0)
		for _, k := range stack {
			if strings.HasSuffix(k.Function, ".spinUntil") {
				select {
				case found <- stack:
				default:
				}
			}
		}
	}
	require.NoError(t, src.Register(cb, 5*time.Millisecond))
	assert.Error(t, src.Register(cb, 5*time.Millisecond))

	select {
	case stack := <-found:
		assert.NotEmpty(t, stack)
	case <-time.After(5 * time.Second):
		t.Fatal("labelled goroutine never sampled")
	}

	src.Deregister()
	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, calls.Load())

	cancel()
	wg.Wait()
}

func TestChainFor(t *testing.T) {
	fnMain := &profile.Function{ID: 1, Name: "main.main", Filename: "main.go", StartLine: 3}
	fnRun := &profile.Function{ID: 2, Name: "main.run", Filename: "main.go", StartLine: 10}
	fnInl := &profile.Function{ID: 3, Name: "main.inlined", Filename: "main.go", StartLine: 20}
	fnExit := &profile.Function{ID: 4, Name: "runtime.goexit", Filename: "asm.s", StartLine: 1}

	prof := &profile.Profile{
		Sample: []*profile.Sample{
			{
				Location: []*profile.Location{{ID: 9, Line: []profile.Line{{Function: fnMain, Line: 4}}}},
				Label:    map[string][]string{LabelKey: {"other"}},
			},
			{
				Location: []*profile.Location{
					{ID: 1, Line: []profile.Line{{Function: fnInl, Line: 21}, {Function: fnRun, Line: 12}}},
					{ID: 2, Line: []profile.Line{{Function: fnMain, Line: 5}}},
					{ID: 3, Line: []profile.Line{{Function: fnExit, Line: 1}}},
				},
				Label: map[string][]string{LabelKey: {"mine"}},
			},
		},
	}

	arena := frame.NewArena(8)
	leaf, ok := chainFor(arena, prof, "mine")
	require.True(t, ok)

	stack := frame.BuildSnapshot(arena, leaf, 0)
	require.Len(t, stack, 3)
	assert.Equal(t, "main.main", stack[0].Function)
	assert.Equal(t, "main.run", stack[1].Function)
	assert.Equal(t, frame.Key{Function: "main.inlined", File: "main.go", FirstLine: 20}, stack[2])

	arena.Reset()
	_, ok = chainFor(arena, prof, "missing")
	assert.False(t, ok)
}
