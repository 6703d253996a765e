package capture

import (
	"encoding/binary"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	lru "github.com/elastic/go-freelru"
	"github.com/zeebo/xxh3"

	"github.com/danpilch/stackprof/pkg/frame"
)

const maxProbeDepth = 128

// DefaultSiteCacheSize is the number of resolved program counters kept by a
// Probe.
const DefaultSiteCacheSize = 4096

// site is one resolved logical frame.
type site struct {
	function  string
	file      string
	firstLine int
	line      int
}

type probeBuffer struct {
	pcs   [maxProbeDepth]uintptr
	sites []site
	arena *frame.Arena
}

type registration struct {
	cb       Callback
	interval int64
	last     atomic.Int64
	active   atomic.Int32
}

// due reports whether at least one interval passed since the last fire and
// claims the slot if so.
func (r *registration) due(now int64) bool {
	last := r.last.Load()
	if now-last < r.interval {
		return false
	}
	return r.last.CompareAndSwap(last, now)
}

// settle moves the last fire time forward to now, the moment the stack walk
// finished and the callback is about to run. Spacing is then measured
// between deliveries, the same points the callback's own clock sees.
func (r *registration) settle(now int64) {
	for {
		last := r.last.Load()
		if now <= last || r.last.CompareAndSwap(last, now) {
			return
		}
	}
}

// Probe is an instrumentation source. Profiled code calls Enter at the top of
// a function or Mark from inside it; the probe captures the calling
// goroutine's stack and hands it to the registered callback on the same
// goroutine.
type Probe struct {
	reg   atomic.Pointer[registration]
	sites *lru.SyncedLRU[uintptr, []site]
	pool  sync.Pool
	epoch time.Time
}

var _ Source = (*Probe)(nil)

func hashPC(pc uintptr) uint32 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(pc))
	return uint32(xxh3.Hash(b[:]))
}

// NewProbe returns a probe that caches up to cacheSize resolved program
// counters.
func NewProbe(cacheSize uint32) (*Probe, error) {
	if cacheSize == 0 {
		cacheSize = DefaultSiteCacheSize
	}
	sites, err := lru.NewSynced[uintptr, []site](cacheSize, hashPC)
	if err != nil {
		return nil, errors.WrapIf(err, "failed to create site cache")
	}
	p := &Probe{
		sites: sites,
		epoch: time.Now(),
	}
	p.pool.New = func() any {
		return &probeBuffer{
			sites: make([]site, 0, maxProbeDepth),
			arena: frame.NewArena(maxProbeDepth),
		}
	}
	return p, nil
}

// Register implements Source.
func (p *Probe) Register(cb Callback, interval time.Duration) error {
	if cb == nil {
		return errors.New("nil callback")
	}
	if interval <= 0 {
		return errors.Errorf("invalid interval %v", interval)
	}
	reg := &registration{cb: cb, interval: int64(interval)}
	// The first event after registering always fires.
	reg.last.Store(-int64(interval))
	if !p.reg.CompareAndSwap(nil, reg) {
		return errors.New("probe already registered")
	}
	return nil
}

// Deregister implements Source. It waits for callbacks that are already
// running on other goroutines.
func (p *Probe) Deregister() {
	reg := p.reg.Swap(nil)
	if reg == nil {
		return
	}
	for reg.active.Load() > 0 {
		runtime.Gosched()
	}
}

// Enter reports entry into the calling function.
//
//go:noinline
func (p *Probe) Enter() {
	p.fire(EventCall)
}

// Mark reports a point inside the calling function.
//
//go:noinline
func (p *Probe) Mark() {
	p.fire(EventLine)
}

//go:noinline
func (p *Probe) fire(tag EventTag) {
	reg := p.reg.Load()
	if reg == nil || !reg.due(int64(time.Since(p.epoch))) {
		return
	}

	reg.active.Add(1)
	defer reg.active.Add(-1)
	if p.reg.Load() != reg {
		return
	}

	buf := p.pool.Get().(*probeBuffer)
	defer p.pool.Put(buf)

	// Skip runtime.Callers, fire and Enter/Mark.
	n := runtime.Callers(3, buf.pcs[:])
	leaf := p.fill(buf, buf.pcs[:n])
	reg.settle(int64(time.Since(p.epoch)))
	reg.cb(buf.arena, leaf, tag)
}

// fill resolves pcs (leaf first) and stores them in buf.arena root first.
func (p *Probe) fill(buf *probeBuffer, pcs []uintptr) frame.Index {
	buf.sites = buf.sites[:0]
	for _, pc := range pcs {
		buf.sites = append(buf.sites, p.resolve(pc)...)
	}

	buf.arena.Reset()
	idx := frame.NoParent
	for i := len(buf.sites) - 1; i >= 0; i-- {
		s := &buf.sites[i]
		idx = buf.arena.PushCaller(idx, s.function, s.file, s.firstLine, s.line)
	}
	return idx
}

// resolve expands a return address into its logical frames, innermost first.
func (p *Probe) resolve(pc uintptr) []site {
	if sites, ok := p.sites.Get(pc); ok {
		return sites
	}

	var sites []site
	frames := runtime.CallersFrames([]uintptr{pc})
	for {
		f, more := frames.Next()
		if f.Function != "" && !isRuntimeExit(f.Function) {
			first := 0
			if f.Func != nil {
				_, first = f.Func.FileLine(f.Entry)
			}
			sites = append(sites, site{
				function:  f.Function,
				file:      f.File,
				firstLine: first,
				line:      f.Line,
			})
		}
		if !more {
			break
		}
	}

	p.sites.Add(pc, sites)
	return sites
}

func isRuntimeExit(function string) bool {
	return function == "runtime.goexit"
}
