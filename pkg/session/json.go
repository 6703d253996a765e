package session

import (
	"time"

	"emperror.dev/errors"
	"github.com/goccy/go-json"

	"github.com/danpilch/stackprof/pkg/frame"
)

// wireSession is the serialized form. Frames are stored once and samples
// refer to them by index.
type wireSession struct {
	Program    string       `json:"program"`
	Start      time.Time    `json:"start"`
	DurationNs int64        `json:"duration_ns"`
	CPUTimeNs  *int64       `json:"cpu_time_ns,omitempty"`
	Count      int          `json:"sample_count"`
	Frames     []frame.Key  `json:"frames"`
	Samples    []wireSample `json:"samples"`
}

type wireSample struct {
	Stack      []int `json:"stack"`
	DurationNs int64 `json:"duration_ns"`
}

// MarshalJSON implements json.Marshaler.
func (s *Session) MarshalJSON() ([]byte, error) {
	w := wireSession{
		Program:    s.program,
		Start:      s.start,
		DurationNs: int64(s.duration),
		Count:      len(s.samples),
		Frames:     []frame.Key{},
		Samples:    make([]wireSample, 0, len(s.samples)),
	}
	if s.hasCPUTime {
		cpu := int64(s.cpuTime)
		w.CPUTimeNs = &cpu
	}

	index := make(map[frame.Key]int)
	for _, sm := range s.samples {
		ws := wireSample{
			Stack:      make([]int, len(sm.Stack)),
			DurationNs: int64(sm.Duration),
		}
		for i, k := range sm.Stack {
			id, ok := index[k]
			if !ok {
				id = len(w.Frames)
				index[k] = id
				w.Frames = append(w.Frames, k)
			}
			ws.Stack[i] = id
		}
		w.Samples = append(w.Samples, ws)
	}
	return json.Marshal(w)
}

// Decode parses a session produced by MarshalJSON.
func Decode(data []byte) (*Session, error) {
	var w wireSession
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.WrapIf(err, "cannot parse session")
	}

	p := Params{
		Start:    w.Start,
		Duration: time.Duration(w.DurationNs),
		Program:  w.Program,
		Samples:  make([]Sample, 0, len(w.Samples)),
	}
	if w.CPUTimeNs != nil {
		p.CPUTime = time.Duration(*w.CPUTimeNs)
		p.HasCPUTime = true
	}
	for n, ws := range w.Samples {
		stack := make(frame.Snapshot, len(ws.Stack))
		for i, id := range ws.Stack {
			if id < 0 || id >= len(w.Frames) {
				return nil, errors.Errorf("sample %d refers to unknown frame %d", n, id)
			}
			stack[i] = w.Frames[id]
		}
		p.Samples = append(p.Samples, Sample{Stack: stack, Duration: time.Duration(ws.DurationNs)})
	}
	if w.Count != len(p.Samples) {
		return nil, errors.Errorf("sample count %d does not match %d samples", w.Count, len(p.Samples))
	}
	return &Session{
		samples:    p.Samples,
		start:      p.Start,
		duration:   p.Duration,
		cpuTime:    p.CPUTime,
		hasCPUTime: p.HasCPUTime,
		program:    p.Program,
	}, nil
}
