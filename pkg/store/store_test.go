package store

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/stackprof/pkg/frame"
	"github.com/danpilch/stackprof/pkg/session"
)

func key(name string) frame.Key {
	return frame.Key{Function: name, File: "app.go", FirstLine: 1}
}

func sessionWith(parts map[string]time.Duration) *session.Session {
	var samples []session.Sample
	for _, name := range []string{"parse", "eval", "gc", "io"} {
		if d, ok := parts[name]; ok {
			samples = append(samples, session.Sample{
				Stack:    frame.Snapshot{key("main"), key(name)},
				Duration: d,
			})
		}
	}
	return session.New(session.Params{
		Samples:  samples,
		Start:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Duration: time.Second,
		Program:  "app",
	})
}

func TestSaveLoadList(t *testing.T) {
	dir := t.TempDir()
	s := sessionWith(map[string]time.Duration{"parse": 10 * time.Millisecond, "eval": 30 * time.Millisecond})

	names, err := List(dir)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, Save(s, "run-b", dir))
	require.NoError(t, Save(s, "run-a", dir))

	names, err = List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-a", "run-b"}, names)

	loaded, err := Load("run-a", dir)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestListMissingDir(t *testing.T) {
	names, err := List(t.TempDir() + "/nope")
	require.NoError(t, err)
	assert.Nil(t, names)
}

func TestInvalidNames(t *testing.T) {
	s := sessionWith(nil)
	for _, name := range []string{"", "..", "a/b", `a\b`} {
		assert.Error(t, Save(s, name, t.TempDir()), name)
		_, err := Load(name, t.TempDir())
		assert.Error(t, err, name)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("absent", t.TempDir())
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	ms := time.Millisecond
	base := sessionWith(map[string]time.Duration{"parse": 50 * ms, "eval": 50 * ms})
	cur := sessionWith(map[string]time.Duration{"parse": 20 * ms, "eval": 77 * ms, "io": 3 * ms})

	cmp := Compare(base, cur)
	require.Len(t, cmp, 3)

	assert.Equal(t, "parse", cmp[0].Key.Function)
	assert.InDelta(t, -30.0, cmp[0].Delta, 1e-9)
	assert.Equal(t, SeverityMajor, cmp[0].Severity)

	assert.Equal(t, "eval", cmp[1].Key.Function)
	assert.Equal(t, SeverityRegress, cmp[1].Severity)

	assert.Equal(t, "io", cmp[2].Key.Function)
	assert.Zero(t, cmp[2].BaseShare)
	assert.Equal(t, SeverityMinor, cmp[2].Severity)
}

func TestClassifySeverity(t *testing.T) {
	tests := map[float64]Severity{
		0:   SeverityNone,
		1.9: SeverityNone,
		-3:  SeverityMinor,
		10:  SeverityModerate,
		20:  SeverityRegress,
		-20: SeverityMajor,
	}
	for delta, want := range tests {
		assert.Equal(t, want, classifySeverity(delta), delta)
	}
}

func TestRenderComparison(t *testing.T) {
	ms := time.Millisecond
	base := sessionWith(map[string]time.Duration{"parse": 50 * ms, "eval": 50 * ms})
	cur := sessionWith(map[string]time.Duration{"parse": 10 * ms, "eval": 90 * ms})

	var buf bytes.Buffer
	RenderComparison(&buf, "before", "after", Compare(base, cur))
	out := buf.String()
	assert.Contains(t, out, "Session Comparison")
	assert.Contains(t, out, "REGRESSION")
	assert.Contains(t, out, "+40.0pp")
	assert.Contains(t, out, "1 call sites gained significant time.")

	buf.Reset()
	RenderComparison(&buf, "a", "b", Compare(base, base))
	assert.Contains(t, buf.String(), "No significant regressions detected.")
}
