package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/stackprof/pkg/calltree"
	"github.com/danpilch/stackprof/pkg/frame"
	"github.com/danpilch/stackprof/pkg/session"
)

func key(name string, line int) frame.Key {
	return frame.Key{Function: name, File: "/src/app/" + name + ".go", FirstLine: line}
}

func testSession() *session.Session {
	ms := time.Millisecond
	main, wrap, parse, eval := key("main", 1), key("wrap", 5), key("parse", 9), key("eval", 20)
	return session.New(session.Params{
		Samples: []session.Sample{
			{Stack: frame.Snapshot{main, wrap, parse}, Duration: 2 * ms},
			{Stack: frame.Snapshot{main, wrap, eval}, Duration: 6 * ms},
			{Stack: frame.Snapshot{main, wrap, eval}, Duration: 1 * ms},
			{Stack: frame.Snapshot{main, wrap}, Duration: 1 * ms},
		},
		Start:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Duration: 11 * ms,
		Program:  "app run",
	})
}

func render(t *testing.T, f Format, s *session.Session, opts ...func(*Formatter)) string {
	t.Helper()
	var buf bytes.Buffer
	fm := NewFormatter(f, &buf)
	for _, o := range opts {
		o(fm)
	}
	require.NoError(t, fm.Render(s))
	return buf.String()
}

func TestRenderIdempotent(t *testing.T) {
	s := testSession()
	for _, f := range Formats() {
		t.Run(string(f), func(t *testing.T) {
			first := render(t, f, s)
			second := render(t, f, s)
			assert.NotEmpty(t, first)
			assert.Equal(t, first, second)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("folded")
	require.NoError(t, err)
	assert.Equal(t, FormatFolded, f)

	_, err = ParseFormat("html")
	assert.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	out := render(t, FormatTable, testSession())
	assert.Contains(t, out, "Profile Summary")
	assert.Contains(t, out, "app run")
	assert.Contains(t, out, "Samples: 4")
	assert.Contains(t, out, "eval.go:20")
	assert.Contains(t, out, "70.0%")
	// Hottest function first.
	assert.Less(t, strings.Index(out, "eval"), strings.Index(out, "parse"))

	limited := render(t, FormatTable, testSession(), func(f *Formatter) { f.SetLimit(1) })
	assert.NotContains(t, limited, "parse.go")
}

func TestRenderTree(t *testing.T) {
	out := render(t, FormatTree, testSession())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Starts at the first branch point.
	assert.Contains(t, out, "wrap")
	assert.NotContains(t, out, " main ")
	assert.Contains(t, lines[len(lines)-2], "├─")
	assert.Contains(t, lines[len(lines)-2], "eval")
	assert.Contains(t, lines[len(lines)-1], "└─")
	assert.Contains(t, lines[len(lines)-1], "parse")

	rooted := render(t, FormatTree, testSession(), func(f *Formatter) { f.SetMode(calltree.ModeRoot) })
	assert.Contains(t, rooted, " main ")

	filtered := render(t, FormatTree, testSession(), func(f *Formatter) { f.SetMinPercent(25) })
	assert.NotContains(t, filtered, "parse")
}

func TestRenderTreeEmpty(t *testing.T) {
	out := render(t, FormatTree, session.New(session.Params{}))
	assert.Contains(t, out, "No samples recorded.")
}

func TestRenderTSV(t *testing.T) {
	out := render(t, FormatTSV, testSession())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "eval\t/src/app/eval.go\t20\t7000000\t7000000\t2", lines[1])
}

func TestRenderJSON(t *testing.T) {
	out := render(t, FormatJSON, testSession())
	s, err := session.Decode([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, 4, s.SampleCount())
}

func TestRenderPprof(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatPprof, &buf).Render(testSession()))

	prof, err := profile.Parse(&buf)
	require.NoError(t, err)
	require.NoError(t, prof.CheckValid())

	assert.Len(t, prof.Function, 4)
	// The two eval samples merge into one.
	require.Len(t, prof.Sample, 3)
	var total int64
	for _, sm := range prof.Sample {
		total += sm.Value[1]
		assert.Equal(t, "main", sm.Location[len(sm.Location)-1].Line[0].Function.Name)
		if sm.Location[0].Line[0].Function.Name == "eval" {
			assert.Equal(t, []int64{2, int64(7 * time.Millisecond)}, sm.Value)
		}
	}
	assert.Equal(t, int64(10*time.Millisecond), total)
	assert.Equal(t, []string{"app run"}, prof.Comments)
}

func TestCoverage(t *testing.T) {
	s := testSession()
	c := Coverage(s)
	assert.InDelta(t, 10.0/11.0, c, 1e-9)
	assert.Equal(t, "Dense", CoverageLabel(c))
	assert.Equal(t, "Partial", CoverageLabel(0.6))
	assert.Equal(t, "Sparse", CoverageLabel(0.1))
	assert.Zero(t, Coverage(session.New(session.Params{})))
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", Sparkline(nil))
	assert.Equal(t, "▁█", Sparkline([]float64{1, 5}))
	assert.Equal(t, "▁▁▁", Sparkline([]float64{2, 2, 2}))

	rate := SampleRate(testSession(), 10)
	require.Len(t, rate, 10)
	var n float64
	for _, v := range rate {
		n += v
	}
	assert.Equal(t, 4.0, n)
	assert.Nil(t, SampleRate(session.New(session.Params{}), 10))
}
