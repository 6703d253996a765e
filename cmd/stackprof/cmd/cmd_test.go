package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/stackprof/pkg/session"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

var smallWorkload = []string{"--fib", "12", "--sort-rounds", "2", "--sleep", "5ms"}

func TestRecordRenderListCompare(t *testing.T) {
	dir := t.TempDir()

	args := append([]string{"record", "--dir", dir, "--name", "base", "--format", "json"}, smallWorkload...)
	out, _, err := execute(t, args...)
	require.NoError(t, err)
	s, err := session.Decode([]byte(out))
	require.NoError(t, err)
	assert.Positive(t, s.SampleCount())

	args = append([]string{"record", "--dir", dir, "--name", "current", "--format", "folded", "--timing"}, smallWorkload...)
	out, errOut, err := execute(t, args...)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Contains(t, errOut, "Phase Timing Report")

	out, _, err = execute(t, "list", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "base")
	assert.Contains(t, out, "current")

	out, errOut, err = execute(t, "render", "base", "--dir", dir, "--format", "tree", "--mode", "first-branch", "--check")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Contains(t, errOut, "Session Check Report")

	_, _, err = execute(t, "compare", "base", "current", "--dir", dir)
	require.NoError(t, err)

	full, _, err := execute(t, "render", "base", "--dir", dir, "--format", "tree", "--mode", "root", "--min-percent", "0")
	require.NoError(t, err)
	pruned, _, err := execute(t, "render", "base", "--dir", dir, "--format", "tree", "--min-percent", "100")
	require.NoError(t, err)
	assert.Less(t, strings.Count(pruned, "\n"), strings.Count(full, "\n"))

	_, errOut, err = execute(t, "render", "base", "--dir", dir, "--format", "tsv", "--check-json")
	require.NoError(t, err)
	var report struct {
		Validations []map[string]any `json:"validations"`
		Sanity      []map[string]any `json:"sanity"`
	}
	require.NoError(t, json.Unmarshal([]byte(errOut), &report))
	assert.Len(t, report.Validations, 1)
	assert.NotEmpty(t, report.Sanity)

	_, _, err = execute(t, "render", "missing", "--dir", dir)
	assert.Error(t, err)
}

func TestRecordGoroutineSource(t *testing.T) {
	dir := t.TempDir()
	args := append([]string{"record", "--dir", dir, "--source", "goroutine", "--format", "json", "--interval", "2ms"}, smallWorkload...)
	out, _, err := execute(t, args...)
	require.NoError(t, err)
	_, err = session.Decode([]byte(out))
	require.NoError(t, err)
}

func TestRecordRejectsUnknownSource(t *testing.T) {
	_, _, err := execute(t, "record", "--dir", t.TempDir(), "--source", "signal")
	assert.Error(t, err)
}

func TestBench(t *testing.T) {
	out, _, err := execute(t, "bench", "--iterations", "20", "--warmup", "2", "--depth", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Capture Callback Overhead")
}
