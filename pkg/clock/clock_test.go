package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	assert.Equal(t, start, m.Now())
	m.Advance(15 * time.Millisecond)
	assert.Equal(t, 15*time.Millisecond, m.Now().Sub(start))
	assert.Equal(t, m.Now(), m.Wall())

	m.Set(start)
	assert.Equal(t, start, m.Now())
}

func TestSystemMonotonic(t *testing.T) {
	var c Clock = System{}
	a := c.Now()
	b := c.Now()
	assert.GreaterOrEqual(t, b.Sub(a), time.Duration(0))
}

func TestProcessCPU(t *testing.T) {
	c := ProcessCPU()
	before, ok := c.CPUTime()
	if !ok {
		t.Skip("no CPU-time clock on this host")
	}

	// Burn a little CPU so the clock has something to show.
	x := 0
	for i := 0; i < 5_000_000; i++ {
		x += i % 7
	}
	_ = x

	after, ok := c.CPUTime()
	require.True(t, ok)
	assert.GreaterOrEqual(t, after, before)
}

func TestNoCPU(t *testing.T) {
	_, ok := NoCPU{}.CPUTime()
	assert.False(t, ok)
}
