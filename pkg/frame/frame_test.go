package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	a := &Record{Function: "main.work", File: "/src/main.go", FirstLine: 10, Line: 12}
	b := &Record{Function: "main.work", File: "/src/main.go", FirstLine: 10, Line: 31}

	// Same call site, different executing line.
	assert.Equal(t, Encode(a), Encode(b))
	assert.Equal(t, Encode(a).Hash(), Encode(b).Hash())

	tests := map[string]Record{
		"other function": {Function: "main.other", File: "/src/main.go", FirstLine: 10},
		"other file":     {Function: "main.work", File: "/src/work.go", FirstLine: 10},
		"other line":     {Function: "main.work", File: "/src/main.go", FirstLine: 11},
	}
	for name, r := range tests {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, Encode(a), Encode(&r))
			assert.NotEqual(t, Encode(a).ID(), Encode(&r).ID())
		})
	}
}

func TestKeyIDSeparatesFields(t *testing.T) {
	k1 := Key{Function: "a b", File: "c", FirstLine: 1}
	k2 := Key{Function: "a", File: "b c", FirstLine: 1}
	assert.NotEqual(t, k1.ID(), k2.ID())
	assert.Equal(t, "a b (c:1)", k1.String())
}

func chain(a *Arena, names ...string) Index {
	idx := NoParent
	for i, n := range names {
		idx = a.PushCaller(idx, n, "f.go", i+1, i+1)
	}
	return idx
}

func TestBuildSnapshot(t *testing.T) {
	a := NewArena(8)
	leaf := chain(a, "main", "run", "work")

	stack := BuildSnapshot(a, leaf, 0)
	require.Len(t, stack, 3)
	assert.Equal(t, "main", stack[0].Function)
	assert.Equal(t, "work", stack[2].Function)

	l, ok := stack.Leaf()
	require.True(t, ok)
	assert.Equal(t, "work", l.Function)
}

func TestBuildSnapshotSkip(t *testing.T) {
	a := NewArena(8)
	leaf := chain(a, "main", "run", "entered")

	stack := BuildSnapshot(a, leaf, 1)
	require.Len(t, stack, 2)
	assert.Equal(t, "run", stack[1].Function)

	assert.Empty(t, BuildSnapshot(a, leaf, 3))
	assert.Empty(t, BuildSnapshot(a, leaf, 5))
}

func TestBuildSnapshotEmpty(t *testing.T) {
	assert.Empty(t, BuildSnapshot(nil, NoParent, 0))
	assert.Empty(t, BuildSnapshot(NewArena(0), NoParent, 0))
}

func TestBuildSnapshotCycle(t *testing.T) {
	a := NewArena(2)
	a.Push(Record{Function: "x", Parent: 1})
	a.Push(Record{Function: "y", Parent: 0})

	stack := BuildSnapshot(a, 1, 0)
	assert.Len(t, stack, 2)
}

func TestSnapshotEqualAndHash(t *testing.T) {
	a := NewArena(4)
	s1 := BuildSnapshot(a, chain(a, "main", "work"), 0)
	s2 := BuildSnapshot(a, chain(a, "main", "work"), 0)
	s3 := BuildSnapshot(a, chain(a, "main", "idle"), 0)

	assert.True(t, s1.Equal(s2))
	assert.Equal(t, s1.Hash(), s2.Hash())
	assert.False(t, s1.Equal(s3))
	assert.False(t, s1.Equal(s1[:1]))
	assert.NotEqual(t, s1.Hash(), s3.Hash())

	// Order matters.
	reversed := Snapshot{s1[1], s1[0]}
	assert.NotEqual(t, s1.Hash(), reversed.Hash())
}

func TestKeyHashDoesNotAllocate(t *testing.T) {
	k := Key{Function: "main.work", File: "/src/main.go", FirstLine: 10}
	s := Snapshot{k, k}
	allocs := testing.AllocsPerRun(100, func() {
		_ = k.Hash()
		_ = s.Hash()
	})
	assert.Zero(t, allocs)
	assert.NotEqual(t, k.Hash(), Key{Function: "main.work", File: "/src/main.go", FirstLine: 11}.Hash())
}

func TestArenaReset(t *testing.T) {
	a := NewArena(2)
	chain(a, "a", "b")
	assert.Equal(t, 2, a.Len())
	a.Reset()
	assert.Equal(t, 0, a.Len())
	assert.Nil(t, a.At(0))
}
