package frame

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// Snapshot is a call stack, root first and leaf last.
type Snapshot []Key

// Leaf returns the innermost key.
func (s Snapshot) Leaf() (Key, bool) {
	if len(s) == 0 {
		return Key{}, false
	}
	return s[len(s)-1], true
}

// Hash returns a hash over all keys in order.
func (s Snapshot) Hash() uint64 {
	var buf [8]byte
	h := uint64(len(s))
	for _, k := range s {
		binary.LittleEndian.PutUint64(buf[:], k.Hash())
		h = xxh3.HashSeed(buf[:], h)
	}
	return h
}

// Equal reports whether both snapshots hold the same keys in the same order.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// BuildSnapshot walks the chain starting at leaf towards the outermost record
// and returns the keys root first. The first skip records are dropped before
// walking; they are synthetic records introduced by the capture mechanism.
func BuildSnapshot(a *Arena, leaf Index, skip int) Snapshot {
	idx := leaf
	for ; skip > 0; skip-- {
		r := a.At(idx)
		if r == nil {
			return Snapshot{}
		}
		idx = r.Parent
	}

	// The walk is bounded by the arena size, a malformed chain with a cycle
	// yields a truncated stack instead of spinning.
	limit := a.Len()
	stack := make(Snapshot, 0, 32)
	for r := a.At(idx); r != nil && len(stack) < limit; r = a.At(r.Parent) {
		stack = append(stack, Encode(r))
	}

	// Walked leaf to root, consumers expect root first.
	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}
	return stack
}
