// Package frame encodes activation records into call-site keys and builds
// root-first call stack snapshots from them.
package frame

import (
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"
)

// Key identifies a call site. Two records from the same function, file and
// first line encode to equal keys.
type Key struct {
	Function  string `json:"function"`
	File      string `json:"file"`
	FirstLine int    `json:"line"`
}

// Encode returns the key for a single activation record.
func Encode(r *Record) Key {
	return Key{
		Function:  r.Function,
		File:      r.File,
		FirstLine: r.FirstLine,
	}
}

// String returns "function (file:line)".
func (k Key) String() string {
	return fmt.Sprintf("%s (%s:%d)", k.Function, k.File, k.FirstLine)
}

// ID returns the NUL separated identifier of the key. It is unambiguous
// because neither function names nor file paths contain NUL bytes.
func (k Key) ID() string {
	return k.Function + "\x00" + k.File + "\x00" + strconv.Itoa(k.FirstLine)
}

// Hash returns a 64 bit hash of the key. Equal keys hash equally; the hash is
// only used for bucketing and never for equality.
func (k Key) Hash() uint64 {
	h := xxh3.HashStringSeed(k.Function, uint64(k.FirstLine))
	return xxh3.HashStringSeed(k.File, h)
}
