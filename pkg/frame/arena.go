package frame

// Index addresses a Record inside an Arena.
type Index int32

// NoParent marks the outermost record of a chain.
const NoParent Index = -1

// Record is one in-progress call: its code location and its caller.
type Record struct {
	Function  string
	File      string
	FirstLine int
	// Line is the line currently executing. It does not take part in the key.
	Line   int
	Parent Index
}

// Arena stores activation records addressed by index. Chains are formed by
// parent indices, so a capture source can hand over a whole stack without
// sharing pointers into its own frame representation.
type Arena struct {
	records []Record
}

// NewArena returns an arena with room for capacity records.
func NewArena(capacity int) *Arena {
	return &Arena{records: make([]Record, 0, capacity)}
}

// Push appends r and returns its index.
func (a *Arena) Push(r Record) Index {
	a.records = append(a.records, r)
	return Index(len(a.records) - 1)
}

// PushCaller appends a record whose parent is parent and returns its index.
func (a *Arena) PushCaller(parent Index, function, file string, firstLine, line int) Index {
	return a.Push(Record{
		Function:  function,
		File:      file,
		FirstLine: firstLine,
		Line:      line,
		Parent:    parent,
	})
}

// At returns the record at i, or nil if i is out of range.
func (a *Arena) At(i Index) *Record {
	if a == nil || i < 0 || int(i) >= len(a.records) {
		return nil
	}
	return &a.records[i]
}

// Len returns the number of records.
func (a *Arena) Len() int {
	if a == nil {
		return 0
	}
	return len(a.records)
}

// Reset drops all records but keeps the backing storage.
func (a *Arena) Reset() {
	a.records = a.records[:0]
}
