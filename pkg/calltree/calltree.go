// Package calltree builds a call tree from the flat sample sequence of a
// session and provides the legacy traversals over it.
package calltree

import (
	"slices"
	"time"

	"github.com/danpilch/stackprof/pkg/frame"
	"github.com/danpilch/stackprof/pkg/session"
)

// RootName is the function name of the synthetic node above all stacks.
const RootName = "<root>"

// Node is one call site reached through a specific path.
type Node struct {
	Key   frame.Key
	Total time.Duration
	Self  time.Duration
	// Samples counts the samples whose stack passes through this node.
	Samples  int
	Children []*Node

	parent *Node
	index  map[frame.Key]*Node
}

func newNode(k frame.Key, parent *Node) *Node {
	return &Node{
		Key:    k,
		parent: parent,
		index:  make(map[frame.Key]*Node),
	}
}

// Build merges all samples of s into a tree under a synthetic root. Children
// are ordered by first appearance.
func Build(s *session.Session) *Node {
	root := newNode(frame.Key{Function: RootName}, nil)
	for i := 0; i < s.SampleCount(); i++ {
		root.add(s.Sample(i))
	}
	return root
}

func (n *Node) add(sm session.Sample) {
	node := n
	node.Total += sm.Duration
	node.Samples++
	for _, k := range sm.Stack {
		node = node.child(k)
		node.Total += sm.Duration
		node.Samples++
	}
	node.Self += sm.Duration
}

func (n *Node) child(k frame.Key) *Node {
	if c, ok := n.index[k]; ok {
		return c
	}
	c := newNode(k, n)
	n.index[k] = c
	n.Children = append(n.Children, c)
	return c
}

// ChildNodes returns the children in first-appearance order.
func (n *Node) ChildNodes() []*Node {
	if n == nil {
		return nil
	}
	return n.Children
}

// Parent returns the caller node, nil for the synthetic root.
func (n *Node) Parent() *Node { return n.parent }

// IsSyntheticRoot reports whether n is the node above all stacks.
func (n *Node) IsSyntheticRoot() bool { return n.parent == nil }

// Path returns the call stack leading to n, root first, without the
// synthetic root.
func (n *Node) Path() frame.Snapshot {
	var path frame.Snapshot
	for c := n; c != nil && c.parent != nil; c = c.parent {
		path = append(path, c.Key)
	}
	slices.Reverse(path)
	return path
}

// Depth returns the number of calls between the synthetic root and n.
func (n *Node) Depth() int {
	d := 0
	for c := n; c != nil && c.parent != nil; c = c.parent {
		d++
	}
	return d
}

// SortedChildren returns the children ordered by total time, longest first.
// Ties keep first-appearance order.
func (n *Node) SortedChildren() []*Node {
	out := slices.Clone(n.ChildNodes())
	slices.SortStableFunc(out, func(a, b *Node) int {
		switch {
		case a.Total > b.Total:
			return -1
		case a.Total < b.Total:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Walk calls fn for n and all its descendants, depth first in child order.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// ProgramRoot returns the single outermost call below the synthetic root, or
// root itself when samples started in more than one place.
func ProgramRoot(root *Node) *Node {
	if root != nil && root.IsSyntheticRoot() && len(root.Children) == 1 {
		return root.Children[0]
	}
	return root
}
