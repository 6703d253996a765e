package calltree

import "emperror.dev/errors"

// Mode selects where a traversal starts.
type Mode int

const (
	// ModeRoot starts at the given root.
	ModeRoot Mode = iota
	// ModeFirstBranch skips single-child wrapper chains.
	ModeFirstBranch
)

func (m Mode) String() string {
	if m == ModeRoot {
		return "root"
	}
	return "first-branch"
}

// ParseMode parses "root" or "first-branch".
func ParseMode(name string) (Mode, error) {
	switch name {
	case "root":
		return ModeRoot, nil
	case "first-branch":
		return ModeFirstBranch, nil
	default:
		return ModeRoot, errors.Errorf("unknown mode %q (valid: root, first-branch)", name)
	}
}

// Brancher is any tree node that exposes its children in order.
type Brancher[N any] interface {
	ChildNodes() []N
}

// Collapse descends from root through nodes that have exactly one child and
// returns the first node that is a leaf or a branch point.
func Collapse[N Brancher[N]](root N) N {
	node := root
	for {
		children := node.ChildNodes()
		if len(children) != 1 {
			return node
		}
		node = children[0]
	}
}

// StartingNode returns root for ModeRoot and Collapse(root) otherwise.
func StartingNode[N Brancher[N]](root N, mode Mode) N {
	if mode == ModeRoot {
		return root
	}
	return Collapse(root)
}
