package profiler

import (
	"io"

	"emperror.dev/errors"

	"github.com/danpilch/stackprof/pkg/calltree"
	"github.com/danpilch/stackprof/pkg/output"
	"github.com/danpilch/stackprof/pkg/session"
)

// LastSession returns the session of the most recent Stop, or nil.
//
// Deprecated: use the session returned by Stop.
func (p *Profiler) LastSession() *session.Session {
	p.deprecated("LastSession")
	return p.last
}

// StartingFrame returns the program root of the last session when root is
// set, and its first branching node otherwise.
//
// Deprecated: use calltree.StartingNode.
func (p *Profiler) StartingFrame(root bool) *calltree.Node {
	p.deprecated("StartingFrame")
	mode := calltree.ModeFirstBranch
	if root {
		mode = calltree.ModeRoot
	}
	return p.startingNode(mode)
}

// RootFrame returns the outermost call of the last session.
//
// Deprecated: use calltree.Build and calltree.ProgramRoot.
func (p *Profiler) RootFrame() *calltree.Node {
	p.deprecated("RootFrame")
	return p.startingNode(calltree.ModeRoot)
}

// FirstInterestingFrame returns the first node of the last session with more
// than one child.
//
// Deprecated: use calltree.StartingNode with calltree.ModeFirstBranch.
func (p *Profiler) FirstInterestingFrame() *calltree.Node {
	p.deprecated("FirstInterestingFrame")
	return p.startingNode(calltree.ModeFirstBranch)
}

func (p *Profiler) startingNode(mode calltree.Mode) *calltree.Node {
	if p.last == nil {
		return nil
	}
	root := calltree.ProgramRoot(calltree.Build(p.last))
	return calltree.StartingNode(root, mode)
}

// Output renders the last session in format f.
func (p *Profiler) Output(w io.Writer, f output.Format) error {
	if p.last == nil {
		return errors.New("no completed session")
	}
	return output.NewFormatter(f, w).Render(p.last)
}

func (p *Profiler) deprecated(name string) {
	p.logger.WithField("deprecated", name).Warn(name + " is deprecated")
}
