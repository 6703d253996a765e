package debug

import (
	"fmt"
	"io"
	"strings"

	"github.com/danpilch/stackprof/pkg/session"
)

// DumpSamples outputs every recorded sample with its duration and leaf frame.
func DumpSamples(w io.Writer, s *session.Session) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Raw Sample Dump"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 85)))
	fmt.Fprintf(w, "  %s %s %s %s\n",
		debugHeader.Render("#     "),
		debugHeader.Render("DURATION    "),
		debugHeader.Render("DEPTH "),
		debugHeader.Render("LEAF                                      "))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 85)))

	for i := 0; i < s.SampleCount(); i++ {
		sample := s.Sample(i)
		leaf := "[idle]"
		if k, ok := sample.Stack.Leaf(); ok {
			leaf = k.String()
		}
		fmt.Fprintf(w, "  %-7d %-13v %-6d %s\n",
			i, sample.Duration, len(sample.Stack), leaf)
	}
}
