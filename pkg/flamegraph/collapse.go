package flamegraph

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/danpilch/stackprof/pkg/session"
)

// emptyStack names samples taken while nothing was executing.
const emptyStack = "[idle]"

// Fold writes the samples of s in folded stack format.
// Output: "func1;func2;func3 weight\n", weight in microseconds of sample
// duration. Identical stacks are merged.
func Fold(w io.Writer, s *session.Session) error {
	stacks := make(map[string]int64)
	var names []string
	for i := 0; i < s.SampleCount(); i++ {
		sm := s.Sample(i)
		names = names[:0]
		for _, k := range sm.Stack {
			names = append(names, foldName(k.Function))
		}
		key := strings.Join(names, ";")
		if key == "" {
			key = emptyStack
		}
		stacks[key] += sm.Duration.Microseconds()
	}
	return writeCollapsed(w, stacks)
}

// foldReplacer keeps a function name from breaking the folded line format.
var foldReplacer = strings.NewReplacer(";", ":", " ", "_")

func foldName(name string) string {
	return foldReplacer.Replace(name)
}

func writeCollapsed(w io.Writer, stacks map[string]int64) error {
	// Sort for deterministic output
	keys := make([]string, 0, len(stacks))
	for k := range stacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s %d\n", k, stacks[k]); err != nil {
			return err
		}
	}
	return nil
}
