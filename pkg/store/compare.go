package store

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/stackprof/pkg/calltree"
	"github.com/danpilch/stackprof/pkg/frame"
	"github.com/danpilch/stackprof/pkg/session"
)

// Severity indicates the magnitude of a drift in time share.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
	SeverityRegress  Severity = "regression"
)

// Comparison holds the drift of one call site between two sessions. Shares
// are percentages of each session's sampled time spent in the call site
// itself.
type Comparison struct {
	Key       frame.Key
	BaseShare float64
	CurShare  float64
	// Delta is CurShare - BaseShare, in percentage points.
	Delta    float64
	Severity Severity
}

var (
	cmpTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cmpHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	cmpDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cmpOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	cmpWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	cmpErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	cmpMinor  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

func selfShares(s *session.Session) map[frame.Key]float64 {
	total := float64(s.SampledDuration())
	shares := make(map[frame.Key]float64)
	if total == 0 {
		return shares
	}
	for _, st := range calltree.Functions(s) {
		if st.Self == 0 {
			continue
		}
		shares[st.Key] = float64(st.Self) / total * 100
	}
	return shares
}

// Compare matches call sites of both sessions and calculates drift. Sites
// present in only one session compare against a zero share. The result is
// ordered by absolute drift, largest first.
func Compare(base, cur *session.Session) []Comparison {
	baseShares := selfShares(base)
	curShares := selfShares(cur)

	keys := make(map[frame.Key]struct{}, len(baseShares)+len(curShares))
	for k := range baseShares {
		keys[k] = struct{}{}
	}
	for k := range curShares {
		keys[k] = struct{}{}
	}

	comparisons := make([]Comparison, 0, len(keys))
	for k := range keys {
		delta := curShares[k] - baseShares[k]
		comparisons = append(comparisons, Comparison{
			Key:       k,
			BaseShare: baseShares[k],
			CurShare:  curShares[k],
			Delta:     delta,
			Severity:  classifySeverity(delta),
		})
	}

	sort.Slice(comparisons, func(i, j int) bool {
		di, dj := math.Abs(comparisons[i].Delta), math.Abs(comparisons[j].Delta)
		if di != dj {
			return di > dj
		}
		return comparisons[i].Key.ID() < comparisons[j].Key.ID()
	})
	return comparisons
}

// classifySeverity grades a drift given in percentage points.
func classifySeverity(delta float64) Severity {
	absDelta := math.Abs(delta)
	if absDelta < 2 {
		return SeverityNone
	}
	if absDelta < 5 {
		return SeverityMinor
	}
	if absDelta < 15 {
		return SeverityModerate
	}
	if delta > 0 {
		return SeverityRegress
	}
	return SeverityMajor
}

// RenderComparison outputs a styled comparison table.
func RenderComparison(w io.Writer, baseName, curName string, comparisons []Comparison) {
	fmt.Fprintln(w, cmpTitle.Render("Session Comparison"))
	fmt.Fprintln(w, cmpDim.Render(strings.Repeat("═", 90)))
	fmt.Fprintf(w, "Comparing %s against %s\n\n",
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%q", curName)),
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%q", baseName)))

	fmt.Fprintf(w, "  %s %s %s %s %s\n",
		cmpHeader.Render("FUNCTION                              "),
		cmpHeader.Render("BASE    "),
		cmpHeader.Render("CURRENT "),
		cmpHeader.Render("DELTA    "),
		cmpHeader.Render("SEVERITY  "))
	fmt.Fprintln(w, "  "+cmpDim.Render(strings.Repeat("─", 90)))

	regressions := 0
	for _, c := range comparisons {
		deltaStr := fmt.Sprintf("%+.1fpp", c.Delta)
		var sevStr string
		switch c.Severity {
		case SeverityRegress:
			sevStr = cmpErr.Render("REGRESSION")
			regressions++
		case SeverityMajor:
			sevStr = cmpErr.Render("MAJOR")
		case SeverityModerate:
			sevStr = cmpWarn.Render("moderate")
		case SeverityMinor:
			sevStr = cmpMinor.Render("minor")
		default:
			sevStr = cmpOK.Render("none")
		}

		fmt.Fprintf(w, "  %-40s %-9.1f %-9.1f %-10s %s\n",
			truncate(c.Key.Function, 40), c.BaseShare, c.CurShare, deltaStr, sevStr)
	}

	fmt.Fprintln(w)
	if regressions > 0 {
		fmt.Fprintf(w, "  %s\n", cmpErr.Render(fmt.Sprintf("%d call sites gained significant time.", regressions)))
	} else {
		fmt.Fprintf(w, "  %s\n", cmpOK.Render("No significant regressions detected."))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n+1:]
}
