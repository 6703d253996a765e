// Package output provides formatters for displaying profiling sessions.
package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"

	"github.com/danpilch/stackprof/pkg/calltree"
	"github.com/danpilch/stackprof/pkg/flamegraph"
	"github.com/danpilch/stackprof/pkg/session"
)

// Format represents the output format type.
type Format string

const (
	FormatTable  Format = "table"
	FormatTree   Format = "tree"
	FormatJSON   Format = "json"
	FormatTSV    Format = "tsv"
	FormatFolded Format = "folded"
	FormatSVG    Format = "svg"
	FormatPprof  Format = "pprof"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatTable, FormatTree, FormatJSON, FormatTSV, FormatFolded, FormatSVG, FormatPprof}
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", errors.Errorf("unknown format %q", name)
}

// DefaultLimit is the number of functions shown by the table format.
const DefaultLimit = 20

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
	cellStyle = lipgloss.NewStyle().Padding(0, 1)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hotStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	coolStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Formatter handles output formatting.
type Formatter struct {
	format     Format
	writer     io.Writer
	limit      int
	mode       calltree.Mode
	minPercent float64
}

// NewFormatter creates a new formatter.
func NewFormatter(format Format, writer io.Writer) *Formatter {
	return &Formatter{
		format: format,
		writer: writer,
		limit:  DefaultLimit,
		mode:   calltree.ModeFirstBranch,
	}
}

// SetLimit sets how many functions the table format lists.
func (f *Formatter) SetLimit(n int) {
	f.limit = n
}

// SetMode selects where the tree format starts.
func (f *Formatter) SetMode(m calltree.Mode) {
	f.mode = m
}

// SetMinPercent hides tree nodes below pct percent of the total time.
func (f *Formatter) SetMinPercent(pct float64) {
	f.minPercent = pct
}

// Render outputs the session in the configured format. Rendering never
// modifies the session, so rendering twice gives the same output.
func (f *Formatter) Render(s *session.Session) error {
	switch f.format {
	case FormatTree:
		return f.renderTree(s)
	case FormatJSON:
		return f.renderJSON(s)
	case FormatTSV:
		return f.renderTSV(s)
	case FormatFolded:
		return flamegraph.Fold(f.writer, s)
	case FormatSVG:
		return flamegraph.Render(f.writer, s, flamegraph.DefaultSVGOptions())
	case FormatPprof:
		return writePprof(f.writer, s)
	default:
		return f.renderTable(s)
	}
}

// renderJSON outputs the session as JSON.
func (f *Formatter) renderJSON(s *session.Session) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func percentOf(d, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return float64(d) / float64(total) * 100
}

func location(file string, line int) string {
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// renderHeader prints the session metadata block.
func (f *Formatter) renderHeader(s *session.Session, title string) {
	fmt.Fprintln(f.writer, titleStyle.Render(title))
	fmt.Fprintln(f.writer, strings.Repeat("═", 60))

	cpu := "n/a"
	if d, ok := s.CPUTime(); ok {
		cpu = d.Round(time.Microsecond).String()
	}
	cov := Coverage(s)
	fmt.Fprintf(f.writer, "Program:  %s\n", s.Program())
	fmt.Fprintf(f.writer, "Recorded: %s\n", s.Start().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(f.writer, "Duration: %s  CPU: %s  Samples: %d\n",
		s.Duration().Round(time.Microsecond), cpu, s.SampleCount())
	fmt.Fprintf(f.writer, "Coverage: %.1f%% (%s)  %s\n",
		cov*100, CoverageLabel(cov), dimStyle.Render(Sparkline(SampleRate(s, 40))))
	fmt.Fprintln(f.writer)
}

// renderTable outputs the hottest functions as a styled table.
func (f *Formatter) renderTable(s *session.Session) error {
	f.renderHeader(s, "Profile Summary")

	stats := calltree.Functions(s)
	if f.limit > 0 && len(stats) > f.limit {
		stats = stats[:f.limit]
	}
	total := s.SampledDuration()

	rows := make([][]string, len(stats))
	for i, st := range stats {
		rows[i] = []string{
			st.Key.Function,
			location(st.Key.File, st.Key.FirstLine),
			st.Self.Round(time.Microsecond).String(),
			timeStyle(percentOf(st.Self, total)).Render(fmt.Sprintf("%.1f%%", percentOf(st.Self, total))),
			st.Total.Round(time.Microsecond).String(),
			fmt.Sprintf("%.1f%%", percentOf(st.Total, total)),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("FUNCTION", "LOCATION", "SELF", "SELF%", "TOTAL", "TOTAL%").
		Rows(rows...)

	_, err := fmt.Fprintln(f.writer, t)
	return err
}

// timeStyle colors a share of time the way a console profile does.
func timeStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 60:
		return hotStyle
	case pct >= 30:
		return warmStyle
	case pct >= 10:
		return coolStyle
	default:
		return dimStyle
	}
}

// renderTree outputs the call tree starting at the configured node.
func (f *Formatter) renderTree(s *session.Session) error {
	f.renderHeader(s, "Call Tree")

	root := calltree.ProgramRoot(calltree.Build(s))
	start := calltree.StartingNode(root, f.mode)
	if start == nil || start.Total == 0 && len(start.Children) == 0 {
		_, err := fmt.Fprintln(f.writer, dimStyle.Render("No samples recorded."))
		return err
	}

	total := start.Total
	var walk func(n *calltree.Node, indent string, last bool, top bool)
	walk = func(n *calltree.Node, indent string, last bool, top bool) {
		pct := percentOf(n.Total, total)
		branch, next := "", indent
		if !top {
			if last {
				branch, next = "└─ ", indent+"   "
			} else {
				branch, next = "├─ ", indent+"│  "
			}
		}
		fmt.Fprintf(f.writer, "%s%s%s %s %s\n",
			indent, branch,
			timeStyle(pct).Render(fmt.Sprintf("%6.1f%% %10s", pct, n.Total.Round(time.Microsecond))),
			n.Key.Function,
			dimStyle.Render(location(n.Key.File, n.Key.FirstLine)))

		children := n.SortedChildren()
		visible := children[:0:0]
		for _, c := range children {
			if percentOf(c.Total, total) >= f.minPercent {
				visible = append(visible, c)
			}
		}
		for i, c := range visible {
			walk(c, next, i == len(visible)-1, false)
		}
	}
	walk(start, "", true, true)
	return nil
}

// renderTSV outputs the flat profile as tab-separated values.
func (f *Formatter) renderTSV(s *session.Session) error {
	fmt.Fprintln(f.writer, "FUNCTION\tFILE\tLINE\tSELF_NS\tTOTAL_NS\tSAMPLES")

	for _, st := range calltree.Functions(s) {
		if _, err := fmt.Fprintf(f.writer, "%s\t%s\t%d\t%d\t%d\t%d\n",
			st.Key.Function, st.Key.File, st.Key.FirstLine,
			int64(st.Self), int64(st.Total), st.Samples); err != nil {
			return err
		}
	}

	return nil
}
