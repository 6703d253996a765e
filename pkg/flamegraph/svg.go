// Package flamegraph folds session samples into collapsed stacks and renders
// them as SVG flame graphs.
package flamegraph

import (
	"bufio"
	"bytes"
	"fmt"
	"html"
	"io"
	"sort"
	"strconv"
	"strings"

	"emperror.dev/errors"

	"github.com/danpilch/stackprof/pkg/session"
)

// SVGOptions configures the flame graph SVG output.
type SVGOptions struct {
	Title       string
	Width       int
	Height      int
	ColorScheme string // "hot", "cold", "mem"
}

// DefaultSVGOptions returns sensible defaults.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Title:       "Flame Graph",
		Width:       1200,
		ColorScheme: "hot",
	}
}

// frame is a node of the flame graph, weighted in microseconds.
type frame struct {
	name     string
	value    int64
	children map[string]*frame
}

func newFrame(name string) *frame {
	return &frame{
		name:     name,
		children: make(map[string]*frame),
	}
}

// Render folds s and writes it as an SVG flame graph.
func Render(w io.Writer, s *session.Session, opts SVGOptions) error {
	var folded bytes.Buffer
	if err := Fold(&folded, s); err != nil {
		return err
	}
	if opts.Title == "" || opts.Title == DefaultSVGOptions().Title {
		if p := s.Program(); p != "" {
			opts.Title = p
		}
	}
	return GenerateSVG(&folded, w, opts)
}

// parseFolded builds the frame tree from folded stacks.
func parseFolded(collapsed io.Reader) (*frame, error) {
	root := newFrame("all")

	scanner := bufio.NewScanner(collapsed)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.LastIndexByte(line, ' ')
		if idx <= 0 {
			continue
		}
		weight, err := strconv.ParseInt(line[idx+1:], 10, 64)
		if err != nil || weight < 0 {
			continue
		}
		// Zero-weight stacks still show up as a sliver.
		if weight == 0 {
			weight = 1
		}

		node := root
		for _, fname := range strings.Split(line[:idx], ";") {
			child, ok := node.children[fname]
			if !ok {
				child = newFrame(fname)
				node.children[fname] = child
			}
			child.value += weight
			node = child
		}
		root.value += weight
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapIf(err, "cannot read collapsed stacks")
	}
	return root, nil
}

// GenerateSVG renders collapsed stacks as an SVG flame graph.
func GenerateSVG(collapsed io.Reader, svg io.Writer, opts SVGOptions) error {
	if opts.Width == 0 {
		opts.Width = 1200
	}

	root, err := parseFolded(collapsed)
	if err != nil {
		return err
	}
	if root.value == 0 {
		return errors.New("no samples found in collapsed stacks")
	}

	frameHeight := 16
	fontSize := 12
	maxDepth := getMaxDepth(root, 0)
	chartHeight := (maxDepth + 2) * frameHeight
	headerHeight := 40
	totalHeight := chartHeight + headerHeight + 20

	if opts.Height == 0 {
		opts.Height = totalHeight
	}

	fmt.Fprintf(svg, `<?xml version="1.0" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg1.1.dtd">
<svg version="1.1" width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
<style>
  .func:hover { stroke:black; stroke-width:0.5; cursor:pointer; }
  text { font-family: monospace; font-size: %dpx; }
</style>
<rect x="0" y="0" width="%d" height="%d" fill="white"/>
<text x="%d" y="20" text-anchor="middle" style="font-size:16px; font-weight:bold;">%s</text>
<text x="%d" y="35" text-anchor="middle" style="font-size:12px; fill:#666;">(%s sampled)</text>
`,
		opts.Width, opts.Height, fontSize,
		opts.Width, opts.Height,
		opts.Width/2, html.EscapeString(opts.Title),
		opts.Width/2, formatMicros(root.value))

	// Render frames bottom-up
	margin := 10
	r := &renderer{
		w:           svg,
		baseY:       opts.Height - 20,
		frameHeight: frameHeight,
		total:       root.value,
		scheme:      opts.ColorScheme,
	}
	r.render(root, margin, opts.Width-2*margin, 0)

	_, err = fmt.Fprintln(svg, "</svg>")
	return err
}

type renderer struct {
	w           io.Writer
	baseY       int
	frameHeight int
	total       int64
	scheme      string
}

func (r *renderer) render(f *frame, x, width, depth int) {
	if width < 1 || f.value == 0 {
		return
	}

	y := r.baseY - (depth * r.frameHeight)
	red, green, blue := frameColor(depth, r.scheme)

	fmt.Fprintf(r.w, `<g class="func">
<rect x="%d" y="%d" width="%d" height="%d" fill="rgb(%d,%d,%d)" rx="1"/>
`, x, y-r.frameHeight, width, r.frameHeight-1, red, green, blue)

	if width > 40 {
		label := f.name
		maxChars := (width - 4) / 7 // approximate char width
		if len(label) > maxChars {
			if maxChars > 3 {
				label = label[:maxChars-2] + ".."
			} else {
				label = ""
			}
		}
		if label != "" {
			fmt.Fprintf(r.w, `<text x="%d" y="%d" fill="black">%s</text>
`, x+2, y-4, html.EscapeString(label))
		}
	}

	pct := float64(f.value) / float64(r.total) * 100
	fmt.Fprintf(r.w, `<title>%s (%s, %.1f%%)</title>
</g>
`, html.EscapeString(f.name), formatMicros(f.value), pct)

	// Sort children for deterministic output
	childNames := make([]string, 0, len(f.children))
	for name := range f.children {
		childNames = append(childNames, name)
	}
	sort.Strings(childNames)

	childX := x
	for _, name := range childNames {
		child := f.children[name]
		childWidth := int(float64(width) * float64(child.value) / float64(f.value))
		if childWidth < 1 {
			childWidth = 1
		}
		r.render(child, childX, childWidth, depth+1)
		childX += childWidth
	}
}

func formatMicros(us int64) string {
	switch {
	case us >= 1_000_000:
		return fmt.Sprintf("%.2fs", float64(us)/1e6)
	case us >= 1_000:
		return fmt.Sprintf("%.2fms", float64(us)/1e3)
	default:
		return fmt.Sprintf("%dµs", us)
	}
}

func frameColor(depth int, scheme string) (int, int, int) {
	// Deterministic color based on depth
	switch scheme {
	case "cold":
		g := 50 + (depth*30)%150
		b := 150 + (depth*20)%100
		return 30, g, b
	case "mem":
		g := 190 + (depth*15)%60
		return 30, g, 30
	default: // "hot"
		r := 200 + (depth*15)%55
		g := 50 + (depth*40)%150
		return r, g, 30
	}
}

func getMaxDepth(f *frame, depth int) int {
	max := depth
	for _, child := range f.children {
		d := getMaxDepth(child, depth+1)
		if d > max {
			max = d
		}
	}
	return max
}
