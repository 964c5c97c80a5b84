package diagnostic

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/leapmacro/pkg/source"
	"github.com/leapstack-labs/leapmacro/pkg/token"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

// DefaultContextLines is the number of lines shown around a labelled span.
const DefaultContextLines = 3

const tabWidth = 4

// Renderer formats diagnostics against the units of one source map.
type Renderer struct {
	Map          *source.Map
	ContextLines int
	Color        bool
}

// NewRenderer returns a renderer with the default context window and no colour.
func NewRenderer(m *source.Map) *Renderer {
	return &Renderer{Map: m, ContextLines: DefaultContextLines}
}

type styles struct {
	severity lipgloss.Style
	frame    lipgloss.Style
	label    lipgloss.Style
	enabled  bool
}

func (r *Renderer) styles(sev Severity) styles {
	if !r.Color {
		return styles{}
	}
	// The profile is fixed so output does not depend on the terminal
	lr := lipgloss.NewRenderer(io.Discard)
	lr.SetColorProfile(termenv.ANSI256)
	color := lipgloss.Color("9")
	switch sev {
	case SeverityWarning:
		color = lipgloss.Color("11")
	case SeverityAdvice:
		color = lipgloss.Color("14")
	}
	return styles{
		severity: lr.NewStyle().Foreground(color).Bold(true),
		frame:    lr.NewStyle().Faint(true),
		label:    lr.NewStyle().Foreground(lipgloss.Color("13")),
		enabled:  true,
	}
}

func (s styles) paint(st lipgloss.Style, text string) string {
	if !s.enabled || text == "" {
		return text
	}
	return st.Render(text)
}

// Render returns d as text ending in a newline.
func (r *Renderer) Render(d Diagnostic) string {
	var b strings.Builder
	r.write(&b, d)
	return b.String()
}

// Write renders d to w.
func (r *Renderer) Write(w io.Writer, d Diagnostic) error {
	_, err := io.WriteString(w, r.Render(d))
	return err
}

// resolved is a label located in a real unit.
type resolved struct {
	Label
	file *source.File
}

// resolve finds the unit holding span. Macro output and other synthetic
// units have no text worth showing.
func (r *Renderer) resolve(span token.Span) (*source.File, bool) {
	if r.Map == nil || !span.Lo.IsValid() {
		return nil, false
	}
	file := r.Map.FileOf(span.Lo)
	if file == nil || file.Name().IsSynthetic() {
		return nil, false
	}
	return file, true
}

// frames groups the renderable labels by unit, in order of first use.
func (r *Renderer) frames(d Diagnostic) [][]resolved {
	var out [][]resolved
	index := make(map[*source.File]int)
	add := func(l Label) bool {
		file, ok := r.resolve(l.Span)
		if !ok {
			return false
		}
		i, seen := index[file]
		if !seen {
			i = len(out)
			index[file] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], resolved{Label: l, file: file})
		return true
	}

	for _, l := range d.Labels {
		add(l)
	}
	// No label could be placed: point at the fallback span instead
	if len(out) == 0 {
		add(Label{Span: d.Fallback})
	}
	return out
}

func (r *Renderer) write(b *strings.Builder, d Diagnostic) {
	st := r.styles(d.Severity)

	// Header: glyph and first message line, continuation lines indented
	lines := strings.Split(strings.TrimRight(d.Message, "\n"), "\n")
	b.WriteString("  ")
	b.WriteString(st.paint(st.severity, d.Severity.glyph()))
	b.WriteByte(' ')
	b.WriteString(st.paint(st.severity, lines[0]))
	b.WriteByte('\n')
	for _, line := range lines[1:] {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}

	for _, labels := range r.frames(d) {
		r.writeFrame(b, st, labels)
	}
}

// lineSpan is the part of a label on one line, as byte offsets in the unit.
type lineSpan struct {
	start, end int
	text       string // set on the label's last line only
}

func (r *Renderer) writeFrame(b *strings.Builder, st styles, labels []resolved) {
	file := labels[0].file
	ctx := r.ContextLines
	if ctx < 0 {
		ctx = 0
	}

	// Split every label into per-line spans
	marks := make(map[int][]lineSpan)
	first, last := 0, 0
	for _, l := range labels {
		lo, hi := file.Position(l.Span.Lo), file.Position(l.Span.Hi)
		if !hi.IsValid() || hi.Offset < lo.Offset {
			hi = lo
		}
		// A span ending at a line start does not underline that line
		endLine := hi.Line
		if endLine > lo.Line && hi.Column == 1 {
			endLine--
		}
		for n := lo.Line; n <= endLine; n++ {
			ls := lineSpan{start: file.LineStart(n), end: file.LineStart(n) + len(file.Line(n))}
			if n == lo.Line {
				ls.start = lo.Offset
			}
			if n == endLine && hi.Offset < ls.end {
				ls.end = hi.Offset
			}
			if n == endLine {
				ls.text = l.Text
			}
			ls.start = min(ls.start, lineEnd(file, n))
			ls.end = max(ls.start, min(ls.end, lineEnd(file, n)))
			marks[n] = append(marks[n], ls)
		}
		if first == 0 || lo.Line < first {
			first = lo.Line
		}
		if endLine > last {
			last = endLine
		}
	}

	from := max(1, first-ctx)
	to := min(file.LineCount(), last+ctx)
	width := len(strconv.Itoa(to))
	pad := strings.Repeat(" ", width)

	// Location header uses 1-based character columns
	head := file.Position(labels[0].Span.Lo)
	col := len([]rune(file.Source()[file.LineStart(head.Line):head.Offset])) + 1
	b.WriteString(pad + "  ")
	b.WriteString(st.paint(st.frame, "╭─["))
	b.WriteString(file.Name().String())
	b.WriteString(":" + strconv.Itoa(head.Line) + ":" + strconv.Itoa(col))
	b.WriteString(st.paint(st.frame, "]"))
	b.WriteByte('\n')

	// Source lines with their underlines
	for n := from; n <= to; n++ {
		num := strconv.Itoa(n)
		text := expandTabs(file.Line(n))
		row := " " + strings.Repeat(" ", width-len(num)) + st.paint(st.frame, num+" │") + " " + text
		b.WriteString(strings.TrimRight(row, " "))
		b.WriteByte('\n')

		lineStart := file.LineStart(n)
		raw := file.Line(n)
		for _, m := range marks[n] {
			startCol := displayWidth(raw[:m.start-lineStart])
			endCol := displayWidth(raw[:m.end-lineStart])
			r.writeUnderline(b, st, pad, startCol, max(1, endCol-startCol), m.text)
		}
	}

	b.WriteString(pad + "  ")
	b.WriteString(st.paint(st.frame, "╰────"))
	b.WriteByte('\n')
}

func (r *Renderer) writeUnderline(b *strings.Builder, st styles, pad string, col, width int, text string) {
	gutter := " " + pad + st.paint(st.frame, " ·") + " "
	indent := strings.Repeat(" ", col)
	if text == "" {
		b.WriteString(gutter + indent + st.paint(st.label, strings.Repeat("─", width)))
		b.WriteByte('\n')
		return
	}
	// The label hangs off the middle of the underline
	left := (width - 1) / 2
	line := strings.Repeat("─", left) + "┬" + strings.Repeat("─", width-1-left)
	b.WriteString(gutter + indent + st.paint(st.label, line))
	b.WriteByte('\n')
	b.WriteString(gutter + indent + strings.Repeat(" ", left) + st.paint(st.label, "╰── "+text))
	b.WriteByte('\n')
}

func lineEnd(file *source.File, n int) int {
	return file.LineStart(n) + len(file.Line(n))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// displayWidth returns the terminal width of s with tabs expanded.
func displayWidth(s string) int {
	return runewidth.StringWidth(expandTabs(s))
}
