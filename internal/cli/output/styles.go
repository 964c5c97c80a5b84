package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Colors
var (
	colorAccent  = lipgloss.Color("#11C3DB") // cyan
	colorSuccess = lipgloss.Color("10")      // green
	colorWarning = lipgloss.Color("#D4AF37") // gold
	colorError   = lipgloss.Color("9")       // red
	colorMuted   = lipgloss.Color("8")       // gray
)

// Styles holds the lipgloss styles used for text output.
type Styles struct {
	Header1  lipgloss.Style
	Header2  lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	FilePath lipgloss.Style
}

// NewStyles builds styles that render to w. Without colour every style
// renders plain text.
func NewStyles(w io.Writer, color bool) *Styles {
	lr := lipgloss.NewRenderer(w)
	if !color {
		lr.SetColorProfile(termenv.Ascii)
	}
	return &Styles{
		Header1:  lr.NewStyle().Bold(true).Foreground(colorAccent),
		Header2:  lr.NewStyle().Bold(true),
		Success:  lr.NewStyle().Foreground(colorSuccess),
		Warning:  lr.NewStyle().Foreground(colorWarning),
		Error:    lr.NewStyle().Bold(true).Foreground(colorError),
		Muted:    lr.NewStyle().Foreground(colorMuted),
		FilePath: lr.NewStyle().Foreground(colorAccent),
	}
}
