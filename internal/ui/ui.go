// Package ui renders transcripts and batch summaries for the terminal.
// Styling is only applied when the output is a terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"ytscript/internal/media"
)

const defaultWidth = 80

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	idStyle        = lipgloss.NewStyle().Faint(true)
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	cancelledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	reasonStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of f with a margin, or 80 when unknown.
func Width(f *os.File) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	if width > 10 {
		return width - 4
	}
	return width
}

// Renderer formats output either styled or as plain text.
type Renderer struct {
	styled bool
	width  int
}

// NewRenderer returns a Renderer. Width only applies to styled output.
func NewRenderer(styled bool, width int) *Renderer {
	if width <= 0 {
		width = defaultWidth
	}
	return &Renderer{styled: styled, width: width}
}

// ForFile returns a Renderer styled when f is a terminal.
func ForFile(f *os.File) *Renderer {
	if IsTerminal(f) {
		return NewRenderer(true, Width(f))
	}
	return NewRenderer(false, 0)
}

// ForWriter returns a Renderer styled only when w is an *os.File attached to a terminal.
func ForWriter(w io.Writer) *Renderer {
	if f, ok := w.(*os.File); ok {
		return ForFile(f)
	}
	return NewRenderer(false, 0)
}

func (r *Renderer) render(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

// Transcript formats one transcript as a header line followed by its text.
func (r *Renderer) Transcript(t media.Transcript) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.render(titleStyle, "# "+t.Title), r.render(idStyle, "("+t.VideoID.String()+")"))
	if r.styled {
		b.WriteString(lipgloss.NewStyle().Width(r.width).Render(t.Text))
	} else {
		b.WriteString(t.Text)
	}
	b.WriteString("\n")
	return b.String()
}

// Summary formats the outcome of a batch: counts, then one line per failure
// and per cancelled reference.
func (r *Renderer) Summary(res *media.BatchResult) string {
	if res == nil {
		return ""
	}

	var b strings.Builder
	counts := []string{r.render(okStyle, fmt.Sprintf("%d succeeded", len(res.Successes)))}
	if len(res.Failures) > 0 {
		counts = append(counts, r.render(failStyle, fmt.Sprintf("%d failed", len(res.Failures))))
	}
	if len(res.Cancelled) > 0 {
		counts = append(counts, r.render(cancelledStyle, fmt.Sprintf("%d cancelled", len(res.Cancelled))))
	}
	b.WriteString(strings.Join(counts, ", "))
	b.WriteString("\n")

	for _, f := range res.Failures {
		fmt.Fprintf(&b, "  %s %s: %s\n", r.render(failStyle, "x"), f.Reference, r.render(reasonStyle, f.Reason))
	}
	for _, ref := range res.Cancelled {
		fmt.Fprintf(&b, "  %s %s: %s\n", r.render(cancelledStyle, "-"), ref, r.render(reasonStyle, "cancelled"))
	}
	return b.String()
}
