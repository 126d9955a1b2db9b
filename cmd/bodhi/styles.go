package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	bodhi "github.com/navana-tech/bodhi-go"
)

var (
	colorAccent = lipgloss.Color("#7C3AED")
	colorMuted  = lipgloss.Color("#6B7280")
	colorError  = lipgloss.Color("#EF4444")
	colorOK     = lipgloss.Color("#10B981")

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	styleLabel = lipgloss.NewStyle().
			Bold(true)

	styleTime = lipgloss.NewStyle().
			Foreground(colorMuted)

	stylePartial = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	styleError = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorOK)
)

// printer renders transcript events. Partial results are only shown on a
// terminal, where they are redrawn in place until the segment completes.
type printer struct {
	out     io.Writer
	live    bool
	pending bool
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out, live: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func (p *printer) header(source string) {
	fmt.Fprintln(p.out, styleHeader.Render("▸ "+source))
}

func (p *printer) transcript(resp *bodhi.Response) {
	if !resp.IsFinal() {
		if p.live && resp.Text != "" {
			fmt.Fprint(p.out, "\r\033[K"+stylePartial.Render(resp.Text))
			p.pending = true
		}
		return
	}
	p.clearPartial()
	if resp.Text == "" {
		return
	}
	stamp := styleTime.Render(fmt.Sprintf("[%6.2f - %6.2f]", resp.StartTime, resp.EndTime))
	fmt.Fprintf(p.out, "%s %s\n", stamp, resp.Text)
}

func (p *printer) failure(err *bodhi.Error) {
	p.clearPartial()
	fmt.Fprintln(p.out, styleError.Render(string(err.Status))+" "+err.Message)
}

func (p *printer) closed(reason string) {
	p.clearPartial()
	fmt.Fprintln(p.out, styleTime.Render("connection "+reason))
}

func (p *printer) clearPartial() {
	if p.pending {
		fmt.Fprint(p.out, "\r\033[K")
		p.pending = false
	}
}
