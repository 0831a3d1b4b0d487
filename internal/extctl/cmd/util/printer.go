package util

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/mitchellh/go-wordwrap"
	"github.com/moby/term"
)

// defaultWidth is used when the output is not a terminal.
const defaultWidth = 100

// Printer writes colored, width-aware messages to one stream.
type Printer struct {
	out   io.Writer
	width int

	ok   func(a ...interface{}) string
	warn func(a ...interface{}) string
	bad  func(a ...interface{}) string
	bold func(a ...interface{}) string
}

// NewPrinter creates a Printer for out. Color is only used on terminals.
func NewPrinter(out io.Writer) *Printer {
	width, tty := TerminalWidth(out)
	p := &Printer{out: out, width: width}

	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if tty {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	p.ok = mk(color.FgGreen, color.Bold)
	p.warn = mk(color.FgYellow, color.Bold)
	p.bad = mk(color.FgRed, color.Bold)
	p.bold = mk(color.Bold)
	return p
}

// TerminalWidth returns the column count of out and whether it is a terminal.
func TerminalWidth(out io.Writer) (int, bool) {
	fd, isTerm := term.GetFdInfo(out)
	if !isTerm {
		return defaultWidth, false
	}
	ws, err := term.GetWinsize(fd)
	if err != nil || ws.Width == 0 {
		return defaultWidth, true
	}
	return int(ws.Width), true
}

// Width is the wrap width of the printer.
func (p *Printer) Width() int { return p.width }

// Title prints a bold line.
func (p *Printer) Title(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.bold(fmt.Sprintf(format, args...)))
}

// OK prints a success line.
func (p *Printer) OK(format string, args ...interface{}) {
	p.line(p.ok("✔"), fmt.Sprintf(format, args...))
}

// Warning prints a warning line.
func (p *Printer) Warning(format string, args ...interface{}) {
	p.line(p.warn("!"), fmt.Sprintf(format, args...))
}

// Failure prints an error line.
func (p *Printer) Failure(format string, args ...interface{}) {
	p.line(p.bad("✘"), fmt.Sprintf(format, args...))
}

// Table prints rows as an aligned table; the first row is the header.
func (p *Printer) Table(rows ...[]interface{}) {
	if len(rows) == 0 {
		return
	}
	table := uitable.New()
	table.MaxColWidth = uint(p.width / 2)
	table.Wrap = true
	header := make([]interface{}, 0, len(rows[0]))
	for _, h := range rows[0] {
		header = append(header, p.bold(h))
	}
	table.AddRow(header...)
	for _, r := range rows[1:] {
		table.AddRow(r...)
	}
	fmt.Fprintln(p.out, table)
}

// line wraps msg to the terminal width and indents continuation lines under
// the first character after the marker.
func (p *Printer) line(marker, msg string) {
	width := p.width - 2
	if width < 20 {
		width = 20
	}
	wrapped := wordwrap.WrapString(msg, uint(width))
	lines := strings.Split(wrapped, "\n")
	fmt.Fprintf(p.out, "%s %s\n", marker, lines[0])
	for _, l := range lines[1:] {
		fmt.Fprintf(p.out, "  %s\n", l)
	}
}
