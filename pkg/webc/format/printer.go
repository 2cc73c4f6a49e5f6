package format

import (
	"strings"
)

// IndentString is one level of indentation.
const IndentString = "  "

// Printer manages formatting state and output
type Printer struct {
	output strings.Builder
	indent int // current indentation level
}

// NewPrinter creates a new Printer instance
func NewPrinter() *Printer {
	return &Printer{}
}

// String returns the formatted output
func (p *Printer) String() string {
	return p.output.String()
}

// Reset clears the printer state for reuse
func (p *Printer) Reset() {
	p.output.Reset()
	p.indent = 0
}

// line writes one indented line.
func (p *Printer) line(s string) {
	p.output.WriteString(strings.Repeat(IndentString, p.indent))
	p.output.WriteString(s)
	p.output.WriteByte('\n')
}

// open writes `s {` and indents.
func (p *Printer) open(s string) {
	p.line(s + " {")
	p.indent++
}

// close dedents and writes `}`.
func (p *Printer) close() {
	if p.indent > 0 {
		p.indent--
	}
	p.line("}")
}

func (p *Printer) blank() {
	p.output.WriteByte('\n')
}
