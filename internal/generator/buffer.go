package generator

import (
	"bytes"
	"fmt"
	"strings"
)

// codeBuffer accumulates indented source lines.
type codeBuffer struct {
	buf   bytes.Buffer
	unit  string
	depth int
}

func newCodeBuffer(unit string) *codeBuffer {
	return &codeBuffer{unit: unit}
}

func (b *codeBuffer) indent() { b.depth++ }

func (b *codeBuffer) dedent() {
	if b.depth > 0 {
		b.depth--
	}
}

func (b *codeBuffer) line(s string) {
	b.buf.WriteString(strings.Repeat(b.unit, b.depth))
	b.buf.WriteString(s)
	b.buf.WriteByte('\n')
}

func (b *codeBuffer) linef(format string, args ...any) {
	b.line(fmt.Sprintf(format, args...))
}

func (b *codeBuffer) blank() {
	b.buf.WriteByte('\n')
}

// raw appends s without indentation.
func (b *codeBuffer) raw(s string) {
	b.buf.WriteString(s)
}

func (b *codeBuffer) String() string {
	return b.buf.String()
}
