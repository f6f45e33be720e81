package codegen

import (
	"fmt"
	"strings"
)

// emitter owns the accumulating output buffer and the indentation level for
// one generation run. Indentation changes go through indented, whose guard
// restores the prior level on every exit path, including early failure.
type emitter struct {
	buf    strings.Builder
	indent int
}

const indentUnit = "    "

func newEmitter() *emitter {
	return &emitter{}
}

// line writes one indented line.
func (e *emitter) line(format string, args ...interface{}) {
	for i := 0; i < e.indent; i++ {
		e.buf.WriteString(indentUnit)
	}
	if len(args) == 0 {
		e.buf.WriteString(format)
	} else {
		fmt.Fprintf(&e.buf, format, args...)
	}
	e.buf.WriteByte('\n')
}

// blank writes an empty line.
func (e *emitter) blank() {
	e.buf.WriteByte('\n')
}

// indented runs fn one level deeper, restoring the level afterwards even
// when fn fails.
func (e *emitter) indented(fn func() error) error {
	e.indent++
	defer func() { e.indent-- }()
	return fn()
}

// String returns the accumulated output.
func (e *emitter) String() string {
	return e.buf.String()
}
