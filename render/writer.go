// Package render is the code-writing engine generators drive. A GoWriter
// expands placeholder templates into an indented buffer while recording the
// imports and module dependencies the emitted text relies on, so a file's
// import block and the run's manifest always agree with its body.
package render

import (
	"strings"

	"github.com/teranos/wiregen/errors"
)

// CodeWriter is the language-neutral half: an indent-aware buffer with a
// saved-state stack. Mutators never return errors; the first failure
// sticks, later calls are no-ops, and Err or Finalize surfaces it. The
// bufio.Writer convention, chosen so generator bodies read linearly.
type CodeWriter struct {
	buf         strings.Builder
	indent      int
	indentText  string
	atLineStart bool
	states      []writerState
	err         error
}

type writerState struct {
	indent int
}

// NewCodeWriter returns a writer indenting with tabs.
func NewCodeWriter() *CodeWriter {
	return &CodeWriter{indentText: "\t", atLineStart: true}
}

// Err returns the first error any write recorded.
func (w *CodeWriter) Err() error {
	return w.err
}

func (w *CodeWriter) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Indent increases the indent level.
func (w *CodeWriter) Indent() {
	w.indent++
}

// Dedent decreases the indent level. Dropping below zero is a programmer
// error and sticks rather than clamping.
func (w *CodeWriter) Dedent() {
	if w.err != nil {
		return
	}
	if w.indent == 0 {
		w.fail(errors.Wrap(errors.ErrRender, "dedent below zero"))
		return
	}
	w.indent--
}

// PushState saves the current indent level.
func (w *CodeWriter) PushState() {
	w.states = append(w.states, writerState{indent: w.indent})
}

// PopState restores the most recent saved state. Pops must pair with
// pushes.
func (w *CodeWriter) PopState() {
	if len(w.states) == 0 {
		w.fail(errors.Wrap(errors.ErrRender, "pop with no pushed state"))
		return
	}
	top := w.states[len(w.states)-1]
	w.states = w.states[:len(w.states)-1]
	w.indent = top.indent
}

// withScopedState runs fn between a push/pop pair, restoring state even
// when fn fails.
func (w *CodeWriter) withScopedState(fn func() error) error {
	w.PushState()
	err := fn()
	w.PopState()
	return err
}

// writeText appends text, inserting the indent prefix at the start of every
// non-empty line.
func (w *CodeWriter) writeText(text string) {
	if w.err != nil {
		return
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\n' {
			w.buf.WriteByte('\n')
			w.atLineStart = true
			continue
		}
		if w.atLineStart {
			for n := 0; n < w.indent; n++ {
				w.buf.WriteString(w.indentText)
			}
			w.atLineStart = false
		}
		w.buf.WriteByte(c)
	}
}

// WriteNewline ends the current line.
func (w *CodeWriter) WriteNewline() {
	if w.err != nil {
		return
	}
	w.buf.WriteByte('\n')
	w.atLineStart = true
}

// String returns everything written so far.
func (w *CodeWriter) String() string {
	return w.buf.String()
}

// Len returns the buffer size in bytes.
func (w *CodeWriter) Len() int {
	return w.buf.Len()
}
