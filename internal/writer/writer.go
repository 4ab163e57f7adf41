// Package writer provides line-oriented, indentation-aware output sinks for
// generated model files.
//
// A Target hands out Writers. A Writer is used for one file at a time:
// Open, any number of Write/Indent/Outdent calls, then Close. Write never
// returns an error; the first failure is kept and reported by Close, and a
// failed file is never committed to the target.
package writer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hlop3z/seqgen/internal/alerr"
)

// Writer writes one file at a time.
type Writer interface {
	// Open starts a new file. name is a slash-separated path relative to the
	// target root.
	Open(name string) error
	// Write appends a line at the current indentation. With no args the
	// line is written verbatim; otherwise it is a fmt format string. Only the
	// first physical line is indented: embedded newlines are followed by text
	// that already carries its own indentation. An empty line gets no
	// indentation.
	Write(line string, args ...any)
	// Indent increases the indentation level of subsequent lines.
	Indent()
	// Outdent decreases the indentation level, never below zero.
	Outdent()
	// Close commits the file and reports the first error since Open.
	Close() error
}

// Target creates writers that commit to one destination.
// NewWriter may be called from several goroutines; each writer is owned by
// one goroutine.
type Target interface {
	NewWriter() Writer
	// Location describes where files end up, for reports.
	Location(name string) string
}

// Options configures writers.
type Options struct {
	// Indent is one indentation unit. Empty means no indentation.
	Indent string
}

// IndentUnit builds an indentation unit of n spaces, or n tabs when useTabs.
func IndentUnit(n int, useTabs bool) string {
	if n <= 0 {
		return ""
	}
	if useTabs {
		return strings.Repeat("\t", n)
	}
	return strings.Repeat(" ", n)
}

// lineBuffer holds the state shared by every Writer implementation.
type lineBuffer struct {
	indent string
	level  int
	name   string
	open   bool
	buf    bytes.Buffer
	err    error
}

func (l *lineBuffer) begin(name string) error {
	if l.open {
		return alerr.Newf(alerr.ErrWriteFailed, "open %q: %q is still open", name, l.name)
	}
	if name == "" {
		return alerr.New(alerr.ErrWriteFailed, "file name is empty")
	}
	l.name = name
	l.open = true
	l.level = 0
	l.err = nil
	l.buf.Reset()
	return nil
}

func (l *lineBuffer) Write(line string, args ...any) {
	if !l.open {
		l.fail(alerr.New(alerr.ErrWriteFailed, "write without open"))
		return
	}
	if l.err != nil {
		return
	}
	if len(args) > 0 {
		line = fmt.Sprintf(line, args...)
	}
	if line != "" {
		l.buf.WriteString(strings.Repeat(l.indent, l.level))
		l.buf.WriteString(line)
	}
	l.buf.WriteByte('\n')
}

func (l *lineBuffer) Indent() {
	l.level++
}

func (l *lineBuffer) Outdent() {
	if l.level > 0 {
		l.level--
	}
}

func (l *lineBuffer) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

// end closes the buffer and returns the content and first error.
func (l *lineBuffer) end() ([]byte, error) {
	if !l.open {
		return nil, alerr.New(alerr.ErrWriteFailed, "close without open")
	}
	l.open = false
	if l.err != nil {
		return nil, l.err
	}
	return bytes.Clone(l.buf.Bytes()), nil
}
