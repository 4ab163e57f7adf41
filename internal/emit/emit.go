// Package emit writes one Sequelize model module per table.
package emit

import (
	"log/slog"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/jsval"
	"github.com/hlop3z/seqgen/internal/model"
	"github.com/hlop3z/seqgen/internal/schema"
	"github.com/hlop3z/seqgen/internal/writer"
)

// Result is the outcome of emitting one table.
type Result int

const (
	// ResultOK means the model file was written.
	ResultOK Result = iota
	// ResultExternal means the table is defined elsewhere and was skipped.
	ResultExternal
	// ResultSkippedM2M means the table is a junction table and was skipped.
	ResultSkippedM2M
	// ResultFailed means writing the model file failed.
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultExternal:
		return "external"
	case ResultSkippedM2M:
		return "skipped-m2m"
	case ResultFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultFilenamePattern names files after the model.
const DefaultFilenamePattern = "%entity%.%extension%"

// Emitter writes model modules. Its fields are read-only once Emit is
// called, so one Emitter may serve several goroutines.
type Emitter struct {
	// Builder builds the value trees. Nil means a builder logging to Logger.
	Builder *model.Builder
	// Indent is one indentation unit, used by both the writer and the
	// serialized trees.
	Indent string
	// SkipM2M skips junction tables.
	SkipM2M bool
	// AddComment prefixes every file with a generator banner.
	AddComment bool
	// FilenamePattern names output files; empty means DefaultFilenamePattern.
	FilenamePattern string
	// Common holds table properties merged over the defaults of every model.
	Common *jsval.Map
	// Version and Source appear in the banner.
	Version string
	Source  string
	Logger  *slog.Logger
}

func (e *Emitter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Emitter) builder() *model.Builder {
	if e.Builder == nil {
		return model.NewBuilder(e.Logger)
	}
	return e.Builder
}

// Emit writes the model module for t to w.
//
// External tables return ResultExternal without touching w. Junction tables
// return ResultSkippedM2M when SkipM2M is set. Otherwise the file named by
// FileName is written and closed, even when writing fails.
func (e *Emitter) Emit(t *schema.Table, w writer.Writer) (Result, error) {
	switch {
	case t.External:
		e.logger().Debug("skipping external table", "table", t.Name)
		return ResultExternal, nil
	case e.SkipM2M && t.ManyToMany:
		e.logger().Debug("skipping many-to-many table", "table", t.Name)
		return ResultSkippedM2M, nil
	}

	name := e.FileName(t)
	if err := w.Open(name); err != nil {
		return ResultFailed, alerr.NewWriteError(err, t.Name, name)
	}

	closed := false
	defer func() {
		if !closed {
			_ = w.Close()
		}
	}()

	e.writeBody(t, w)

	closed = true
	if err := w.Close(); err != nil {
		return ResultFailed, alerr.NewWriteError(err, t.Name, name)
	}

	e.logger().Debug("wrote model", "table", t.Name, "model", t.Model, "file", name)
	return ResultOK, nil
}

func (e *Emitter) writeBody(t *schema.Table, w writer.Writer) {
	b := e.builder()
	render := jsval.Options{Multiline: true, Indent: e.Indent, Depth: 1}
	fields := jsval.Serialize(b.BuildFields(t), render)
	options := jsval.Serialize(b.BuildOptions(t, e.Common), render)

	if e.AddComment {
		w.Write(e.Banner(t))
		w.Write("")
	}
	w.Write("const { DataTypes, Model } = require('sequelize');")
	w.Write("")
	w.Write("class %s extends Model {", t.Model)
	w.Write("}")
	w.Write("")
	w.Write("module.exports = (sequelize) => {")
	w.Indent()
	w.Write("return %s.init(%s, %s);", t.Model, fields, options)
	w.Outdent()
	w.Write("}")
}
