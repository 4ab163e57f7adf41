// Package seqgen generates Sequelize model modules from relational table
// metadata.
//
// A Generator turns every table of a schema.Schema into one CommonJS module
// exporting a factory that calls Model.init with the table's fields and
// options:
//
//	gen, err := seqgen.New(
//	    seqgen.WithIndent("  "),
//	    seqgen.WithExternalTables("sessions"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s, err := seqgen.LoadSchema(ctx, seqgen.Source{File: "schema.yaml"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := gen.Generate(ctx, s, writer.NewDir("./models", gen.WriterOptions()))
package seqgen

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/emit"
	"github.com/hlop3z/seqgen/internal/jsval"
	"github.com/hlop3z/seqgen/internal/model"
	"github.com/hlop3z/seqgen/internal/schema"
	"github.com/hlop3z/seqgen/internal/verify"
	"github.com/hlop3z/seqgen/internal/writer"
)

// Generator emits model files for whole schemas. It is safe for concurrent
// use; each Generate call loads the common properties afresh.
type Generator struct {
	config *Config
}

// New creates a Generator with the given options.
func New(opts ...Option) (*Generator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := emit.ValidatePattern(cfg.FilenamePattern); err != nil {
		return nil, err
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Generator{config: cfg}, nil
}

// Config returns a copy of the generator configuration.
func (g *Generator) Config() Config {
	return *g.config
}

// WriterOptions returns the writer options matching the generator's
// indentation. Targets passed to Generate should be built with them.
func (g *Generator) WriterOptions() writer.Options {
	return writer.Options{Indent: g.config.Indent}
}

// emitter builds the emitter for one run.
func (g *Generator) emitter(common *jsval.Map) *emit.Emitter {
	return &emit.Emitter{
		Builder:         model.NewBuilder(g.config.Logger),
		Indent:          g.config.Indent,
		SkipM2M:         g.config.SkipM2M,
		AddComment:      g.config.AddComment,
		FilenamePattern: g.config.FilenamePattern,
		Common:          common,
		Version:         g.config.Version,
		Source:          g.config.Source,
		Logger:          g.config.Logger,
	}
}

// Generate emits every table of s into target and reports the outcome of
// each, in schema order. A failed table does not stop the others; the
// returned error summarizes all failures. Cancelling ctx stops tables not
// yet started.
func (g *Generator) Generate(ctx context.Context, s *schema.Schema, target writer.Target) (*Report, error) {
	log := g.config.Logger
	start := time.Now()

	if err := s.MarkExternal(g.config.ExternalTables...); err != nil {
		return nil, err
	}

	common := model.LoadCommonProps(g.config.CommonPropsPath, log)
	em := g.emitter(common)

	report := &Report{Entries: make([]Entry, len(s.Tables))}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.Jobs)

	for i, t := range s.Tables {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				report.Entries[i] = Entry{Table: t.Name, Model: t.Model, Result: emit.ResultFailed, Err: err}
				return err
			}
			report.Entries[i] = g.generateTable(em, t, target)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return report, err
	}

	log.Info("generation finished",
		"tables", len(s.Tables),
		"written", report.Count(emit.ResultOK),
		"failed", report.Count(emit.ResultFailed),
		"duration", time.Since(start).Round(time.Millisecond))

	return report, report.Err()
}

func (g *Generator) generateTable(em *emit.Emitter, t *schema.Table, target writer.Target) Entry {
	entry := Entry{Table: t.Name, Model: t.Model}

	if g.config.Verify && !t.External && !(em.SkipM2M && t.ManyToMany) {
		if err := g.verifyTable(em, t); err != nil {
			entry.Result = emit.ResultFailed
			entry.Err = err
			return entry
		}
	}

	res, err := em.Emit(t, target.NewWriter())
	entry.Result = res
	entry.Err = err
	if res == emit.ResultOK || res == emit.ResultFailed {
		entry.File = em.FileName(t)
		entry.Location = target.Location(entry.File)
	}
	return entry
}

// verifyTable renders t in memory, evaluates the module and checks that
// Model.init receives exactly the built trees.
func (g *Generator) verifyTable(em *emit.Emitter, t *schema.Table) error {
	mem := writer.NewMemory(g.WriterOptions())
	if _, err := em.Emit(t, mem.NewWriter()); err != nil {
		return err
	}
	name := em.FileName(t)
	src, _ := mem.File(name)

	def, err := verify.Check(name, src)
	if err != nil {
		return err
	}

	flat := jsval.Options{}
	b := em.Builder
	switch {
	case def.Class != t.Model:
		return alerr.Newf(alerr.ErrJSShape, "module initializes %q instead of %q", def.Class, t.Model).
			WithTable(t.Name).WithFile(name, 0)
	case jsval.Serialize(def.Fields, flat) != jsval.Serialize(b.BuildFields(t), flat):
		return alerr.New(alerr.ErrJSShape, "module fields differ from the table definition").
			WithTable(t.Name).WithFile(name, 0)
	case jsval.Serialize(def.Options, flat) != jsval.Serialize(b.BuildOptions(t, em.Common), flat):
		return alerr.New(alerr.ErrJSShape, "module options differ from the table definition").
			WithTable(t.Name).WithFile(name, 0)
	}
	g.config.Logger.Debug("verified model", "table", t.Name, "file", name)
	return nil
}

// -----------------------------------------------------------------------------
// Report
// -----------------------------------------------------------------------------

// Entry is the outcome for one table.
type Entry struct {
	Table    string
	Model    string
	File     string // empty for skipped tables
	Location string // where the target put File
	Result   emit.Result
	Err      error
}

// Report lists one Entry per table in schema order.
type Report struct {
	Entries []Entry
}

// Count returns the number of entries with result r.
func (r *Report) Count(res emit.Result) int {
	n := 0
	for _, e := range r.Entries {
		if e.Result == res {
			n++
		}
	}
	return n
}

// Files returns the names of the files written, in schema order.
func (r *Report) Files() []string {
	var files []string
	for _, e := range r.Entries {
		if e.Result == emit.ResultOK {
			files = append(files, e.File)
		}
	}
	return files
}

// Failed returns the failed entries.
func (r *Report) Failed() []Entry {
	var failed []Entry
	for _, e := range r.Entries {
		if e.Result == emit.ResultFailed {
			failed = append(failed, e)
		}
	}
	return failed
}

// Err returns nil when every table succeeded or was skipped, and otherwise
// an ErrWriteFailed error whose cause joins the per-table errors.
func (r *Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, len(failed))
	tables := make([]string, len(failed))
	for i, e := range failed {
		errs[i] = e.Err
		tables[i] = e.Table
	}
	return alerr.Wrapf(alerr.ErrWriteFailed, errors.Join(errs...), "%d of %d models failed", len(failed), len(r.Entries)).
		With("tables", tables)
}
