package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hlop3z/seqgen/internal/cli"
	"github.com/hlop3z/seqgen/internal/config"
	"github.com/hlop3z/seqgen/internal/emit"
	"github.com/hlop3z/seqgen/internal/manifest"
	"github.com/hlop3z/seqgen/internal/writer"
	"github.com/hlop3z/seqgen/pkg/seqgen"
)

// generateCmd writes one model file per table.
func generateCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate Sequelize model files",
		Long: `Generate reads the configured schema document or database and writes
one Sequelize model module per table to the output directory, or to the
configured object store bucket.

With --dry-run nothing is written; the file list is printed instead.`,
		Example: `  seqgen generate -s schema.yaml -o ./models
  seqgen generate -d postgres://localhost/app --skip-m2m=false
  seqgen generate --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), cfg, dryRun)
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().Bool("dry-run", false, "print the files that would be written")
	return cmd
}

// runGenerate performs one generation run and prints its report.
func runGenerate(ctx context.Context, out io.Writer, cfg *config.Config, dryRun bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	var target writer.Target
	if dryRun {
		target = writer.NewMemory(gen.WriterOptions())
	} else if target, err = newTarget(ctx, cfg, gen); err != nil {
		return err
	}

	report, err := generate(ctx, cfg, gen, target)
	if report != nil {
		printReport(out, report, dryRun)
	}
	if err != nil {
		return err
	}

	if dir, ok := target.(*writer.Dir); ok {
		return saveManifest(cfg, dir, report)
	}
	return nil
}

// generate loads the configured schema and runs gen against target.
func generate(ctx context.Context, cfg *config.Config, gen *seqgen.Generator, target writer.Target) (*seqgen.Report, error) {
	s, err := seqgen.LoadSchema(ctx, schemaSource(cfg))
	if err != nil {
		return nil, err
	}
	return gen.Generate(ctx, s, target)
}

// saveManifest records the checksums of the files just written.
func saveManifest(cfg *config.Config, dir *writer.Dir, report *seqgen.Report) error {
	if cfg.Manifest == "" {
		return nil
	}
	files, err := manifest.ReadFiles(dir.Root(), report.Files())
	if err != nil {
		return err
	}
	m, err := manifest.Compute(files)
	if err != nil {
		return err
	}
	m.Generator = "seqgen " + version
	if err := manifest.Save(cfg.Manifest, m); err != nil {
		return err
	}
	slog.Debug("manifest saved", "path", cfg.Manifest, "files", len(m.Files), "root", m.Root)
	return nil
}

// printReport renders one row per table and a summary line.
func printReport(out io.Writer, report *seqgen.Report, dryRun bool) {
	t := cli.NewTable("Table", "Model", "File", "Result")
	for _, e := range report.Entries {
		file := e.Location
		if file == "" {
			file = "-"
		}
		result := e.Result.String()
		switch e.Result {
		case emit.ResultOK:
			result = cli.Success(result)
		case emit.ResultFailed:
			result = cli.Error(result)
		default:
			result = cli.Dim(result)
		}
		t.AddRow(e.Table, e.Model, file, result)
	}
	if t.Len() > 0 {
		t.Render(out)
	}

	written := report.Count(emit.ResultOK)
	verb := "Generated"
	if dryRun {
		verb = "Would generate"
	}
	summary := fmt.Sprintf("%s %s", verb, cli.FormatCount(written, "model", "models"))
	if skipped := report.Count(emit.ResultExternal) + report.Count(emit.ResultSkippedM2M); skipped > 0 {
		summary += fmt.Sprintf(", skipped %d", skipped)
	}
	if failed := report.Count(emit.ResultFailed); failed > 0 {
		summary += fmt.Sprintf(", %d failed", failed)
		fmt.Fprint(out, cli.FormatWarning(summary))
		return
	}
	fmt.Fprint(out, cli.FormatSuccess(summary))
}
