package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hlop3z/seqgen/internal/config"
	"github.com/hlop3z/seqgen/internal/writer"
	"github.com/hlop3z/seqgen/pkg/seqgen"
)

// loadConfig loads configuration from file, env vars, and CLI flags.
// Precedence: CLI flags > env vars > config file > defaults.
// The default config file may be absent; an explicit --config must exist.
func loadConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, error) {
	optional := !cmd.Flags().Changed("config")

	cfg, err := config.Load(g.configFile, optional)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// schemaSource describes where cfg reads table metadata from.
func schemaSource(cfg *config.Config) seqgen.Source {
	return seqgen.Source{
		File:        cfg.Schema,
		DatabaseURL: cfg.DatabaseURL,
		Dialect:     cfg.Dialect,
		Logger:      slog.Default(),
	}
}

// newGenerator creates a generator configured from cfg.
func newGenerator(cfg *config.Config) (*seqgen.Generator, error) {
	return seqgen.New(
		seqgen.WithIndent(cfg.IndentUnit()),
		seqgen.WithSkipM2M(cfg.SkipM2M),
		seqgen.WithComment(cfg.AddComment),
		seqgen.WithFilenamePattern(cfg.Filename),
		seqgen.WithCommonProps(cfg.CommonTableProp),
		seqgen.WithExternalTables(cfg.ExternalTables...),
		seqgen.WithJobs(cfg.Jobs),
		seqgen.WithVerify(cfg.Verify),
		seqgen.WithBanner(version, schemaSource(cfg).String()),
		seqgen.WithLogger(slog.Default()),
	)
}

// newTarget returns the object store target when one is configured, and
// the output directory otherwise.
func newTarget(ctx context.Context, cfg *config.Config, gen *seqgen.Generator) (writer.Target, error) {
	if !cfg.ObjectStore.Enabled() {
		return writer.NewDir(cfg.OutputDir, gen.WriterOptions()), nil
	}

	client, err := writer.NewMinioClient(cfg.ObjectStore)
	if err != nil {
		return nil, err
	}
	return writer.NewObjectStore(ctx, client, cfg.ObjectStore.Bucket, cfg.ObjectStore.Prefix, gen.WriterOptions()), nil
}
