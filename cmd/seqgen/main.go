// Package main provides the seqgen CLI, which generates Sequelize model
// modules from a schema document or a live database.
//
// Usage:
//
//	seqgen                       # same as 'seqgen generate'
//	seqgen generate              # write one model file per table
//	seqgen check                 # fail if the model files are out of date
//	seqgen watch                 # regenerate when the schema file changes
//	seqgen serve                 # preview generated models over HTTP
//	seqgen types                 # list the datatype mapping
//	seqgen version               # print the version
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/cli"
	"github.com/hlop3z/seqgen/internal/config"
)

// version is set via ldflags during build: -ldflags="-X main.version=v1.0.0"
var version = "dev"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configFile string
	verbose    bool
	noColor    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "seqgen",
		Short:         "Generate Sequelize models from table metadata",
		Long:          `seqgen reads table metadata from a YAML/JSON schema document or a live MySQL, PostgreSQL or SQLite database and writes one Sequelize model module per table.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				cli.SetDefault(cli.NewConfigWithMode(cli.ModePlain))
			}
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), g.verbose))
		},
	}

	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", config.DefaultFile, "path to config file")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "disable colored output")

	gen := generateCmd(g)
	root.RunE = gen.RunE
	config.RegisterFlags(root.Flags())
	root.Flags().Bool("dry-run", false, "print the files that would be written")

	root.AddCommand(
		gen,
		checkCmd(g),
		watchCmd(g),
		serveCmd(g),
		typesCmd(),
		versionCmd(),
	)
	return root
}

// newLogger returns a text logger on w. Verbose lowers the level to debug.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprint(os.Stderr, cli.FormatError(err))
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for model drift and 1 for every other failure.
func exitCode(err error) int {
	var ae *alerr.Error
	if errors.As(err, &ae) && ae.GetCode() == alerr.ErrDrift {
		return 2
	}
	return 1
}
