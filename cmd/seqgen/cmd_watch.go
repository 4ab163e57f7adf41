package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/cli"
	"github.com/hlop3z/seqgen/internal/config"
)

// debounceDelay coalesces the burst of events editors emit on save.
const debounceDelay = 100 * time.Millisecond

// watchCmd regenerates the models whenever the schema document or the
// common property file changes.
func watchCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate models when the schema file changes",
		Long: `Watch generates the models once and then regenerates them every time the
schema document or the common property file is saved. Errors are printed
and watching continues. Stop with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			if cfg.Schema == "" {
				return alerr.New(alerr.ErrConfigInvalid, "watch needs a schema file").
					WithHelp("pass --schema or set 'schema' in " + config.DefaultFile)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, cmd.OutOrStdout(), cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

// watchedFiles returns the absolute paths whose changes trigger a run.
func watchedFiles(cfg *config.Config) []string {
	var files []string
	for _, f := range []string{cfg.Schema, cfg.CommonTableProp} {
		if f == "" {
			continue
		}
		if abs, err := filepath.Abs(f); err == nil {
			files = append(files, abs)
		}
	}
	return files
}

// watch runs generation once, then again after each change until ctx ends.
// Directories are watched instead of files so that editors replacing the
// file on save keep being tracked.
func watch(ctx context.Context, out io.Writer, cfg *config.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return alerr.Wrap(alerr.EInternalError, err, "failed to start file watcher")
	}
	defer func() { _ = watcher.Close() }()

	files := watchedFiles(cfg)
	wanted := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		wanted[f] = true
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return alerr.Wrap(alerr.EInternalError, err, "failed to watch directory").WithFile(dir, 0)
		}
	}

	runs := make(chan struct{}, 1)
	runs <- struct{}{}
	trigger := func() {
		select {
		case runs <- struct{}{}:
		default:
		}
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-runs:
			if err := runGenerate(ctx, out, cfg, false); err != nil {
				fmt.Fprint(out, cli.FormatError(err))
			}
			fmt.Fprintln(out, cli.Dim("watching for changes..."))

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !wanted[name] {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				slog.Debug("file changed, regenerating", "file", event.Name)
				trigger()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}
