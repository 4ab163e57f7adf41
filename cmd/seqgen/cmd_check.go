package main

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/hlop3z/seqgen/internal/cli"
	"github.com/hlop3z/seqgen/internal/config"
	"github.com/hlop3z/seqgen/internal/manifest"
	"github.com/hlop3z/seqgen/internal/verify"
	"github.com/hlop3z/seqgen/internal/writer"
)

// checkCmd regenerates the models in memory and compares them with the
// files on disk.
func checkCmd(g *globalFlags) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify generated models and detect drift",
		Long: `Check regenerates every model in memory, evaluates each module to make
sure it loads, and compares the result with the output directory.

Files listed in the lock file or produced by the current schema are compared.
With --strict every .js file in the output directory takes part, so stray
files count as drift. When an object store is configured the lock file is
the only reference.

Exit code is 2 when the models are out of date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			return runCheck(cmd, cfg, strict)
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&strict, "strict", false, "treat every .js file in the output directory as generated")
	return cmd
}

func runCheck(cmd *cobra.Command, cfg *config.Config, strict bool) error {
	out := cmd.OutOrStdout()

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}
	mem := writer.NewMemory(gen.WriterOptions())
	if _, err := generate(cmd.Context(), cfg, gen, mem); err != nil {
		return err
	}

	if err := verifyModels(mem); err != nil {
		return err
	}

	expected, err := manifest.Compute(mem.Files())
	if err != nil {
		return err
	}

	lock, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return err
	}

	var actual *manifest.Manifest
	if cfg.ObjectStore.Enabled() {
		actual = lock
	} else {
		if actual, err = diskManifest(cfg.OutputDir, lock, mem.Names(), strict); err != nil {
			return err
		}
		if lock != nil && lock.Root != actual.Root {
			fmt.Fprint(out, cli.FormatNote(fmt.Sprintf("lock file %s does not match %s", cfg.Manifest, cfg.OutputDir)))
		}
	}

	cmp := manifest.Diff(actual, expected)
	printComparison(out, cmp)
	return cmp.Err()
}

// verifyModels loads every generated module and returns the joined failures.
func verifyModels(mem *writer.Memory) error {
	var errs []error
	for _, name := range mem.Names() {
		src, _ := mem.File(name)
		if _, err := verify.Check(name, src); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// diskManifest hashes the generated files found under root. Without strict
// the candidates are the lock file entries plus the freshly generated names.
func diskManifest(root string, lock *manifest.Manifest, generated []string, strict bool) (*manifest.Manifest, error) {
	var files map[string]string
	var err error
	if strict {
		files, err = manifest.ScanDir(root, "js")
	} else {
		names := slices.Clone(generated)
		if lock != nil {
			for _, e := range lock.Files {
				names = append(names, e.File)
			}
		}
		slices.Sort(names)
		files, err = manifest.ReadFiles(root, slices.Compact(names))
	}
	if err != nil {
		return nil, err
	}
	return manifest.Compute(files)
}

func printComparison(out io.Writer, cmp *manifest.Comparison) {
	if cmp.Match {
		fmt.Fprint(out, cli.FormatSuccess("models are up to date"))
		return
	}
	fmt.Fprint(out, cmp.Format())
}
