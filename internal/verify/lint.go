// Package verify checks generated model modules: esbuild parses them for
// syntax errors and goja runs them against a stub sequelize module to read
// back the arguments passed to Model.init.
package verify

import (
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/hlop3z/seqgen/internal/alerr"
)

// Lint parses src as a CommonJS module and returns the first syntax error,
// located in name. Every other error message is attached as help.
func Lint(name, src string) error {
	result := api.Transform(src, api.TransformOptions{
		Loader:     api.LoaderJS,
		Format:     api.FormatCommonJS,
		Target:     api.ES2020,
		Sourcefile: name,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) == 0 {
		return nil
	}

	first := result.Errors[0]
	err := alerr.New(alerr.ErrJSSyntax, first.Text)
	if loc := first.Location; loc != nil {
		err.WithFile(name, loc.Line).With("column", loc.Column+1)
		if line := strings.TrimSpace(loc.LineText); line != "" {
			err.With("source", line)
		}
	} else {
		err.WithFile(name, 0)
	}
	for _, m := range result.Errors[1:] {
		err.WithHelp(m.Text)
	}
	return err
}
