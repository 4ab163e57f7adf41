package emit

import (
	"strings"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/schema"
)

// Extension is the extension of every generated file.
const Extension = "js"

// Filename pattern placeholders.
const (
	PlaceholderEntity    = "%entity%"
	PlaceholderTable     = "%table%"
	PlaceholderExtension = "%extension%"
)

// FileName returns the output file name for t.
func (e *Emitter) FileName(t *schema.Table) string {
	pattern := e.FilenamePattern
	if pattern == "" {
		pattern = DefaultFilenamePattern
	}
	return ExpandPattern(pattern, t)
}

// ExpandPattern substitutes the placeholders of pattern for t.
func ExpandPattern(pattern string, t *schema.Table) string {
	r := strings.NewReplacer(
		PlaceholderEntity, t.Model,
		PlaceholderTable, t.Name,
		PlaceholderExtension, Extension,
	)
	return r.Replace(pattern)
}

// ValidatePattern checks that pattern names one file per table.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	if !strings.Contains(pattern, PlaceholderEntity) && !strings.Contains(pattern, PlaceholderTable) {
		return alerr.Newf(alerr.ErrInvalidPattern, "filename pattern %q must contain %s or %s",
			pattern, PlaceholderEntity, PlaceholderTable).
			WithHelp("the default pattern is " + DefaultFilenamePattern)
	}
	if strings.HasPrefix(pattern, "/") || strings.Contains(pattern, "..") {
		return alerr.Newf(alerr.ErrInvalidPattern, "filename pattern %q must stay inside the output directory", pattern)
	}
	return nil
}
