package emit

import (
	"strings"

	"github.com/hlop3z/seqgen/internal/schema"
)

// Generator is the name written into file banners.
const Generator = "seqgen"

// Banner returns the JS doc block written at the top of each model file.
// It carries no timestamp so regenerated output stays byte-identical.
func (e *Emitter) Banner(t *schema.Table) string {
	version := e.Version
	if version == "" {
		version = "dev"
	}

	lines := []string{
		"/*",
		" * Sequelize model for table " + t.Name + ".",
		" *",
		" * Generated by " + Generator + " " + version + ".",
	}
	if e.Source != "" {
		lines = append(lines, " * Source: "+e.Source)
	}
	if t.Comment != "" {
		lines = append(lines, " *")
		for _, l := range strings.Split(t.Comment, "\n") {
			lines = append(lines, strings.TrimRight(" * "+strings.ReplaceAll(l, "*/", "* /"), " "))
		}
	}
	lines = append(lines, " * Do not edit by hand; regenerate instead.", " */")
	return strings.Join(lines, "\n")
}
