package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Table renders rows as an aligned table. Terminals get box-drawing
// borders; plain output uses ASCII.
type Table struct {
	tw table.Writer
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	tw := table.NewWriter()
	if EnableColors() {
		tw.SetStyle(table.StyleLight)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	row := make(table.Row, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	tw.AppendHeader(row)
	return &Table{tw: tw}
}

// AddRow appends a row. Missing trailing cells render empty.
func (t *Table) AddRow(cells ...any) {
	t.tw.AppendRow(table.Row(cells))
}

// Len returns the number of rows added.
func (t *Table) Len() int {
	return t.tw.Length()
}

// String renders the table without a trailing newline.
func (t *Table) String() string {
	return t.tw.Render()
}

// Render writes the table followed by a newline.
func (t *Table) Render(w io.Writer) {
	_, _ = fmt.Fprintln(w, t.tw.Render())
}

// FormatCount formats a count with singular/plural form.
func FormatCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// Indent indents every non-empty line of content.
func Indent(content string, spaces int) string {
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}
