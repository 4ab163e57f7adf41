// Package schema holds the relational metadata the model generator reads:
// tables, columns, indexes and foreign keys. A Schema is filled either from a
// YAML/JSON document (Load) or from a live database (package introspect), then
// Finalize resolves references and classifies junction tables.
package schema

import (
	"slices"
	"strings"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/strutil"
)

// Schema is an ordered collection of tables.
type Schema struct {
	Tables []*Table

	byName map[string]*Table
}

// Table describes one relational table.
type Table struct {
	Name        string
	Model       string // class name; derived from Name when empty
	Comment     string
	Columns     []*Column
	Indexes     []*Index
	ForeignKeys []*ForeignKey

	// External tables are declared elsewhere and never emitted.
	External bool
	// ManyToMany marks a pure junction table. Finalize sets it when detected.
	ManyToMany bool
}

// Column describes one table column.
type Column struct {
	Name          string
	Datatype      Datatype
	Length        int
	Precision     int
	Scale         int
	PrimaryKey    bool
	AutoIncrement bool
	NotNull       bool

	// ForeignKeys lists, in declaration order, every foreign key this column
	// takes part in. Filled by Finalize.
	ForeignKeys []*ForeignKey
}

// ForeignKey is a (possibly composite) reference from local columns to
// columns of another table.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
	OnUpdate   string
	OnDelete   string

	// RefModel is the model name of RefTable. Filled by Finalize.
	RefModel string
}

// Index describes a table index.
type Index struct {
	Name    string
	Columns []string
	Kind    IndexKind
}

// IndexKind classifies an index.
type IndexKind string

const (
	IndexPlain    IndexKind = "index"
	IndexUnique   IndexKind = "unique"
	IndexPrimary  IndexKind = "primary"
	IndexFulltext IndexKind = "fulltext"
	IndexSpatial  IndexKind = "spatial"
)

// ParseIndexKind parses an index kind name. An empty string is a plain index.
func ParseIndexKind(s string) (IndexKind, bool) {
	switch k := IndexKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", "key":
		return IndexPlain, true
	case IndexPlain, IndexUnique, IndexPrimary, IndexFulltext, IndexSpatial:
		return k, true
	default:
		return "", false
	}
}

// IsIndex reports whether the index is a plain secondary index.
func (i *Index) IsIndex() bool { return i.Kind == IndexPlain || i.Kind == "" }

// IsUnique reports whether the index is a unique index.
func (i *Index) IsUnique() bool { return i.Kind == IndexUnique }

// New creates a schema from tables. Call Finalize before use.
func New(tables ...*Table) *Schema {
	return &Schema{Tables: tables}
}

// Table returns the table with the given name.
func (s *Schema) Table(name string) (*Table, bool) {
	if s.byName != nil {
		t, ok := s.byName[name]
		return t, ok
	}
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// TableNames returns table names in declaration order.
func (s *Schema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// MarkExternal flags the named tables as external.
func (s *Schema) MarkExternal(names ...string) error {
	for _, name := range names {
		t, ok := s.Table(name)
		if !ok {
			return alerr.NewUnknownTableError(name, s.TableNames()).
				WithHelp("external_tables must name tables present in the schema")
		}
		t.External = true
	}
	return nil
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames returns column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// IsJunction reports whether the table only links two other tables: it has
// exactly two foreign keys and every column is part of the primary key or of
// a foreign key.
func (t *Table) IsJunction() bool {
	if len(t.ForeignKeys) != 2 {
		return false
	}
	for _, c := range t.Columns {
		if !c.PrimaryKey && len(c.ForeignKeys) == 0 {
			return false
		}
	}
	return true
}

// Finalize validates the schema, links columns to their foreign keys,
// resolves referenced model names and flags junction tables. It is safe to
// call more than once.
func (s *Schema) Finalize() error {
	s.byName = make(map[string]*Table, len(s.Tables))
	for _, t := range s.Tables {
		if t.Name == "" {
			return alerr.New(alerr.ErrSchemaInvalid, "table name is required")
		}
		if _, dup := s.byName[t.Name]; dup {
			return alerr.Newf(alerr.ErrTableDuplicate, "table %q is declared more than once", t.Name).
				WithTable(t.Name)
		}
		s.byName[t.Name] = t
		if t.Model == "" {
			t.Model = strutil.ModelName(t.Name)
		}
	}

	for _, t := range s.Tables {
		if err := s.finalizeTable(t); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) finalizeTable(t *Table) error {
	if len(t.Columns) == 0 {
		return alerr.New(alerr.ErrSchemaInvalid, "table must have at least one column").WithTable(t.Name)
	}

	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return alerr.New(alerr.ErrSchemaInvalid, "column name is required").WithTable(t.Name)
		}
		if seen[c.Name] {
			return alerr.Newf(alerr.ErrColumnDuplicate, "column %q is declared more than once", c.Name).
				WithTable(t.Name).
				WithColumn(c.Name)
		}
		seen[c.Name] = true
		c.ForeignKeys = nil
	}

	for _, idx := range t.Indexes {
		if len(idx.Columns) == 0 {
			return alerr.New(alerr.ErrSchemaInvalid, "index must have at least one column").
				WithTable(t.Name).
				With("index", idx.Name)
		}
		for _, col := range idx.Columns {
			if !seen[col] {
				return alerr.NewUnknownColumnError(t.Name, col, t.ColumnNames()).With("index", idx.Name)
			}
		}
		if idx.Kind == "" {
			idx.Kind = IndexPlain
		}
	}

	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) == 0 {
			return alerr.New(alerr.ErrSchemaInvalid, "foreign key must have at least one column").
				WithTable(t.Name).
				With("foreign_key", fk.Name)
		}
		ref, ok := s.byName[fk.RefTable]
		if !ok {
			return alerr.NewUnknownTableError(fk.RefTable, s.TableNames()).
				WithTable(t.Name).
				With("foreign_key", fk.Name)
		}
		fk.RefModel = ref.Model
		fk.OnUpdate = normalizeRule(fk.OnUpdate)
		fk.OnDelete = normalizeRule(fk.OnDelete)

		for _, name := range fk.Columns {
			col, ok := t.Column(name)
			if !ok {
				return alerr.NewUnknownColumnError(t.Name, name, t.ColumnNames()).With("foreign_key", fk.Name)
			}
			if !slices.Contains(col.ForeignKeys, fk) {
				col.ForeignKeys = append(col.ForeignKeys, fk)
			}
		}
	}

	if t.IsJunction() {
		t.ManyToMany = true
	}
	return nil
}

// normalizeRule collapses whitespace in a referential action. Case is kept;
// the emitter upper-cases it.
func normalizeRule(rule string) string {
	return strings.Join(strings.Fields(rule), " ")
}
