package introspect

import (
	"context"
	"strings"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/schema"
)

// tableLister lists the user tables of a database.
type tableLister interface {
	listTables(ctx context.Context) ([]string, error)
}

// tableReader reads the parts of one table.
type tableReader interface {
	introspectColumns(ctx context.Context, tableName string) ([]*schema.Column, error)
	introspectIndexes(ctx context.Context, tableName string) ([]*schema.Index, error)
	introspectForeignKeys(ctx context.Context, tableName string) ([]*schema.ForeignKey, error)
}

// tableCommenter is implemented by dialects that store table comments.
type tableCommenter interface {
	tableComment(ctx context.Context, tableName string) (string, error)
}

// introspectSchemaCommon is the shared implementation of IntrospectSchema.
func introspectSchemaCommon(ctx context.Context, lister tableLister, reader tableReader) (*schema.Schema, error) {
	names, err := lister.listTables(ctx)
	if err != nil {
		return nil, err
	}

	tables := make([]*schema.Table, 0, len(names))
	for _, name := range names {
		t, err := introspectTableCommon(ctx, name, reader)
		if err != nil {
			return nil, err
		}
		if t != nil {
			tables = append(tables, t)
		}
	}

	s := schema.New(tables...)
	if err := s.Finalize(); err != nil {
		return nil, alerr.Wrap(alerr.ErrIntrospection, err, "introspected schema is inconsistent")
	}
	return s, nil
}

// introspectTableCommon is the shared implementation of IntrospectTable.
func introspectTableCommon(ctx context.Context, tableName string, reader tableReader) (*schema.Table, error) {
	columns, err := reader.introspectColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, nil // Table doesn't exist
	}

	indexes, err := reader.introspectIndexes(ctx, tableName)
	if err != nil {
		return nil, err
	}

	foreignKeys, err := reader.introspectForeignKeys(ctx, tableName)
	if err != nil {
		return nil, err
	}

	t := &schema.Table{
		Name:        tableName,
		Columns:     columns,
		Indexes:     indexes,
		ForeignKeys: foreignKeys,
	}

	if c, ok := reader.(tableCommenter); ok {
		if t.Comment, err = c.tableComment(ctx, tableName); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// applyColumnType fills the datatype fields of col from a catalog type string.
func applyColumnType(col *schema.Column, sqlType string) error {
	ct, err := schema.ParseColumnType(sqlType)
	if err != nil {
		return alerr.Wrap(alerr.ErrIntrospection, err, "unrecognized column type").
			WithColumn(col.Name).
			With("type", sqlType)
	}
	col.Datatype = ct.Datatype
	col.Length = ct.Length
	col.Precision = ct.Precision
	col.Scale = ct.Scale
	return nil
}

// IndexBuilder merges per-column catalog rows into indexes.
type IndexBuilder struct {
	indexes map[string]*schema.Index
	order   []string
}

// NewIndexBuilder creates an empty IndexBuilder.
func NewIndexBuilder() *IndexBuilder {
	return &IndexBuilder{indexes: make(map[string]*schema.Index)}
}

// Add appends column to the named index, creating it with kind on first use.
func (b *IndexBuilder) Add(name, column string, kind schema.IndexKind) {
	if idx, ok := b.indexes[name]; ok {
		idx.Columns = append(idx.Columns, column)
		return
	}
	b.indexes[name] = &schema.Index{Name: name, Columns: []string{column}, Kind: kind}
	b.order = append(b.order, name)
}

// Values returns the indexes in insertion order.
func (b *IndexBuilder) Values() []*schema.Index {
	out := make([]*schema.Index, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.indexes[name])
	}
	return out
}

// FKAccumulator merges composite FK columns into single schema.ForeignKey
// values. Catalogs return foreign keys one row per column.
type FKAccumulator struct {
	fks   map[string]*schema.ForeignKey
	order []string
}

// NewFKAccumulator creates a new FKAccumulator.
func NewFKAccumulator() *FKAccumulator {
	return &FKAccumulator{
		fks:   make(map[string]*schema.ForeignKey),
		order: make([]string, 0),
	}
}

// Add adds or updates a foreign key entry.
// If a FK with the same name exists, it appends the column to the existing FK.
// Otherwise, it creates a new FK entry.
func (a *FKAccumulator) Add(name, column, refTable, refColumn, onDelete, onUpdate string) {
	if fk, exists := a.fks[name]; exists {
		fk.Columns = append(fk.Columns, column)
		fk.RefColumns = append(fk.RefColumns, refColumn)
		return
	}
	a.fks[name] = &schema.ForeignKey{
		Name:       name,
		Columns:    []string{column},
		RefTable:   refTable,
		RefColumns: []string{refColumn},
		OnDelete:   normalizeAction(onDelete),
		OnUpdate:   normalizeAction(onUpdate),
	}
	a.order = append(a.order, name)
}

// SetActions sets the ON DELETE and ON UPDATE actions for a named FK.
// This is useful when action rules are fetched separately from the main FK query.
func (a *FKAccumulator) SetActions(name, onDelete, onUpdate string) {
	if fk, exists := a.fks[name]; exists {
		fk.OnDelete = normalizeAction(onDelete)
		fk.OnUpdate = normalizeAction(onUpdate)
	}
}

func (a *FKAccumulator) fkColumns(name string) []string {
	if fk, ok := a.fks[name]; ok {
		return fk.Columns
	}
	return nil
}

// Values returns all accumulated foreign keys in insertion order.
func (a *FKAccumulator) Values() []*schema.ForeignKey {
	result := make([]*schema.ForeignKey, 0, len(a.fks))
	for _, name := range a.order {
		result = append(result, a.fks[name])
	}
	return result
}

// Names returns the names of all accumulated foreign keys in insertion order.
func (a *FKAccumulator) Names() []string {
	return a.order
}

// splitColumns splits a comma-separated column list from an aggregate query.
func splitColumns(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
