package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/schema"
	"github.com/hlop3z/seqgen/internal/strutil"
)

type sqliteIntrospector struct {
	db *sql.DB
}

func (s *sqliteIntrospector) IntrospectSchema(ctx context.Context) (*schema.Schema, error) {
	return introspectSchemaCommon(ctx, s, s)
}

func (s *sqliteIntrospector) IntrospectTable(ctx context.Context, tableName string) (*schema.Table, error) {
	return introspectTableCommon(ctx, tableName, s)
}

func (s *sqliteIntrospector) listTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapSQL(err, "list tables", "")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, alerr.WrapSQL(err, "scan table name", "")
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func quote(name string) string {
	return strutil.QuoteIdent(name, '"')
}

func (s *sqliteIntrospector) introspectColumns(ctx context.Context, tableName string) ([]*schema.Column, error) {
	// PRAGMA table_info returns: cid, name, type, notnull, dflt_value, pk
	query := fmt.Sprintf("PRAGMA table_info(%s)", quote(tableName))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapSQL(err, "introspect columns", tableName)
	}

	var columns []*schema.Column
	var declared []string
	pkCount := 0
	for rows.Next() {
		var cid, notNull, pk int
		var name, dataType string
		var defaultVal sql.NullString

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &pk); err != nil {
			rows.Close()
			return nil, alerr.WrapSQL(err, "scan column", tableName)
		}

		col := &schema.Column{
			Name:       name,
			PrimaryKey: pk > 0,
			NotNull:    notNull == 1 || pk > 0,
		}
		if pk > 0 {
			pkCount++
		}
		if strings.TrimSpace(dataType) == "" {
			// Columns declared without a type have BLOB affinity.
			dataType = "blob"
		}
		if err := applyColumnType(col, dataType); err != nil {
			rows.Close()
			return nil, err.(*alerr.Error).WithTable(tableName)
		}
		columns = append(columns, col)
		declared = append(declared, strings.ToUpper(strings.TrimSpace(dataType)))
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, alerr.WrapSQL(err, "iterate columns", tableName)
	}
	rows.Close()

	// A single INTEGER PRIMARY KEY column aliases the rowid and is assigned
	// automatically.
	if pkCount == 1 {
		for i, col := range columns {
			if col.PrimaryKey && declared[i] == "INTEGER" {
				col.AutoIncrement = true
			}
		}
	}

	return columns, nil
}

func (s *sqliteIntrospector) introspectIndexes(ctx context.Context, tableName string) ([]*schema.Index, error) {
	// PRAGMA index_list returns: seq, name, unique, origin, partial.
	// Rows are collected and closed before the per-index queries run, since
	// in-memory databases are limited to one connection.
	listQuery := fmt.Sprintf("PRAGMA index_list(%s)", quote(tableName))
	rows, err := s.db.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, alerr.WrapSQL(err, "introspect indexes", tableName)
	}

	type indexHead struct {
		name   string
		unique bool
		origin string
	}
	var heads []indexHead
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, alerr.WrapSQL(err, "scan index", tableName)
		}
		heads = append(heads, indexHead{name: name, unique: unique == 1, origin: origin})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, alerr.WrapSQL(err, "iterate indexes", tableName)
	}
	rows.Close()

	slices.SortFunc(heads, func(a, b indexHead) int {
		if (a.origin == "pk") != (b.origin == "pk") {
			if a.origin == "pk" {
				return -1
			}
			return 1
		}
		return strings.Compare(a.name, b.name)
	})

	var indexes []*schema.Index
	for _, h := range heads {
		columns, err := s.indexColumns(ctx, h.name)
		if err != nil {
			return nil, err
		}
		if len(columns) == 0 {
			continue
		}

		kind := schema.IndexPlain
		switch {
		case h.origin == "pk":
			kind = schema.IndexPrimary
		case h.unique:
			kind = schema.IndexUnique
		}
		indexes = append(indexes, &schema.Index{Name: h.name, Columns: columns, Kind: kind})
	}

	return indexes, nil
}

func (s *sqliteIntrospector) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	// PRAGMA index_info returns: seqno, cid, name. Expression columns have
	// a NULL name.
	query := fmt.Sprintf("PRAGMA index_info(%s)", quote(indexName))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapSQL(err, "get index info", "").With("index", indexName)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, alerr.WrapSQL(err, "scan index column", "").With("index", indexName)
		}
		if name.Valid {
			columns = append(columns, name.String)
		}
	}
	return columns, rows.Err()
}

func (s *sqliteIntrospector) introspectForeignKeys(ctx context.Context, tableName string) ([]*schema.ForeignKey, error) {
	// PRAGMA foreign_key_list returns: id, seq, table, from, to, on_update,
	// on_delete, match
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quote(tableName))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapSQL(err, "introspect foreign keys", tableName)
	}

	type fkRow struct {
		id                 int
		refTable, from     string
		to                 sql.NullString
		onUpdate, onDelete string
	}
	var fkRows []fkRow
	for rows.Next() {
		var r fkRow
		var seq int
		var match string
		if err := rows.Scan(&r.id, &seq, &r.refTable, &r.from, &r.to, &r.onUpdate, &r.onDelete, &match); err != nil {
			rows.Close()
			return nil, alerr.WrapSQL(err, "scan foreign key", tableName)
		}
		fkRows = append(fkRows, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, alerr.WrapSQL(err, "iterate foreign keys", tableName)
	}
	rows.Close()

	acc := NewFKAccumulator()
	parentKeys := make(map[string][]string)
	for _, r := range fkRows {
		// SQLite uses numeric IDs for FKs, so generate a name.
		name := fmt.Sprintf("fk_%s_%d", tableName, r.id)

		refColumn := r.to.String
		if !r.to.Valid {
			// A missing target column means the parent's primary key.
			keys, ok := parentKeys[r.refTable]
			if !ok {
				if keys, err = s.primaryKey(ctx, r.refTable); err != nil {
					return nil, err
				}
				parentKeys[r.refTable] = keys
			}
			pos := len(acc.fkColumns(name))
			if pos < len(keys) {
				refColumn = keys[pos]
			}
		}
		acc.Add(name, r.from, r.refTable, refColumn, r.onDelete, r.onUpdate)
	}

	return acc.Values(), nil
}

// primaryKey returns the primary key columns of tableName in key order.
func (s *sqliteIntrospector) primaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quote(tableName))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapSQL(err, "read primary key", tableName)
	}
	defer rows.Close()

	byPos := make(map[int]string)
	for rows.Next() {
		var cid, notNull, pk int
		var name, dataType string
		var defaultVal sql.NullString
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &pk); err != nil {
			return nil, alerr.WrapSQL(err, "scan column", tableName)
		}
		if pk > 0 {
			byPos[pk] = name
		}
	}
	keys := make([]string, 0, len(byPos))
	for i := 1; i <= len(byPos); i++ {
		keys = append(keys, byPos[i])
	}
	return keys, rows.Err()
}

func (s *sqliteIntrospector) TableExists(ctx context.Context, tableName string) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name = ?
	`, tableName).Scan(&name)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, alerr.WrapSQL(err, "check table existence", tableName)
	}
	return true, nil
}
