package introspect

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/schema"
)

type mysqlIntrospector struct {
	db *sql.DB
}

func (m *mysqlIntrospector) IntrospectSchema(ctx context.Context) (*schema.Schema, error) {
	return introspectSchemaCommon(ctx, m, m)
}

func (m *mysqlIntrospector) IntrospectTable(ctx context.Context, tableName string) (*schema.Table, error) {
	return introspectTableCommon(ctx, tableName, m)
}

func (m *mysqlIntrospector) listTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := m.db.QueryContext(ctx, query)
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

func (m *mysqlIntrospector) tableComment(ctx context.Context, tableName string) (string, error) {
	var comment sql.NullString
	err := m.db.QueryRowContext(ctx, `
		SELECT table_comment FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?
	`, tableName).Scan(&comment)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", alerr.WrapSQL(err, "read table comment", tableName)
	}
	return comment.String, nil
}

func (m *mysqlIntrospector) introspectColumns(ctx context.Context, tableName string) ([]*schema.Column, error) {
	// column_type carries the full declaration, e.g. "int(10) unsigned" or
	// "decimal(10,2)", so the parameters come from one place.
	query := `
		SELECT column_name, column_type, is_nullable, column_key, extra
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := m.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, alerr.WrapSQL(err, "introspect columns", tableName)
	}
	defer rows.Close()

	var columns []*schema.Column
	for rows.Next() {
		var name, columnType, isNullable, columnKey, extra string
		if err := rows.Scan(&name, &columnType, &isNullable, &columnKey, &extra); err != nil {
			return nil, alerr.WrapSQL(err, "scan column", tableName)
		}

		col := &schema.Column{
			Name:          name,
			PrimaryKey:    columnKey == "PRI",
			AutoIncrement: strings.Contains(strings.ToLower(extra), "auto_increment"),
			NotNull:       isNullable == "NO",
		}
		if err := applyColumnType(col, columnType); err != nil {
			return nil, err.(*alerr.Error).WithTable(tableName)
		}
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (m *mysqlIntrospector) introspectIndexes(ctx context.Context, tableName string) ([]*schema.Index, error) {
	query := `
		SELECT index_name, non_unique, column_name, index_type
		FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY index_name = 'PRIMARY' DESC, index_name, seq_in_index
	`

	rows, err := m.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, alerr.WrapSQL(err, "introspect indexes", tableName)
	}
	defer rows.Close()

	b := NewIndexBuilder()
	for rows.Next() {
		var name, column, indexType string
		var nonUnique int
		if err := rows.Scan(&name, &nonUnique, &column, &indexType); err != nil {
			return nil, alerr.WrapSQL(err, "scan index", tableName)
		}
		b.Add(name, column, mysqlIndexKind(name, nonUnique, indexType))
	}

	return b.Values(), rows.Err()
}

func mysqlIndexKind(name string, nonUnique int, indexType string) schema.IndexKind {
	switch {
	case name == "PRIMARY":
		return schema.IndexPrimary
	case strings.EqualFold(indexType, "FULLTEXT"):
		return schema.IndexFulltext
	case strings.EqualFold(indexType, "SPATIAL"):
		return schema.IndexSpatial
	case nonUnique == 0:
		return schema.IndexUnique
	default:
		return schema.IndexPlain
	}
}

func (m *mysqlIntrospector) introspectForeignKeys(ctx context.Context, tableName string) ([]*schema.ForeignKey, error) {
	query := `
		SELECT
			kcu.constraint_name,
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name,
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.key_column_usage AS kcu
		JOIN information_schema.referential_constraints AS rc
			ON rc.constraint_schema = kcu.constraint_schema
			AND rc.constraint_name = kcu.constraint_name
			AND rc.table_name = kcu.table_name
		WHERE kcu.table_schema = DATABASE()
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`

	rows, err := m.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, alerr.WrapSQL(err, "introspect foreign keys", tableName)
	}
	defer rows.Close()

	acc := NewFKAccumulator()
	for rows.Next() {
		var name, column, refTable, refColumn, onDelete, onUpdate string
		if err := rows.Scan(&name, &column, &refTable, &refColumn, &onDelete, &onUpdate); err != nil {
			return nil, alerr.WrapSQL(err, "scan foreign key", tableName)
		}
		acc.Add(name, column, refTable, refColumn, onDelete, onUpdate)
	}

	return acc.Values(), rows.Err()
}

func (m *mysqlIntrospector) TableExists(ctx context.Context, tableName string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_name = ?
		)
	`, tableName).Scan(&exists)
	if err != nil {
		return false, alerr.WrapSQL(err, "check table existence", tableName)
	}
	return exists, nil
}
