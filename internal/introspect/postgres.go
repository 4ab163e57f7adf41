package introspect

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/schema"
)

type postgresIntrospector struct {
	db *sql.DB
}

func (p *postgresIntrospector) IntrospectSchema(ctx context.Context) (*schema.Schema, error) {
	return introspectSchemaCommon(ctx, p, p)
}

func (p *postgresIntrospector) IntrospectTable(ctx context.Context, tableName string) (*schema.Table, error) {
	return introspectTableCommon(ctx, tableName, p)
}

func (p *postgresIntrospector) listTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT tablename FROM pg_tables
		WHERE schemaname = current_schema()
		ORDER BY tablename
	`

	rows, err := p.db.QueryContext(ctx, query)
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

func (p *postgresIntrospector) tableComment(ctx context.Context, tableName string) (string, error) {
	var comment sql.NullString
	err := p.db.QueryRowContext(ctx, `
		SELECT obj_description(c.oid, 'pg_class')
		FROM pg_class c
		WHERE c.relname = $1
			AND c.relnamespace = (SELECT oid FROM pg_namespace WHERE nspname = current_schema())
	`, tableName).Scan(&comment)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", alerr.WrapSQL(err, "read table comment", tableName)
	}
	return comment.String, nil
}

func (p *postgresIntrospector) introspectColumns(ctx context.Context, tableName string) ([]*schema.Column, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.column_default,
			c.is_identity,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			COALESCE(pk.is_pk, FALSE) as is_primary_key
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT kcu.column_name, TRUE as is_pk
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.table_name = $1
				AND tc.constraint_type = 'PRIMARY KEY'
				AND tc.table_schema = current_schema()
		) pk ON c.column_name = pk.column_name
		WHERE c.table_schema = current_schema()
			AND c.table_name = $1
		ORDER BY c.ordinal_position
	`

	rows, err := p.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, alerr.WrapSQL(err, "introspect columns", tableName)
	}
	defer rows.Close()

	var columns []*schema.Column
	for rows.Next() {
		var name, dataType, udtName, isNullable, isIdentity string
		var def sql.NullString
		var maxLen, precision, scale sql.NullInt64
		var isPK bool

		err := rows.Scan(&name, &dataType, &udtName, &isNullable, &def, &isIdentity,
			&maxLen, &precision, &scale, &isPK)
		if err != nil {
			return nil, alerr.WrapSQL(err, "scan column", tableName)
		}

		col := &schema.Column{
			Name:          name,
			PrimaryKey:    isPK,
			AutoIncrement: isIdentity == "YES" || strings.HasPrefix(def.String, "nextval("),
			NotNull:       isNullable == "NO" || isPK,
		}

		if err := applyColumnType(col, postgresTypeName(dataType, udtName)); err != nil {
			return nil, err.(*alerr.Error).WithTable(tableName)
		}
		if col.Datatype.IsDecimal() {
			// Unconstrained numeric reports no precision.
			col.Precision = int(precision.Int64)
			col.Scale = int(scale.Int64)
		} else if maxLen.Valid {
			col.Length = int(maxLen.Int64)
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// postgresTypeName picks the type name to parse. Arrays and user-defined
// types report a generic data_type; their udt_name is more useful.
func postgresTypeName(dataType, udtName string) string {
	switch dataType {
	case "USER-DEFINED":
		return udtName
	case "ARRAY":
		return strings.TrimPrefix(udtName, "_") + "_array"
	}
	return dataType
}

func (p *postgresIntrospector) introspectIndexes(ctx context.Context, tableName string) ([]*schema.Index, error) {
	query := `
		SELECT
			i.relname as index_name,
			ix.indisprimary as is_primary,
			ix.indisunique as is_unique,
			array_to_string(array_agg(a.attname ORDER BY x.n), ',') as columns
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS x(attnum, n) ON TRUE
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = x.attnum
		WHERE t.relname = $1
			AND t.relnamespace = (SELECT oid FROM pg_namespace WHERE nspname = current_schema())
		GROUP BY i.relname, ix.indisprimary, ix.indisunique
		ORDER BY ix.indisprimary DESC, i.relname
	`

	rows, err := p.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, alerr.WrapSQL(err, "introspect indexes", tableName)
	}
	defer rows.Close()

	var indexes []*schema.Index
	for rows.Next() {
		var name, columnsStr string
		var primary, unique bool

		if err := rows.Scan(&name, &primary, &unique, &columnsStr); err != nil {
			return nil, alerr.WrapSQL(err, "scan index", tableName)
		}

		kind := schema.IndexPlain
		switch {
		case primary:
			kind = schema.IndexPrimary
		case unique:
			kind = schema.IndexUnique
		}
		indexes = append(indexes, &schema.Index{
			Name:    name,
			Columns: splitColumns(columnsStr),
			Kind:    kind,
		})
	}

	return indexes, rows.Err()
}

func (p *postgresIntrospector) introspectForeignKeys(ctx context.Context, tableName string) ([]*schema.ForeignKey, error) {
	query := `
		SELECT
			tc.constraint_name,
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name,
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints AS rc
			ON rc.constraint_name = tc.constraint_name
			AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_name = $1
			AND tc.table_schema = current_schema()
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`

	rows, err := p.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, alerr.WrapSQL(err, "introspect foreign keys", tableName)
	}
	defer rows.Close()

	acc := NewFKAccumulator()
	for rows.Next() {
		var name, column, refTable, refColumn, onDelete, onUpdate string

		err := rows.Scan(&name, &column, &refTable, &refColumn, &onDelete, &onUpdate)
		if err != nil {
			return nil, alerr.WrapSQL(err, "scan foreign key", tableName)
		}

		acc.Add(name, column, refTable, refColumn, onDelete, onUpdate)
	}

	return acc.Values(), rows.Err()
}

func (p *postgresIntrospector) TableExists(ctx context.Context, tableName string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_tables
			WHERE schemaname = current_schema() AND tablename = $1
		)
	`, tableName).Scan(&exists)

	if err != nil {
		return false, alerr.WrapSQL(err, "check table existence", tableName)
	}
	return exists, nil
}
