package introspect

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hlop3z/seqgen/internal/schema"
	"github.com/hlop3z/seqgen/internal/testutil"
)

var (
	pgColumnCols = []string{"column_name", "data_type", "udt_name", "is_nullable", "column_default",
		"is_identity", "character_maximum_length", "numeric_precision", "numeric_scale", "is_primary_key"}
	pgIndexCols = []string{"index_name", "is_primary", "is_unique", "columns"}
	pgFKCols    = []string{"constraint_name", "column_name", "foreign_table_name", "foreign_column_name", "delete_rule", "update_rule"}
)

func TestPostgresIntrospectTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	in, err := New(db, DialectPostgres)
	testutil.AssertNoError(t, err)

	mock.ExpectQuery("FROM information_schema.columns").WithArgs("accounts").
		WillReturnRows(sqlmock.NewRows(pgColumnCols).
			AddRow("id", "bigint", "int8", "NO", "nextval('accounts_id_seq'::regclass)", "NO", nil, 64, 0, true).
			AddRow("handle", "character varying", "varchar", "NO", nil, "NO", 40, nil, nil, false).
			AddRow("balance", "numeric", "numeric", "YES", nil, "NO", nil, 12, 4, false).
			AddRow("status", "USER-DEFINED", "account_status", "YES", nil, "NO", nil, nil, nil, false).
			AddRow("tags", "ARRAY", "_text", "YES", nil, "NO", nil, nil, nil, false).
			AddRow("created_at", "timestamp with time zone", "timestamptz", "NO", "now()", "NO", nil, nil, nil, false))
	mock.ExpectQuery("FROM pg_index").WithArgs("accounts").
		WillReturnRows(sqlmock.NewRows(pgIndexCols).
			AddRow("accounts_pkey", true, true, "id").
			AddRow("accounts_handle_key", false, true, "handle").
			AddRow("accounts_status_created", false, false, "status,created_at"))
	mock.ExpectQuery("FROM information_schema.table_constraints").WithArgs("accounts").
		WillReturnRows(sqlmock.NewRows(pgFKCols))
	mock.ExpectQuery("obj_description").WithArgs("accounts").
		WillReturnRows(sqlmock.NewRows([]string{"obj_description"}).AddRow(nil))

	tbl, err := in.IntrospectTable(context.Background(), "accounts")
	testutil.AssertNoError(t, err)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}

	id, _ := tbl.Column("id")
	if !id.PrimaryKey || !id.AutoIncrement || !id.NotNull {
		t.Errorf("accounts.id = %+v", id)
	}
	testutil.AssertEqual(t, id.Datatype, schema.TypeBigInt)
	testutil.AssertEqual(t, id.Length, 0)

	handle, _ := tbl.Column("handle")
	testutil.AssertEqual(t, handle.Datatype, schema.TypeVarchar)
	testutil.AssertEqual(t, handle.Length, 40)

	balance, _ := tbl.Column("balance")
	testutil.AssertEqual(t, balance.Precision, 12)
	testutil.AssertEqual(t, balance.Scale, 4)

	status, _ := tbl.Column("status")
	testutil.AssertEqual(t, status.Datatype, schema.Datatype("account_status"))

	tags, _ := tbl.Column("tags")
	testutil.AssertEqual(t, tags.Datatype, schema.Datatype("text_array"))

	created, _ := tbl.Column("created_at")
	testutil.AssertEqual(t, created.Datatype, schema.TypeTimestamp)
	if created.AutoIncrement {
		t.Error("created_at is not auto-increment")
	}

	testutil.AssertEqual(t, tbl.Comment, "")
	testutil.AssertEqual(t, len(tbl.Indexes), 3)
	testutil.AssertEqual(t, tbl.Indexes[0].Kind, schema.IndexPrimary)
	testutil.AssertEqual(t, tbl.Indexes[1].Kind, schema.IndexUnique)
	testutil.AssertEqual(t, tbl.Indexes[2].Kind, schema.IndexPlain)
	testutil.AssertEqual(t, len(tbl.Indexes[2].Columns), 2)
}

func TestPostgresCompositeForeignKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	in, _ := New(db, DialectPostgres)

	mock.ExpectQuery("FROM information_schema.columns").WithArgs("lines").
		WillReturnRows(sqlmock.NewRows(pgColumnCols).
			AddRow("order_id", "integer", "int4", "NO", nil, "NO", nil, 32, 0, true).
			AddRow("order_rev", "integer", "int4", "NO", nil, "NO", nil, 32, 0, true))
	mock.ExpectQuery("FROM pg_index").WithArgs("lines").
		WillReturnRows(sqlmock.NewRows(pgIndexCols))
	mock.ExpectQuery("FROM information_schema.table_constraints").WithArgs("lines").
		WillReturnRows(sqlmock.NewRows(pgFKCols).
			AddRow("lines_order_fk", "order_id", "orders", "id", "SET NULL", "CASCADE").
			AddRow("lines_order_fk", "order_rev", "orders", "rev", "SET NULL", "CASCADE"))
	mock.ExpectQuery("obj_description").WithArgs("lines").
		WillReturnRows(sqlmock.NewRows([]string{"obj_description"}).AddRow("Order lines"))

	tbl, err := in.IntrospectTable(context.Background(), "lines")
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, tbl.Comment, "Order lines")
	if len(tbl.ForeignKeys) != 1 {
		t.Fatalf("foreign keys = %+v", tbl.ForeignKeys)
	}
	fk := tbl.ForeignKeys[0]
	testutil.AssertEqual(t, len(fk.Columns), 2)
	testutil.AssertEqual(t, fk.RefColumns[1], "rev")
	testutil.AssertEqual(t, fk.OnDelete, "SET NULL")
	testutil.AssertEqual(t, fk.OnUpdate, "CASCADE")
}

func TestPostgresTableExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	in, _ := New(db, DialectPostgres)
	mock.ExpectQuery("FROM pg_tables").WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := in.TableExists(context.Background(), "ghost")
	testutil.AssertNoError(t, err)
	if ok {
		t.Error("ghost should not exist")
	}
}

func TestPostgresTypeName(t *testing.T) {
	testutil.AssertEqual(t, postgresTypeName("integer", "int4"), "integer")
	testutil.AssertEqual(t, postgresTypeName("USER-DEFINED", "mood"), "mood")
	testutil.AssertEqual(t, postgresTypeName("ARRAY", "_int4"), "int4_array")
}
