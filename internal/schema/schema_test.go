package schema

import (
	"testing"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/testutil"
)

func col(name string, dt Datatype, pk bool) *Column {
	return &Column{Name: name, Datatype: dt, PrimaryKey: pk, NotNull: pk}
}

func fk(name, column, refTable string) *ForeignKey {
	return &ForeignKey{Name: name, Columns: []string{column}, RefTable: refTable, RefColumns: []string{"id"}}
}

// -----------------------------------------------------------------------------
// Finalize Tests
// -----------------------------------------------------------------------------

func TestFinalizeDerivesModelNames(t *testing.T) {
	s := New(
		&Table{Name: "users", Columns: []*Column{col("id", TypeInt, true)}},
		&Table{Name: "blog_posts", Model: "Article", Columns: []*Column{col("id", TypeInt, true)}},
	)
	testutil.AssertNoError(t, s.Finalize())

	testutil.AssertEqual(t, s.Tables[0].Model, "User")
	testutil.AssertEqual(t, s.Tables[1].Model, "Article")
}

func TestFinalizeLinksForeignKeys(t *testing.T) {
	posts := &Table{
		Name:        "posts",
		Columns:     []*Column{col("id", TypeInt, true), col("author_id", TypeInt, false)},
		ForeignKeys: []*ForeignKey{fk("fk_author", "author_id", "users")},
	}
	s := New(&Table{Name: "users", Columns: []*Column{col("id", TypeInt, true)}}, posts)
	testutil.AssertNoError(t, s.Finalize())

	author, _ := posts.Column("author_id")
	if len(author.ForeignKeys) != 1 {
		t.Fatalf("author_id foreign keys = %d, want 1", len(author.ForeignKeys))
	}
	testutil.AssertEqual(t, author.ForeignKeys[0].RefModel, "User")

	// Finalize is idempotent.
	testutil.AssertNoError(t, s.Finalize())
	testutil.AssertEqual(t, len(author.ForeignKeys), 1)
}

func TestFinalizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		tables []*Table
		code   alerr.Code
	}{
		{
			name: "duplicate table",
			tables: []*Table{
				{Name: "users", Columns: []*Column{col("id", TypeInt, true)}},
				{Name: "users", Columns: []*Column{col("id", TypeInt, true)}},
			},
			code: alerr.ErrTableDuplicate,
		},
		{
			name: "duplicate column",
			tables: []*Table{
				{Name: "users", Columns: []*Column{col("id", TypeInt, true), col("id", TypeInt, false)}},
			},
			code: alerr.ErrColumnDuplicate,
		},
		{
			name:   "no columns",
			tables: []*Table{{Name: "users"}},
			code:   alerr.ErrSchemaInvalid,
		},
		{
			name: "index on unknown column",
			tables: []*Table{{
				Name:    "users",
				Columns: []*Column{col("id", TypeInt, true)},
				Indexes: []*Index{{Name: "ix", Columns: []string{"emial"}}},
			}},
			code: alerr.ErrInvalidReference,
		},
		{
			name: "foreign key to unknown table",
			tables: []*Table{{
				Name:        "posts",
				Columns:     []*Column{col("id", TypeInt, true), col("author_id", TypeInt, false)},
				ForeignKeys: []*ForeignKey{fk("fk", "author_id", "user")},
			}},
			code: alerr.ErrInvalidReference,
		},
		{
			name: "foreign key on unknown column",
			tables: []*Table{{
				Name:        "posts",
				Columns:     []*Column{col("id", TypeInt, true)},
				ForeignKeys: []*ForeignKey{fk("fk", "parent_id", "posts")},
			}},
			code: alerr.ErrInvalidReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertError(t, New(tt.tables...).Finalize(), tt.code)
		})
	}
}

func TestFinalizeNormalizesRules(t *testing.T) {
	posts := &Table{
		Name:    "posts",
		Columns: []*Column{col("id", TypeInt, true), col("parent_id", TypeInt, false)},
		ForeignKeys: []*ForeignKey{{
			Name: "fk", Columns: []string{"parent_id"}, RefTable: "posts", RefColumns: []string{"id"},
			OnDelete: "  set   null ",
		}},
	}
	testutil.AssertNoError(t, New(posts).Finalize())
	testutil.AssertEqual(t, posts.ForeignKeys[0].OnDelete, "set null")
}

// -----------------------------------------------------------------------------
// Junction Detection Tests
// -----------------------------------------------------------------------------

func TestJunctionDetection(t *testing.T) {
	base := func() []*Table {
		return []*Table{
			{Name: "posts", Columns: []*Column{col("id", TypeInt, true)}},
			{Name: "tags", Columns: []*Column{col("id", TypeInt, true)}},
		}
	}

	tests := []struct {
		name  string
		table *Table
		want  bool
	}{
		{
			name: "pure junction",
			table: &Table{
				Name:        "post_tags",
				Columns:     []*Column{col("post_id", TypeInt, true), col("tag_id", TypeInt, true)},
				ForeignKeys: []*ForeignKey{fk("a", "post_id", "posts"), fk("b", "tag_id", "tags")},
			},
			want: true,
		},
		{
			name: "junction with surrogate key",
			table: &Table{
				Name: "post_tags",
				Columns: []*Column{
					col("id", TypeInt, true), col("post_id", TypeInt, false), col("tag_id", TypeInt, false),
				},
				ForeignKeys: []*ForeignKey{fk("a", "post_id", "posts"), fk("b", "tag_id", "tags")},
			},
			want: true,
		},
		{
			name: "junction with payload column",
			table: &Table{
				Name: "post_tags",
				Columns: []*Column{
					col("post_id", TypeInt, true), col("tag_id", TypeInt, true), col("weight", TypeInt, false),
				},
				ForeignKeys: []*ForeignKey{fk("a", "post_id", "posts"), fk("b", "tag_id", "tags")},
			},
			want: false,
		},
		{
			name: "single foreign key",
			table: &Table{
				Name:        "post_tags",
				Columns:     []*Column{col("post_id", TypeInt, true)},
				ForeignKeys: []*ForeignKey{fk("a", "post_id", "posts")},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(append(base(), tt.table)...)
			testutil.AssertNoError(t, s.Finalize())
			testutil.AssertEqual(t, tt.table.ManyToMany, tt.want)
		})
	}
}

// -----------------------------------------------------------------------------
// Lookup Tests
// -----------------------------------------------------------------------------

func TestMarkExternal(t *testing.T) {
	s := New(&Table{Name: "users", Columns: []*Column{col("id", TypeInt, true)}})
	testutil.AssertNoError(t, s.Finalize())

	testutil.AssertNoError(t, s.MarkExternal("users"))
	users, _ := s.Table("users")
	testutil.AssertEqual(t, users.External, true)

	err := s.MarkExternal("user")
	testutil.AssertError(t, err, alerr.ErrInvalidReference)
	testutil.AssertErrorContains(t, err, "did you mean 'users'?")
}

func TestParseIndexKind(t *testing.T) {
	tests := []struct {
		in   string
		want IndexKind
		ok   bool
	}{
		{"", IndexPlain, true},
		{"KEY", IndexPlain, true},
		{"Unique", IndexUnique, true},
		{"fulltext", IndexFulltext, true},
		{"spatial", IndexSpatial, true},
		{"primary", IndexPrimary, true},
		{"hash", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseIndexKind(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseIndexKind(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
