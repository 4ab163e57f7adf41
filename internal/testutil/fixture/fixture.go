// Package fixture builds small finalized schemas shared by tests.
package fixture

import (
	"testing"

	"github.com/hlop3z/seqgen/internal/schema"
)

// UsersTable is the canonical users table: an auto-increment primary key, a
// required email with a unique index, and no foreign keys.
func UsersTable() *schema.Table {
	return &schema.Table{
		Name: "users",
		Columns: []*schema.Column{
			{Name: "id", Datatype: schema.TypeInt, PrimaryKey: true, AutoIncrement: true, NotNull: true},
			{Name: "email", Datatype: schema.TypeVarchar, Length: 255, NotNull: true},
		},
		Indexes: []*schema.Index{
			{Name: "PRIMARY", Columns: []string{"id"}, Kind: schema.IndexPrimary},
			{Name: "users_email_uq", Columns: []string{"email"}, Kind: schema.IndexUnique},
		},
	}
}

// Blog returns a finalized schema with users, posts, tags and the post_tags
// junction table. posts.author_id references users.id with CASCADE rules.
func Blog(t testing.TB) *schema.Schema {
	t.Helper()

	posts := &schema.Table{
		Name: "posts",
		Columns: []*schema.Column{
			{Name: "id", Datatype: schema.TypeBigInt, PrimaryKey: true, AutoIncrement: true, NotNull: true},
			{Name: "author_id", Datatype: schema.TypeInt, NotNull: true},
			{Name: "title", Datatype: schema.TypeVarchar, Length: 120, NotNull: true},
			{Name: "body", Datatype: schema.TypeText},
			{Name: "price", Datatype: schema.TypeDecimal, Precision: 10, Scale: 2},
		},
		Indexes: []*schema.Index{
			{Name: "posts_author_idx", Columns: []string{"author_id"}, Kind: schema.IndexPlain},
			{Name: "posts_title_ft", Columns: []string{"title"}, Kind: schema.IndexFulltext},
		},
		ForeignKeys: []*schema.ForeignKey{
			{
				Name:       "fk_posts_author",
				Columns:    []string{"author_id"},
				RefTable:   "users",
				RefColumns: []string{"id"},
				OnUpdate:   "cascade",
				OnDelete:   "cascade",
			},
		},
	}

	tags := &schema.Table{
		Name: "tags",
		Columns: []*schema.Column{
			{Name: "id", Datatype: schema.TypeInt, PrimaryKey: true, AutoIncrement: true, NotNull: true},
			{Name: "label", Datatype: schema.TypeVarchar, Length: 40, NotNull: true},
		},
	}

	postTags := &schema.Table{
		Name: "post_tags",
		Columns: []*schema.Column{
			{Name: "post_id", Datatype: schema.TypeBigInt, PrimaryKey: true, NotNull: true},
			{Name: "tag_id", Datatype: schema.TypeInt, PrimaryKey: true, NotNull: true},
		},
		ForeignKeys: []*schema.ForeignKey{
			{Name: "fk_pt_post", Columns: []string{"post_id"}, RefTable: "posts", RefColumns: []string{"id"}},
			{Name: "fk_pt_tag", Columns: []string{"tag_id"}, RefTable: "tags", RefColumns: []string{"id"}},
		},
	}

	s := schema.New(UsersTable(), posts, tags, postTags)
	if err := s.Finalize(); err != nil {
		t.Fatalf("fixture.Blog: %v", err)
	}
	return s
}

// Table returns the named table of s or fails the test.
func Table(t testing.TB, s *schema.Schema, name string) *schema.Table {
	t.Helper()

	tbl, ok := s.Table(name)
	if !ok {
		t.Fatalf("fixture: no table %q", name)
	}
	return tbl
}
