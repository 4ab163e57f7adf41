package emit

import (
	"errors"
	"strings"
	"testing"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/jsval"
	"github.com/hlop3z/seqgen/internal/model"
	"github.com/hlop3z/seqgen/internal/schema"
	"github.com/hlop3z/seqgen/internal/testutil"
	"github.com/hlop3z/seqgen/internal/testutil/fixture"
	"github.com/hlop3z/seqgen/internal/verify"
	"github.com/hlop3z/seqgen/internal/writer"
)

const usersModel = `const { DataTypes, Model } = require('sequelize');

class User extends Model {
}

module.exports = (sequelize) => {
    return User.init({
        id: {
            type: DataTypes.INTEGER,
            primaryKey: true,
            autoIncrement: true
        },
        email: {
            type: DataTypes.STRING(255),
            allowNull: false
        }
    }, {
        sequelize: sequelize,
        modelName: 'User',
        tableName: 'users',
        indexes: [
            {
                name: 'users_email_uq',
                fields: ['email'],
                unique: true
            }
        ],
        timestamps: false,
        underscored: true,
        syncOnAssociation: false
    });
}
`

func newEmitter(t *testing.T) *Emitter {
	return &Emitter{
		Builder: model.NewBuilder(testutil.NewTestLogger(t)),
		Indent:  "    ",
		SkipM2M: true,
		Logger:  testutil.NewTestLogger(t),
	}
}

func emitToMemory(t *testing.T, e *Emitter, tbl *schema.Table) (*writer.Memory, Result) {
	t.Helper()
	mem := writer.NewMemory(writer.Options{Indent: e.Indent})
	res, err := e.Emit(tbl, mem.NewWriter())
	testutil.AssertNoError(t, err)
	return mem, res
}

// -----------------------------------------------------------------------------
// Body
// -----------------------------------------------------------------------------

func TestEmitUsers(t *testing.T) {
	s := fixture.Blog(t)
	mem, res := emitToMemory(t, newEmitter(t), fixture.Table(t, s, "users"))

	testutil.AssertEqual(t, res, ResultOK)
	got, ok := mem.File("User.js")
	if !ok {
		t.Fatalf("User.js not written, files: %v", mem.Names())
	}
	testutil.AssertEqual(t, got, usersModel)
}

func TestEmitTabs(t *testing.T) {
	s := fixture.Blog(t)
	e := newEmitter(t)
	e.Indent = "\t"
	mem, _ := emitToMemory(t, e, fixture.Table(t, s, "users"))

	got, _ := mem.File("User.js")
	if !strings.Contains(got, "\n\treturn User.init({\n\t\tid: {\n\t\t\ttype: DataTypes.INTEGER,") {
		t.Errorf("unexpected tab layout:\n%s", got)
	}
}

func TestEmitBanner(t *testing.T) {
	s := fixture.Blog(t)
	e := newEmitter(t)
	e.AddComment = true
	e.Version = "1.2.3"
	e.Source = "schema.yaml"
	mem, _ := emitToMemory(t, e, fixture.Table(t, s, "users"))

	got, _ := mem.File("User.js")
	wantHead := "/*\n" +
		" * Sequelize model for table users.\n" +
		" *\n" +
		" * Generated by seqgen 1.2.3.\n" +
		" * Source: schema.yaml\n" +
		" * Do not edit by hand; regenerate instead.\n" +
		" */\n" +
		"\n" +
		"const { DataTypes, Model } = require('sequelize');\n"
	if !strings.HasPrefix(got, wantHead) {
		t.Errorf("banner mismatch:\n%s", got)
	}
	testutil.AssertEqual(t, strings.TrimPrefix(got, wantHead[:len(wantHead)-len("const { DataTypes, Model } = require('sequelize');\n")]), usersModel)
}

func TestBannerTableComment(t *testing.T) {
	e := &Emitter{}
	got := e.Banner(&schema.Table{Name: "users", Comment: "Registered users.\nEnds with */ here"})

	if !strings.Contains(got, " * Generated by seqgen dev.") {
		t.Errorf("default version missing:\n%s", got)
	}
	if !strings.Contains(got, " * Registered users.\n * Ends with * / here") {
		t.Errorf("comment not embedded safely:\n%s", got)
	}
	if strings.Count(got, "*/") != 1 {
		t.Errorf("banner must close exactly once:\n%s", got)
	}
}

func TestEmitOmitsEmptyIndexes(t *testing.T) {
	s := fixture.Blog(t)
	mem, _ := emitToMemory(t, newEmitter(t), fixture.Table(t, s, "tags"))

	got, _ := mem.File("Tag.js")
	if strings.Contains(got, "indexes") {
		t.Errorf("tags has no plain or unique index, got:\n%s", got)
	}
}

func TestEmitPosts(t *testing.T) {
	s := fixture.Blog(t)
	mem, _ := emitToMemory(t, newEmitter(t), fixture.Table(t, s, "posts"))

	got, _ := mem.File("Post.js")
	for _, want := range []string{
		"type: DataTypes.DECIMAL(10, 2)",
		"references: {\n                model: 'User',\n                key: 'id'\n            },",
		"onUpdate: 'CASCADE',",
		"onDelete: 'CASCADE'",
		"name: 'posts_author_idx',\n                fields: ['author_id']\n            }",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "posts_title_ft") {
		t.Error("fulltext index must be skipped")
	}
}

func TestEmitCommonProps(t *testing.T) {
	s := fixture.Blog(t)
	e := newEmitter(t)
	e.Common = jsval.NewMap().
		Set("timestamps", jsval.Bool(true)).
		Set("tableName", jsval.Str("ignored")).
		Set("paranoid", jsval.Bool(true))
	mem, _ := emitToMemory(t, e, fixture.Table(t, s, "tags"))

	got, _ := mem.File("Tag.js")
	for _, want := range []string{"tableName: 'tags',", "timestamps: true,", "paranoid: true\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

// -----------------------------------------------------------------------------
// Decision table
// -----------------------------------------------------------------------------

// spyWriter records calls and can be told to fail.
type spyWriter struct {
	opened   []string
	closes   int
	openErr  error
	closeErr error
	lines    []string
}

func (w *spyWriter) Open(name string) error {
	w.opened = append(w.opened, name)
	return w.openErr
}

func (w *spyWriter) Write(line string, args ...any) { w.lines = append(w.lines, line) }
func (w *spyWriter) Indent()                        {}
func (w *spyWriter) Outdent()                       {}

func (w *spyWriter) Close() error {
	w.closes++
	return w.closeErr
}

func TestEmitExternalNeverOpens(t *testing.T) {
	tbl := fixture.UsersTable()
	tbl.Model = "User"
	tbl.External = true

	w := &spyWriter{}
	res, err := newEmitter(t).Emit(tbl, w)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, res, ResultExternal)
	if len(w.opened) != 0 || w.closes != 0 || len(w.lines) != 0 {
		t.Errorf("writer touched: %+v", w)
	}
}

func TestEmitManyToMany(t *testing.T) {
	s := fixture.Blog(t)
	junction := fixture.Table(t, s, "post_tags")

	w := &spyWriter{}
	res, err := newEmitter(t).Emit(junction, w)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, res, ResultSkippedM2M)
	if len(w.opened) != 0 {
		t.Errorf("junction table opened %v", w.opened)
	}

	e := newEmitter(t)
	e.SkipM2M = false
	mem, res := emitToMemory(t, e, junction)
	testutil.AssertEqual(t, res, ResultOK)
	if _, ok := mem.File("PostTag.js"); !ok {
		t.Errorf("PostTag.js not written, files: %v", mem.Names())
	}
}

func TestEmitWriteFailures(t *testing.T) {
	tbl := fixture.Table(t, fixture.Blog(t), "users")

	t.Run("open", func(t *testing.T) {
		w := &spyWriter{openErr: errors.New("disk full")}
		res, err := newEmitter(t).Emit(tbl, w)
		testutil.AssertEqual(t, res, ResultFailed)
		testutil.AssertError(t, err, alerr.ErrWriteFailed)
		testutil.AssertErrorContains(t, err, "disk full")
		testutil.AssertEqual(t, w.closes, 0)
	})

	t.Run("close", func(t *testing.T) {
		w := &spyWriter{closeErr: errors.New("rename failed")}
		res, err := newEmitter(t).Emit(tbl, w)
		testutil.AssertEqual(t, res, ResultFailed)
		testutil.AssertError(t, err, alerr.ErrWriteFailed)
		testutil.AssertEqual(t, w.closes, 1)
		if ctx := err.(*alerr.Error).GetContext(); ctx["table"] != "users" || ctx["file"] != "User.js" {
			t.Errorf("context = %v", ctx)
		}
	})
}

func TestResultString(t *testing.T) {
	testutil.AssertEqual(t, ResultOK.String(), "ok")
	testutil.AssertEqual(t, ResultExternal.String(), "external")
	testutil.AssertEqual(t, ResultSkippedM2M.String(), "skipped-m2m")
	testutil.AssertEqual(t, ResultFailed.String(), "failed")
	testutil.AssertEqual(t, Result(42).String(), "unknown")
}

// -----------------------------------------------------------------------------
// File names
// -----------------------------------------------------------------------------

func TestFileName(t *testing.T) {
	tbl := &schema.Table{Name: "blog_posts", Model: "BlogPost"}

	tests := []struct {
		pattern string
		want    string
	}{
		{"", "BlogPost.js"},
		{"%table%.%extension%", "blog_posts.js"},
		{"models/%entity%.model.%extension%", "models/BlogPost.model.js"},
		{"%table%_%entity%", "blog_posts_BlogPost"},
	}
	for _, tt := range tests {
		e := &Emitter{FilenamePattern: tt.pattern}
		testutil.AssertEqual(t, e.FileName(tbl), tt.want)
	}
}

func TestValidatePattern(t *testing.T) {
	for _, ok := range []string{"", DefaultFilenamePattern, "%table%.js", "sub/%entity%.%extension%"} {
		testutil.AssertNoError(t, ValidatePattern(ok))
	}
	for _, bad := range []string{"model.js", "../%entity%.js", "/abs/%table%.js"} {
		testutil.AssertError(t, ValidatePattern(bad), alerr.ErrInvalidPattern)
	}
}

// -----------------------------------------------------------------------------
// Round trip
// -----------------------------------------------------------------------------

// Evaluating an emitted module yields the built trees with nulls dropped.
func TestEmitRoundTrip(t *testing.T) {
	s := fixture.Blog(t)
	e := newEmitter(t)
	e.SkipM2M = false
	e.AddComment = true
	b := model.NewBuilder(testutil.NewTestLogger(t))
	flat := jsval.Options{}

	for _, tbl := range s.Tables {
		t.Run(tbl.Name, func(t *testing.T) {
			mem, _ := emitToMemory(t, e, tbl)
			name := e.FileName(tbl)
			src, _ := mem.File(name)

			def, err := verify.Check(name, src)
			testutil.AssertNoError(t, err)

			testutil.AssertEqual(t, def.Class, tbl.Model)
			testutil.AssertEqual(t, def.ModelName(), tbl.Model)
			testutil.AssertEqual(t,
				jsval.Serialize(def.Fields, flat),
				jsval.Serialize(b.BuildFields(tbl), flat))
			testutil.AssertEqual(t,
				jsval.Serialize(def.Options, flat),
				jsval.Serialize(b.BuildOptions(tbl, nil), flat))
		})
	}
}
