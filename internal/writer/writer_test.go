package writer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	miniogo "github.com/minio/minio-go/v7"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/testutil"
)

func TestIndentUnit(t *testing.T) {
	tests := []struct {
		n       int
		useTabs bool
		want    string
	}{
		{4, false, "    "},
		{2, false, "  "},
		{1, true, "\t"},
		{0, false, ""},
		{-1, true, ""},
	}
	for _, tt := range tests {
		testutil.AssertEqual(t, IndentUnit(tt.n, tt.useTabs), tt.want)
	}
}

func TestMemoryWriter(t *testing.T) {
	mem := NewMemory(Options{Indent: "  "})
	w := mem.NewWriter()

	testutil.AssertNoError(t, w.Open("user.js"))
	w.Write("module.exports = (sequelize) => {")
	w.Indent()
	w.Write("return %s.init(%s);", "User", "{}")
	w.Write("")
	w.Indent()
	w.Write("{\n    a: 1\n  }")
	w.Outdent()
	w.Outdent()
	w.Outdent()
	w.Write("}")
	testutil.AssertNoError(t, w.Close())

	got, ok := mem.File("user.js")
	if !ok {
		t.Fatal("user.js was not committed")
	}
	want := "module.exports = (sequelize) => {\n" +
		"  return User.init({});\n" +
		"\n" +
		"    {\n    a: 1\n  }\n" +
		"}\n"
	testutil.AssertEqual(t, got, want)
}

func TestWriterVerbatimPercent(t *testing.T) {
	mem := NewMemory(Options{})
	w := mem.NewWriter()
	testutil.AssertNoError(t, w.Open("a.js"))
	w.Write("100% literal")
	testutil.AssertNoError(t, w.Close())

	got, _ := mem.File("a.js")
	testutil.AssertEqual(t, got, "100% literal\n")
}

func TestWriterReuse(t *testing.T) {
	mem := NewMemory(Options{Indent: "\t"})
	w := mem.NewWriter()

	testutil.AssertNoError(t, w.Open("a.js"))
	w.Indent()
	w.Write("a")
	testutil.AssertNoError(t, w.Close())

	testutil.AssertNoError(t, w.Open("b.js"))
	w.Write("b")
	testutil.AssertNoError(t, w.Close())

	a, _ := mem.File("a.js")
	b, _ := mem.File("b.js")
	testutil.AssertEqual(t, a, "\ta\n")
	testutil.AssertEqual(t, b, "b\n")

	if names := mem.Names(); len(names) != 2 || names[0] != "a.js" || names[1] != "b.js" {
		t.Errorf("Names() = %v", names)
	}
}

func TestWriterMisuse(t *testing.T) {
	mem := NewMemory(Options{})

	t.Run("double open", func(t *testing.T) {
		w := mem.NewWriter()
		testutil.AssertNoError(t, w.Open("a.js"))
		testutil.AssertError(t, w.Open("b.js"), alerr.ErrWriteFailed)
	})

	t.Run("empty name", func(t *testing.T) {
		testutil.AssertError(t, mem.NewWriter().Open(""), alerr.ErrWriteFailed)
	})

	t.Run("close without open", func(t *testing.T) {
		testutil.AssertError(t, mem.NewWriter().Close(), alerr.ErrWriteFailed)
	})

	t.Run("write without open", func(t *testing.T) {
		w := mem.NewWriter()
		w.Write("orphan")
		testutil.AssertNoError(t, w.Open("late.js"))
		testutil.AssertNoError(t, w.Close())
	})
}

func TestMemoryConcurrentWriters(t *testing.T) {
	mem := NewMemory(Options{})
	names := []string{"a.js", "b.js", "c.js", "d.js", "e.js", "f.js"}

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := mem.NewWriter()
			if err := w.Open(name); err != nil {
				t.Error(err)
				return
			}
			w.Write(name)
			if err := w.Close(); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	files := mem.Files()
	if len(files) != len(names) {
		t.Fatalf("got %d files, want %d", len(files), len(names))
	}
	for _, name := range names {
		testutil.AssertEqual(t, files[name], name+"\n")
	}
}

func TestDirWriter(t *testing.T) {
	root := filepath.Join(t.TempDir(), "models")
	dir := NewDir(root, Options{Indent: "    "})
	w := dir.NewWriter()

	testutil.AssertNoError(t, w.Open("nested/user.js"))
	w.Write("class User extends Model {")
	w.Write("}")
	testutil.AssertNoError(t, w.Close())

	path := filepath.Join(root, "nested", "user.js")
	testutil.AssertEqual(t, testutil.ReadFile(t, path), "class User extends Model {\n}\n")
	testutil.AssertEqual(t, dir.Location("nested/user.js"), path)

	info, err := os.Stat(path)
	testutil.AssertNoError(t, err)
	if perm := info.Mode().Perm(); perm != FilePerm {
		t.Errorf("file mode = %o, want %o", perm, FilePerm)
	}

	entries, err := os.ReadDir(filepath.Join(root, "nested"))
	testutil.AssertNoError(t, err)
	if len(entries) != 1 {
		t.Errorf("expected only user.js, found %d entries (temp file left behind?)", len(entries))
	}
}

func TestDirWriterOverwrites(t *testing.T) {
	root := t.TempDir()
	dir := NewDir(root, Options{})
	testutil.WriteFile(t, filepath.Join(root, "user.js"), "stale\n")

	w := dir.NewWriter()
	testutil.AssertNoError(t, w.Open("user.js"))
	w.Write("fresh")
	testutil.AssertNoError(t, w.Close())

	testutil.AssertEqual(t, testutil.ReadFile(t, filepath.Join(root, "user.js")), "fresh\n")
}

func TestDirWriterPathEscape(t *testing.T) {
	dir := NewDir(t.TempDir(), Options{})

	for _, name := range []string{"../outside.js", "a/../../outside.js", "."} {
		t.Run(name, func(t *testing.T) {
			testutil.AssertError(t, dir.NewWriter().Open(name), alerr.ErrOutputPath)
		})
	}
}

type fakePutter struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	err     error
}

func (f *fakePutter) PutObject(_ context.Context, bucket, objectName string, reader io.Reader, size int64, opts miniogo.PutObjectOptions) (miniogo.UploadInfo, error) {
	if f.err != nil {
		return miniogo.UploadInfo{}, f.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return miniogo.UploadInfo{}, err
	}
	if int64(len(data)) != size {
		return miniogo.UploadInfo{}, errors.New("size mismatch")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string]string)
		f.types = make(map[string]string)
	}
	key := bucket + "/" + objectName
	f.objects[key] = string(data)
	f.types[key] = opts.ContentType
	return miniogo.UploadInfo{Bucket: bucket, Key: objectName, Size: size}, nil
}

func TestObjectStoreWriter(t *testing.T) {
	putter := &fakePutter{}
	store := NewObjectStore(context.Background(), putter, "models", "gen/v1", Options{Indent: "  "})

	w := store.NewWriter()
	testutil.AssertNoError(t, w.Open("user.js"))
	w.Write("a")
	w.Indent()
	w.Write("b")
	testutil.AssertNoError(t, w.Close())

	testutil.AssertEqual(t, putter.objects["models/gen/v1/user.js"], "a\n  b\n")
	testutil.AssertEqual(t, putter.types["models/gen/v1/user.js"], "application/javascript")
	testutil.AssertEqual(t, store.Location("user.js"), "s3://models/gen/v1/user.js")
}

func TestObjectStoreNoPrefix(t *testing.T) {
	store := NewObjectStore(context.Background(), &fakePutter{}, "b", "", Options{})
	testutil.AssertEqual(t, store.Location("user.js"), "s3://b/user.js")
}

func TestObjectStoreUploadError(t *testing.T) {
	putter := &fakePutter{err: errors.New("access denied")}
	store := NewObjectStore(context.Background(), putter, "models", "", Options{})

	w := store.NewWriter()
	testutil.AssertNoError(t, w.Open("user.js"))
	w.Write("x")
	err := w.Close()
	testutil.AssertError(t, err, alerr.ErrObjectStore)
	testutil.AssertErrorContains(t, err, "access denied")
}

func TestObjectStoreConfigEnabled(t *testing.T) {
	if (ObjectStoreConfig{}).Enabled() {
		t.Error("empty config should be disabled")
	}
	if !(ObjectStoreConfig{Endpoint: "localhost:9000", Bucket: "models"}).Enabled() {
		t.Error("endpoint+bucket should be enabled")
	}
}

func TestNewMinioClient(t *testing.T) {
	client, err := NewMinioClient(ObjectStoreConfig{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s"})
	testutil.AssertNoError(t, err)
	if client == nil {
		t.Fatal("client is nil")
	}

	_, err = NewMinioClient(ObjectStoreConfig{Endpoint: "http://bad endpoint/"})
	testutil.AssertError(t, err, alerr.ErrObjectStore)
}
