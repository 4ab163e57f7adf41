package writer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hlop3z/seqgen/internal/alerr"
)

// File permissions for generated output.
const (
	DirPerm  = 0o755
	FilePerm = 0o644
)

// Dir is a Target writing files under a root directory. Each file is written
// to a temporary file and renamed into place on Close, so a failed write
// never leaves a partial model behind.
type Dir struct {
	root string
	opts Options
}

// NewDir creates a directory target. The directory is created on first write.
func NewDir(root string, opts Options) *Dir {
	return &Dir{root: root, opts: opts}
}

// Root returns the target directory.
func (d *Dir) Root() string {
	return d.root
}

// NewWriter returns a writer committing into the directory.
func (d *Dir) NewWriter() Writer {
	return &dirWriter{dir: d, lineBuffer: lineBuffer{indent: d.opts.Indent}}
}

// Location returns the file path name is written to.
func (d *Dir) Location(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(name))
}

// resolve maps a relative name to a path inside root, rejecting escapes.
func (d *Dir) resolve(name string) (string, error) {
	full := d.Location(name)

	absRoot, err := filepath.Abs(d.root)
	if err != nil {
		return "", alerr.Wrap(alerr.ErrOutputPath, err, "failed to resolve output directory")
	}
	absFile, err := filepath.Abs(full)
	if err != nil {
		return "", alerr.Wrap(alerr.ErrOutputPath, err, "failed to resolve output file")
	}
	if !strings.HasPrefix(absFile, absRoot+string(filepath.Separator)) {
		return "", alerr.Newf(alerr.ErrOutputPath, "path escape detected: %q resolves outside output directory", name).
			WithFile(full, 0)
	}
	return full, nil
}

type dirWriter struct {
	lineBuffer
	dir  *Dir
	path string
}

func (w *dirWriter) Open(name string) error {
	path, err := w.dir.resolve(name)
	if err != nil {
		return err
	}
	if err := w.begin(name); err != nil {
		return err
	}
	w.path = path
	return nil
}

func (w *dirWriter) Close() error {
	content, err := w.end()
	if err != nil {
		return err
	}
	return writeAtomic(w.path, content)
}

// writeAtomic writes content to a temp file beside path and renames it over
// path.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return alerr.Wrap(alerr.ErrWriteFailed, err, "failed to create directory").WithFile(dir, 0)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return alerr.Wrap(alerr.ErrWriteFailed, err, "failed to create temp file").WithFile(path, 0)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return alerr.Wrap(alerr.ErrWriteFailed, err, "failed to write file").WithFile(path, 0)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return alerr.Wrap(alerr.ErrWriteFailed, err, "failed to write file").WithFile(path, 0)
	}
	if err := os.Chmod(tmpName, FilePerm); err != nil {
		os.Remove(tmpName)
		return alerr.Wrap(alerr.ErrWriteFailed, err, "failed to set file mode").WithFile(path, 0)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return alerr.Wrap(alerr.ErrWriteFailed, err, "failed to rename temp file").WithFile(path, 0)
	}
	return nil
}
