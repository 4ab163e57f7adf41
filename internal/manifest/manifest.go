// Package manifest records what a generation run produced. The manifest is
// a YAML lock file holding the SHA-256 of every generated file and a merkle
// root over them, so drift between the lock, a fresh run and the files on
// disk can be detected quickly and narrowed down per file.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cbergoon/merkletree"
	"gopkg.in/yaml.v3"

	"github.com/hlop3z/seqgen/internal/alerr"
)

// DefaultPath is the lock file name used when none is configured.
const DefaultPath = ".seqgen.lock"

// Version is the manifest format version.
const Version = 1

// Entry is one generated file.
type Entry struct {
	File     string `yaml:"file"`
	Checksum string `yaml:"sha256"`
}

// Manifest is the parsed content of a lock file.
type Manifest struct {
	Version   int     `yaml:"version"`
	Generator string  `yaml:"generator,omitempty"`
	Root      string  `yaml:"root"`
	Files     []Entry `yaml:"files"`
}

// fileContent implements merkletree.Content for one file.
type fileContent struct {
	file     string
	checksum string
}

func (f fileContent) CalculateHash() ([]byte, error) {
	h := sha256.Sum256([]byte(f.file + ":" + f.checksum))
	return h[:], nil
}

func (f fileContent) Equals(other merkletree.Content) (bool, error) {
	o, ok := other.(fileContent)
	if !ok {
		return false, nil
	}
	return f.file == o.file && f.checksum == o.checksum, nil
}

// Compute builds a manifest for files, keyed by slash-separated name.
func Compute(files map[string]string) (*Manifest, error) {
	m := &Manifest{Version: Version}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		m.Files = append(m.Files, Entry{File: name, Checksum: Checksum(files[name])})
	}

	root, err := rootHash(m.Files)
	if err != nil {
		return nil, err
	}
	m.Root = root
	return m, nil
}

// Checksum returns the hex SHA-256 of content.
func Checksum(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

func rootHash(entries []Entry) (string, error) {
	if len(entries) == 0 {
		return Checksum("empty_manifest"), nil
	}

	contents := make([]merkletree.Content, len(entries))
	for i, e := range entries {
		contents[i] = fileContent{file: e.File, checksum: e.Checksum}
	}

	tree, err := merkletree.NewTree(contents)
	if err != nil {
		return "", alerr.Wrap(alerr.EInternalError, err, "failed to build merkle tree")
	}
	return hex.EncodeToString(tree.MerkleRoot()), nil
}

// Checksums returns the file checksums keyed by name.
func (m *Manifest) Checksums() map[string]string {
	out := make(map[string]string, len(m.Files))
	for _, e := range m.Files {
		out[e.File] = e.Checksum
	}
	return out
}

// Validate recomputes the root from the entries and fails when the lock file
// was edited by hand.
func (m *Manifest) Validate() error {
	if m.Version != Version {
		return alerr.Newf(alerr.ErrManifestRead, "unsupported manifest version %d", m.Version).
			With("expected", Version)
	}
	sorted := slices.IsSortedFunc(m.Files, func(a, b Entry) int { return strings.Compare(a.File, b.File) })
	if !sorted {
		return alerr.New(alerr.ErrManifestRead, "manifest entries are not sorted")
	}
	root, err := rootHash(m.Files)
	if err != nil {
		return err
	}
	if root != m.Root {
		return alerr.New(alerr.ErrManifestRead, "manifest root does not match its entries").
			With("root", m.Root).
			With("computed", root).
			WithHelp("regenerate the models to rewrite the lock file")
	}
	return nil
}

// Load reads and validates a lock file. It returns nil, nil when the file
// does not exist.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, alerr.Wrap(alerr.ErrManifestRead, err, "failed to read lock file").WithFile(path, 0)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, alerr.Wrap(alerr.ErrManifestRead, err, "failed to parse lock file").WithFile(path, 0)
	}
	if err := m.Validate(); err != nil {
		return nil, err.(*alerr.Error).WithFile(path, 0)
	}
	return &m, nil
}

// Save writes m to path, creating parent directories.
func Save(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return alerr.Wrap(alerr.EInternalError, err, "failed to encode lock file")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return alerr.Wrap(alerr.ErrWriteFailed, err, "failed to create lock file directory").WithFile(dir, 0)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return alerr.Wrap(alerr.ErrWriteFailed, err, "failed to write lock file").WithFile(path, 0)
	}
	return nil
}

// ReadFiles reads the named files under root. Missing files are left out of
// the result so Diff reports them as removed.
func ReadFiles(root string, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, alerr.Wrap(alerr.ErrManifestRead, err, "failed to read generated file").WithFile(name, 0)
		}
		out[name] = string(data)
	}
	return out, nil
}

// ScanDir reads every file with the given extension below root, keyed by
// slash-separated relative path. A missing root yields an empty map.
func ScanDir(root, ext string) (map[string]string, error) {
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), "."+ext) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrManifestRead, err, "failed to scan output directory").WithFile(root, 0)
	}
	return out, nil
}
