package writer

import (
	"maps"
	"slices"
	"sync"
)

// Memory is a Target keeping committed files in memory. It backs dry runs,
// the preview server and drift checks.
type Memory struct {
	opts Options

	mu    sync.Mutex
	files map[string]string
}

// NewMemory creates an empty in-memory target.
func NewMemory(opts Options) *Memory {
	return &Memory{opts: opts, files: make(map[string]string)}
}

// NewWriter returns a writer committing into m.
func (m *Memory) NewWriter() Writer {
	return &memoryWriter{mem: m, lineBuffer: lineBuffer{indent: m.opts.Indent}}
}

// Location returns name unchanged.
func (m *Memory) Location(name string) string {
	return name
}

// File returns the committed content of name.
func (m *Memory) File(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[name]
	return content, ok
}

// Names returns committed file names, sorted.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.files))
}

// Files returns a copy of every committed file keyed by name.
func (m *Memory) Files() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.files)
}

func (m *Memory) put(name, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = content
}

type memoryWriter struct {
	lineBuffer
	mem *Memory
}

func (w *memoryWriter) Open(name string) error {
	return w.begin(name)
}

func (w *memoryWriter) Close() error {
	content, err := w.end()
	if err != nil {
		return err
	}
	w.mem.put(w.name, string(content))
	return nil
}
