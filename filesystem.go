package rex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Filesystem abstracts the file operations the editor needs, so sessions
// can run against an in-memory implementation in tests.
type Filesystem interface {
	// OpenSource opens path as a read-only byte source.
	OpenSource(path string) (ByteSource, error)

	// CreateTemp creates a new temporary file in dir for a pending save.
	CreateTemp(dir, pattern string) (FileWriter, error)

	// Rename atomically replaces newpath with oldpath.
	Rename(oldpath, newpath string) error

	// Remove deletes a file; used to discard failed save temporaries.
	Remove(path string) error
}

// FileWriter is the sink side of a save in progress.
type FileWriter interface {
	io.Writer
	Name() string
	Sync() error
	Close() error
}

// LocalFilesystem is the Filesystem backed by the OS.
type LocalFilesystem struct{}

func (LocalFilesystem) OpenSource(path string) (ByteSource, error) {
	return OpenFile(path)
}

func (LocalFilesystem) CreateTemp(dir, pattern string) (FileWriter, error) {
	return os.CreateTemp(dir, pattern)
}

func (LocalFilesystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (LocalFilesystem) Remove(path string) error {
	return os.Remove(path)
}

// SaveTo writes the document to path by streaming into a temporary file in
// the destination directory and atomically renaming it over the target, so
// a failure at any point leaves the original file intact. On success the
// buffer's save point is updated; on failure the buffer stays dirty and
// the temporary is removed.
func SaveTo(fs Filesystem, b *Buffer, path string) error {
	w, err := fs.CreateTemp(filepath.Dir(path), ".rex-save-*")
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	tmp := w.Name()
	if _, err := b.WriteTo(w); err != nil {
		w.Close()
		fs.Remove(tmp)
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := w.Sync(); err != nil {
		w.Close()
		fs.Remove(tmp)
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		fs.Remove(tmp)
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		fs.Remove(tmp)
		return fmt.Errorf("save %s: %w", path, err)
	}
	b.MarkSaved()
	return nil
}

// MemFilesystem is an in-memory Filesystem for tests and scripted use.
// FailWritesAfter, when positive, makes writers error once that many bytes
// have been written, to exercise the failed-save path.
type MemFilesystem struct {
	Files           map[string][]byte
	FailWritesAfter int64

	tempSeq int
}

// NewMemFilesystem returns an empty in-memory filesystem.
func NewMemFilesystem() *MemFilesystem {
	return &MemFilesystem{Files: make(map[string][]byte)}
}

func (m *MemFilesystem) OpenSource(path string) (ByteSource, error) {
	data, ok := m.Files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return NewMemSource(path, data), nil
}

func (m *MemFilesystem) CreateTemp(dir, pattern string) (FileWriter, error) {
	m.tempSeq++
	seq := fmt.Sprint(m.tempSeq)
	// Like os.CreateTemp, a trailing "*" marks where the unique part goes.
	if i := strings.LastIndex(pattern, "*"); i >= 0 {
		pattern = pattern[:i] + seq + pattern[i+1:]
	} else {
		pattern += seq
	}
	name := filepath.Join(dir, pattern)
	m.Files[name] = nil
	return &memFileWriter{fs: m, name: name}, nil
}

func (m *MemFilesystem) Rename(oldpath, newpath string) error {
	data, ok := m.Files[oldpath]
	if !ok {
		return fmt.Errorf("rename %s: %w", oldpath, os.ErrNotExist)
	}
	delete(m.Files, oldpath)
	m.Files[newpath] = data
	return nil
}

func (m *MemFilesystem) Remove(path string) error {
	if _, ok := m.Files[path]; !ok {
		return fmt.Errorf("remove %s: %w", path, os.ErrNotExist)
	}
	delete(m.Files, path)
	return nil
}

// Paths returns the stored file names in sorted order.
func (m *MemFilesystem) Paths() []string {
	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

type memFileWriter struct {
	fs     *MemFilesystem
	name   string
	buf    []byte
	closed bool
}

func (w *memFileWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, os.ErrClosed
	}
	if w.fs.FailWritesAfter > 0 {
		if int64(len(w.buf))+int64(len(p)) > w.fs.FailWritesAfter {
			allowed := w.fs.FailWritesAfter - int64(len(w.buf))
			if allowed < 0 {
				allowed = 0
			}
			w.buf = append(w.buf, p[:allowed]...)
			w.fs.Files[w.name] = w.buf
			return int(allowed), fmt.Errorf("write %s: no space left", w.name)
		}
	}
	w.buf = append(w.buf, p...)
	w.fs.Files[w.name] = w.buf
	return len(p), nil
}

func (w *memFileWriter) Name() string { return w.name }

func (w *memFileWriter) Sync() error { return nil }

func (w *memFileWriter) Close() error {
	if w.closed {
		return os.ErrClosed
	}
	w.closed = true
	w.fs.Files[w.name] = w.buf
	return nil
}
