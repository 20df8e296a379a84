package rex

import (
	"fmt"
	"io"
	"os"
)

// ByteSource is a read-only provider of a document's original bytes.
// It is never mutated; all edits live in the Buffer's piece sequence, so
// the backing file is untouched until an explicit save.
type ByteSource interface {
	// Len returns the total number of source bytes.
	Len() int64

	// ReadAt fills p with bytes starting at off. It fails with
	// ErrOutOfRange when off+len(p) exceeds Len; partial reads are
	// never returned.
	ReadAt(p []byte, off int64) error

	// Identity names the source (a path or a label) for diagnostics.
	Identity() string
}

// MemSource is an in-memory ByteSource, used for new documents, tests,
// and small files.
type MemSource struct {
	label string
	data  []byte
}

// NewMemSource copies data into a MemSource, so the caller may reuse it.
func NewMemSource(label string, data []byte) *MemSource {
	owned := make([]byte, len(data))
	copy(owned, data)
	return &MemSource{label: label, data: owned}
}

func (s *MemSource) Len() int64 { return int64(len(s.data)) }

func (s *MemSource) ReadAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > int64(len(s.data)) {
		return ErrOutOfRange
	}
	copy(p, s.data[off:])
	return nil
}

func (s *MemSource) Identity() string { return s.label }

// FileSource is a lazily read, file-backed ByteSource. Bytes are fetched
// on demand with positioned reads, so opening a large file is cheap.
type FileSource struct {
	path string
	file *os.File
	size int64
}

// OpenFile opens path as a FileSource. The size is fixed at open time;
// the file is treated as immutable for the lifetime of the session.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &FileSource{path: path, file: f, size: info.Size()}, nil
}

func (s *FileSource) Len() int64 { return s.size }

func (s *FileSource) ReadAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > s.size {
		return ErrOutOfRange
	}
	if s.file == nil {
		return ErrSourceClosed
	}
	n, err := s.file.ReadAt(p, off)
	if n < len(p) {
		// The size was fixed at open, so coming up short means the file
		// was removed or truncated externally.
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.path, err)
	}
	return nil
}

func (s *FileSource) Identity() string { return s.path }

// Close releases the underlying file. Reads after Close fail with
// ErrSourceClosed.
func (s *FileSource) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
