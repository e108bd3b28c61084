// Package testutil adapts the teacher's in-memory segment file stubs
// (internal/utils/segment_writer_file_recorder.go,
// segment_reader_file_loop.go) into a single file that implements
// segment.SegmentFile entirely in memory, so property tests can exercise
// the append/flush/read pipeline without touching a real filesystem.
package testutil

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"wal-segment/internal/segment"
)

// MemoryFile is an in-memory stand-in for *os.File. It supports the same
// ReadAt/WriteAt/Truncate/Stat/Sync/Close surface the flusher and reader
// need through segment.SegmentFile.
type MemoryFile struct {
	mu   sync.Mutex
	name string
	data []byte
}

// NewMemoryFile creates an empty in-memory file with the given name (used
// only for logging/debugging, matching the teacher's stub names like
// "in-memory-recorder").
func NewMemoryFile(name string) *MemoryFile {
	return &MemoryFile{name: name}
}

var _ segment.SegmentFile = (*MemoryFile)(nil)

// Opener returns a segment.FileOpener that always hands back this same
// in-memory file, ignoring the path argument — enough for single-segment
// property tests that never reopen a different path.
func (f *MemoryFile) Opener() segment.FileOpener {
	return func(string) (segment.SegmentFile, error) {
		return f, nil
	}
}

func (f *MemoryFile) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if off < 0 {
		return 0, errors.New("testutil: negative offset")
	}
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *MemoryFile) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	end := off + int64(len(p))
	if end > int64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[off:end], p)
	return len(p), nil
}

func (f *MemoryFile) Truncate(size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if size < 0 {
		return errors.New("testutil: negative truncate size")
	}
	if size <= int64(len(f.data)) {
		f.data = f.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, f.data)
	f.data = grown
	return nil
}

func (f *MemoryFile) Sync() error {
	return nil
}

func (f *MemoryFile) Close() error {
	return nil
}

func (f *MemoryFile) Name() string {
	return f.name
}

func (f *MemoryFile) Stat() (os.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return memoryFileInfo{name: f.name, size: int64(len(f.data))}, nil
}

// Bytes returns a copy of the file's current content, for test assertions.
func (f *MemoryFile) Bytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out
}

// Overwrite replaces the file's content wholesale, for tests that corrupt
// specific bytes and then exercise the reader against the result.
func (f *MemoryFile) Overwrite(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = append(f.data[:0], data...)
}

type memoryFileInfo struct {
	name string
	size int64
}

func (i memoryFileInfo) Name() string       { return i.name }
func (i memoryFileInfo) Size() int64        { return i.size }
func (i memoryFileInfo) Mode() os.FileMode  { return 0o644 }
func (i memoryFileInfo) ModTime() time.Time { return time.Time{} }
func (i memoryFileInfo) IsDir() bool        { return false }
func (i memoryFileInfo) Sys() any           { return nil }
