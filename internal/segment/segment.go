package segment

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"wal-segment/internal/lsn"
	"wal-segment/internal/pageformat"
)

// Segment wires the append buffer, flusher, file handle manager, and
// reader together into the unit spec.md describes: one WAL segment file,
// its in-memory write buffer, its paged on-disk layout, and the concurrent
// flush pipeline that reconciles the two. This is what pkg/wal re-exports,
// mirroring the teacher's pkg/wal wrapping of internal/segment and
// internal/wal via type aliases rather than re-implementing logic at the
// public boundary.
type Segment struct {
	order uint64
	path  string
	cfg   Config
	outer Outer

	buf     *buffer
	fh      *FileHandleManager
	flusher *Flusher
	reader  *Reader

	mu          sync.Mutex
	filledUpTo  uint64
	last        lsn.LSN
	closed      bool
	flushedLSN  lsn.LSN
	haveFlushed bool
}

// New constructs a segment backed by the file at path, identified by
// order. The file is not touched until Init is called. scheduler may be
// shared across many segments, per spec.md §5. opener defaults to
// RealFileOpener when nil; tests pass one that opens an in-memory stub.
func New(path string, order uint64, cfg Config, outer Outer, scheduler *CloserScheduler, opener FileOpener) *Segment {
	if opener == nil {
		opener = RealFileOpener
	}

	buf := &buffer{}
	fh := NewFileHandleManager(path, opener, scheduler, cfg.FileTTL)

	seg := &Segment{
		order: order,
		path:  path,
		cfg:   cfg,
		outer: outer,
		buf:   buf,
		fh:    fh,
	}
	seg.flusher = NewFlusher(order, cfg, outer, buf, fh, seg.recordFlushed)
	seg.reader = NewReader(order, fh, buf, seg.flusher, seg.FilledUpTo)
	return seg
}

func (s *Segment) recordFlushed(flushed lsn.LSN) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushedLSN = flushed
	s.haveFlushed = true
}

// Init reads the segment's tail page to compute filled_up_to, or truncates
// a torn partial page left by a prior crash. Returns ErrInvalidState if
// the append buffer is non-empty, per spec.md §4.7.
func (s *Segment) Init() error {
	if s.buf.len() != 0 {
		return ErrInvalidState
	}

	if err := s.selfCheck(); err != nil {
		return err
	}

	s.fh.Lock()
	defer s.fh.Unlock()

	file, err := s.fh.GetFile()
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat-ing WAL segment file %q: %w", s.path, err)
	}
	size := uint64(info.Size()) //nolint:gosec // file sizes stay well within uint64 range
	pages := size / pageformat.PageSize

	var filledUpTo uint64
	if pages == 0 {
		filledUpTo = 0
	} else {
		page := pageformat.NewPage()
		if _, err := file.ReadAt(page, int64((pages-1)*pageformat.PageSize)); err != nil { //nolint:gosec // page offsets stay well within int64 range
			return fmt.Errorf("reading the tail page of %q: %w", s.path, err)
		}
		if pageformat.VerifyPage(page) {
			filledUpTo = (pages-1)*pageformat.PageSize + (pageformat.PageSize - uint64(pageformat.FreeSpace(page))) //nolint:gosec // FreeSpace is bounded by PageSize
		} else {
			// Conservative: treat the tail page as unusable and start the
			// next write on a fresh page.
			filledUpTo = pages*pageformat.PageSize + pageformat.RecordsOffset
		}
	}

	s.mu.Lock()
	s.filledUpTo = filledUpTo
	s.mu.Unlock()
	return nil
}

// selfCheck truncates any byte tail shorter than PageSize — a torn write
// from a prior crash — to the last whole page, before Init reads it.
func (s *Segment) selfCheck() error {
	s.fh.Lock()
	defer s.fh.Unlock()

	file, err := s.fh.GetFile()
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat-ing WAL segment file %q: %w", s.path, err)
	}

	size := info.Size()
	remainder := size % int64(pageformat.PageSize)
	if remainder == 0 {
		return nil
	}

	truncated := size - remainder
	logWarning("truncating torn tail of WAL segment file %q from %d to %d bytes", s.path, size, truncated)
	if err := file.Truncate(truncated); err != nil {
		return fmt.Errorf("truncating torn tail of %q: %w", s.path, err)
	}
	return nil
}

// StartFlush starts the background flusher.
func (s *Segment) StartFlush() {
	s.flusher.StartFlush()
}

// StopFlush stops the background flusher, optionally running a final flush
// first. Exceeding the configured shutdown timeout returns
// ErrShutdownTimeout.
func (s *Segment) StopFlush(flush bool) error {
	return s.flusher.StopFlush(flush)
}

// Close stops the flusher and closes the backing file handle. Safe to call
// more than once.
func (s *Segment) Close(flush bool) error {
	stopErr := s.StopFlush(flush)
	closeErr := s.fh.Close()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return errors.Join(stopErr, closeErr)
}

// Delete closes the segment and unlinks its backing file, retrying the
// unlink on transient failure.
func (s *Segment) Delete(flush bool) error {
	closeErr := s.Close(flush)

	var removeErr error
	for attempt := 0; attempt < 3; attempt++ {
		removeErr = os.Remove(s.path)
		if removeErr == nil || errors.Is(removeErr, os.ErrNotExist) {
			removeErr = nil
			break
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	if removeErr != nil {
		removeErr = fmt.Errorf("deleting WAL segment file %q: %w", s.path, removeErr)
	}
	return errors.Join(closeErr, removeErr)
}

// Append plans the record from the current write cursor, pushes it onto
// the append buffer, and synchronously flushes if doing so would exceed
// MaxPagesCached pages of not-yet-flushed bytes. Returns the record's
// start LSN.
func (s *Segment) Append(payload []byte) (lsn.LSN, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return lsn.LSN{}, ErrClosed
	}
	entry := s.buf.append(s.filledUpTo, payload)
	s.filledUpTo = entry.WriteTo
	recordLSN := lsn.LSN{Segment: s.order, Position: entry.WriteFrom}
	s.last = recordLSN
	filledUpTo := s.filledUpTo
	s.mu.Unlock()

	s.flusher.MarkDirty()

	var writtenPosition uint64
	if writtenLSN, ok := s.outer.WrittenLSN(); ok && writtenLSN.Segment == s.order {
		writtenPosition = writtenLSN.Position
	}
	if pagesCached(writtenPosition, filledUpTo) > s.cfg.MaxPagesCached {
		if err := s.flusher.Flush(); err != nil {
			return recordLSN, err
		}
		s.outer.IncrementCacheOverflowCount()
		CacheOverflowTotal.Inc()
	}

	return recordLSN, nil
}

// Flush synchronously flushes the append buffer. A no-op if there is
// nothing new to flush (property 9).
func (s *Segment) Flush() error {
	return s.flusher.Flush()
}

// ReadRecord reassembles the record at lsn. A nil slice with a nil error
// means no record exists at that position.
func (s *Segment) ReadRecord(target lsn.LSN) ([]byte, error) {
	return s.reader.ReadRecord(target)
}

// NextLSN returns the LSN immediately following the record at lsn, or
// false if that record is the last one in the segment.
func (s *Segment) NextLSN(target lsn.LSN) (lsn.LSN, bool, error) {
	return s.reader.NextLSN(target)
}

// Begin returns the first readable LSN, if any.
func (s *Segment) Begin() (lsn.LSN, bool) {
	return s.reader.Begin()
}

// End returns the LSN of the most recently appended record.
func (s *Segment) End() lsn.LSN {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// FilledUpTo returns the next free logical byte position in the segment.
func (s *Segment) FilledUpTo() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filledUpTo
}

// Order returns the segment's immutable ordinal.
func (s *Segment) Order() uint64 {
	return s.order
}

// Path returns the segment's backing file path.
func (s *Segment) Path() string {
	return s.path
}

// ReadFlushedLSN returns the highest LSN this segment has flushed to disk,
// if any flush has happened yet.
func (s *Segment) ReadFlushedLSN() (lsn.LSN, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushedLSN, s.haveFlushed
}
