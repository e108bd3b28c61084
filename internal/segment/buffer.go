package segment

import (
	"sync"

	"wal-segment/internal/lsn"
	"wal-segment/internal/pageformat"
)

// Entry is one not-yet-flushed record: its payload plus the half-open
// logical byte range it will occupy once serialized into pages.
type Entry struct {
	Payload   []byte
	WriteFrom uint64
	WriteTo   uint64
}

// buffer is the in-memory FIFO of append-buffer entries, bounded by a
// pages-in-cache threshold that triggers a synchronous flush. Mirrors the
// teacher's mutex-guarded-struct idiom (sync_policy_grouped.go) rather than
// a channel, since there is one producer-side critical section (Append)
// and one consumer (Drain, called only by the flusher).
type buffer struct {
	mu      sync.Mutex
	entries []Entry
}

// append plans the record from the current filled_up_to cursor, appends the
// resulting entry, and reports the new filled_up_to and the record's start
// position. The caller (Segment.Append) is responsible for deciding whether
// the threshold requires a synchronous flush, since that decision needs the
// outer collaborator's written position, which buffer does not have.
func (b *buffer) append(filledUpTo uint64, payload []byte) (entry Entry) {
	writeFrom, writeTo := lsn.Plan(filledUpTo, uint64(len(payload)))
	entry = Entry{
		Payload:   payload,
		WriteFrom: writeFrom,
		WriteTo:   writeTo,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
	return entry
}

// drain atomically swaps the buffer with an empty one and returns the
// batch that had accumulated. Called only by the flusher.
func (b *buffer) drain() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) == 0 {
		return nil
	}
	drained := b.entries
	b.entries = nil
	return drained
}

// len reports how many entries are currently buffered, used by the Reader
// to decide whether it must flush before a read can observe durable bytes.
func (b *buffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// pagesCached reports how many pages' worth of logical bytes sit between
// writtenPosition (the outer's last-published written position) and
// filledUpTo (the segment's current write cursor).
func pagesCached(writtenPosition, filledUpTo uint64) int {
	if filledUpTo <= writtenPosition {
		return 0
	}
	return int((filledUpTo - writtenPosition) / pageformat.PageSize) //nolint:gosec // bounded by realistic segment sizes
}
