package segment

import (
	"time"

	"wal-segment/internal/lsn"
)

// Outer is the capability set a segment consumes from the external
// collaborator that owns the segment set (an outer write-ahead log).
// Segment-set management, recovery, and checkpointing live on the other
// side of this interface and are out of scope here.
type Outer interface {
	// CommitDelay returns the interval at which the background flusher
	// should tick. Zero disables background flushing.
	CommitDelay() time.Duration

	// CheckFreeSpace is called after every flush as a hook for disk-space
	// housekeeping. The segment has no opinion on what it does.
	CheckFreeSpace()

	// WrittenLSN returns the highest LSN whose containing page has been
	// written to disk, if any has been published yet.
	WrittenLSN() (lsn.LSN, bool)

	// SetWrittenLSN publishes a new written LSN. Must be non-decreasing.
	SetWrittenLSN(lsn.LSN)

	// SetFlushedLSN publishes a new flushed LSN. Must be non-decreasing.
	SetFlushedLSN(lsn.LSN)

	// IncrementCacheOverflowCount is telemetry for append-triggered
	// synchronous flushes caused by exceeding MaxPagesCached.
	IncrementCacheOverflowCount()
}

// Config holds the global policy knobs a segment needs from its outer
// collaborator. There is no config-parsing package here, matching the
// teacher's functional-options-over-a-plain-struct approach — callers wire
// this up however they parse their own configuration.
type Config struct {
	// SyncOnPageFlush, when true, fsyncs the segment file after every
	// flush batch.
	SyncOnPageFlush bool

	// ShutdownTimeout bounds how long StopFlush/Close wait for the flusher
	// executor to drain. Exceeding it returns ErrShutdownTimeout.
	ShutdownTimeout time.Duration

	// MaxPagesCached bounds how many pages' worth of not-yet-flushed bytes
	// may accumulate in the append buffer before Append synchronously
	// flushes.
	MaxPagesCached int

	// FileTTL is the idle duration after which the File Handle Manager
	// auto-closes the backing file.
	FileTTL time.Duration
}

// DefaultConfig returns sensible defaults, the same role the teacher's
// WriterOption defaults play for SegmentWriter.
func DefaultConfig() Config {
	return Config{
		SyncOnPageFlush: true,
		ShutdownTimeout: 30 * time.Second,
		MaxPagesCached:  16,
		FileTTL:         5 * time.Minute,
	}
}
