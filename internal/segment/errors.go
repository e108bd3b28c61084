package segment

import "errors"

// ErrPageBroken indicates a page failed magic or CRC verification, or a
// chunk-chain invariant was violated while reassembling a record. Always
// wrapped with the offending page index via fmt.Errorf("page %d: %w", ...).
var ErrPageBroken = errors.New("page is broken")

// ErrInvalidState indicates an operation was attempted on a segment in a
// state that forbids it, such as calling Init on a segment whose append
// buffer is non-empty.
var ErrInvalidState = errors.New("segment is in an invalid state for this operation")

// ErrShutdownTimeout indicates the flusher executor did not stop within the
// configured shutdown timeout. Fatal at the segment level.
var ErrShutdownTimeout = errors.New("timed out waiting for the flusher to shut down")

// ErrClosed indicates an operation was attempted on a closed segment.
var ErrClosed = errors.New("segment is closed")

// ErrSegmentMismatch indicates an LSN referred to a different segment than
// the one it was handed to.
var ErrSegmentMismatch = errors.New("lsn does not belong to this segment")
