package wal

import (
	"wal-segment/internal/segment"
)

// ErrPageBroken is returned, wrapped with the offending page index, when a
// page's CRC or magic number does not verify.
var ErrPageBroken = segment.ErrPageBroken

// ErrInvalidState is returned when an operation is attempted on a segment
// in a state that does not support it.
var ErrInvalidState = segment.ErrInvalidState

// ErrShutdownTimeout is returned by Close/StopFlush when the flusher does
// not shut down within Config.ShutdownTimeout.
var ErrShutdownTimeout = segment.ErrShutdownTimeout

// ErrClosed is returned by operations attempted on a closed segment.
var ErrClosed = segment.ErrClosed

// ErrSegmentMismatch is returned when an LSN naming a different segment
// ordinal is passed to a segment's read operations.
var ErrSegmentMismatch = segment.ErrSegmentMismatch
