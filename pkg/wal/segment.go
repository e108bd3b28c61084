package wal

import (
	"wal-segment/internal/segment"
)

// Segment is a single write-ahead log segment: an append buffer, a
// background flusher and a reader over one fixed-size-paged file.
//
// Segment is safe to use from multiple goroutines concurrently.
type Segment = segment.Segment

// New creates a Segment backed by the file at path, identified by order.
// opener defaults to RealFileOpener when nil, which is what production
// callers want; tests inject an in-memory FileOpener instead.
var New = segment.New

// SegmentFile is the minimal file surface a segment needs: random-access
// read/write, sync, stat, truncate and a name for diagnostics. Production
// code never needs to implement this itself — RealFileOpener already
// satisfies it with *os.File. It exists so tests can swap in an in-memory
// stand-in.
type SegmentFile = segment.SegmentFile

// FileOpener opens the backing file for a segment's path.
type FileOpener = segment.FileOpener

// RealFileOpener opens path with os.OpenFile, creating it if necessary.
// This is the FileOpener New uses when none is supplied.
var RealFileOpener = segment.RealFileOpener

// CloserScheduler runs the periodic auto-close check shared by every
// segment's file handle manager. Create one per process and pass it to
// every New call.
type CloserScheduler = segment.CloserScheduler

// NewCloserScheduler creates a CloserScheduler.
var NewCloserScheduler = segment.NewCloserScheduler
