package wal

import (
	"wal-segment/internal/segment"
)

// Config controls a segment's flush, fsync and file-handle-lifetime
// behavior.
type Config = segment.Config

// DefaultConfig returns a Config for callers with no specific
// requirements. New does not apply it on its own: it uses whatever Config
// it is given.
var DefaultConfig = segment.DefaultConfig

// Outer is the external collaborator a segment reports its written and
// flushed LSNs to, and consults for commit-delay and free-space policy.
// An outer WAL implementation spanning multiple segments is expected to
// implement this; a single-segment caller can implement it trivially.
type Outer = segment.Outer
