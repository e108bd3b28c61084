// Package lsn provides the Log Sequence Number type and the record layout
// planner used by a WAL segment to turn a logical write position and a
// payload length into the byte range that record will occupy once
// serialized into pages.
package lsn

import "fmt"

// LSN identifies a byte position in the logical stream of one segment.
// Position is a logical offset, not a raw file offset — see the planner in
// planner.go for how logical positions map onto paged storage.
type LSN struct {
	Segment  uint64
	Position uint64
}

// Less reports whether l sorts before other. Segment is compared first, then
// Position, per spec.
func (l LSN) Less(other LSN) bool {
	if l.Segment != other.Segment {
		return l.Segment < other.Segment
	}
	return l.Position < other.Position
}

// Compare returns -1, 0 or 1 depending on whether l sorts before, equal to,
// or after other.
func (l LSN) Compare(other LSN) int {
	switch {
	case l == other:
		return 0
	case l.Less(other):
		return -1
	default:
		return 1
	}
}

// String returns a human readable representation, useful for logging and
// the CLI.
func (l LSN) String() string {
	return fmt.Sprintf("%d:%d", l.Segment, l.Position)
}
