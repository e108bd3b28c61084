package wal

import (
	"wal-segment/internal/segment"
)

// SegmentFileName returns the on-disk file name for the segment with the
// given ordinal.
var SegmentFileName = segment.SegmentFileName

// OrdinalFromFileName parses the ordinal out of a segment file name.
var OrdinalFromFileName = segment.OrdinalFromFileName

// GetSegments returns the ordinals of every segment file found in
// directory, sorted in ascending order.
var GetSegments = segment.GetSegments

// Compare orders two segment ordinals, for sorting a set of segments.
var Compare = segment.Compare
