package wal

import (
	"wal-segment/internal/lsn"
)

// LSN identifies a record by the segment that holds it and its byte
// position within that segment's records region. LSNs are ordered first
// by segment, then by position.
type LSN = lsn.LSN
