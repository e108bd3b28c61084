package lsn

import "wal-segment/internal/pageformat"

// Plan computes where a record starting at the given logical write cursor
// will begin and end once serialized into pages, accounting for any
// page-header bytes consumed by crossing page boundaries.
//
// starting is the segment's current logical write cursor (filled_up_to).
// payloadLen is the length of the record's raw payload, before chunk
// framing. The returned writeFrom is the record's canonical start LSN
// position; writeTo is the logical cursor position immediately after the
// record, which the next call to Plan should use as its starting value.
func Plan(starting uint64, payloadLen uint64) (writeFrom, writeTo uint64) {
	const (
		pageSize      = int64(pageformat.PageSize)
		recordsOffset = int64(pageformat.RecordsOffset)
		minRecordSize = int64(pageformat.MinRecordSize)
		maxEntrySize  = int64(pageformat.MaxEntrySize)
		chunkHeader   = int64(pageformat.ChunkHeaderSize)
	)

	st := int64(starting) //nolint:gosec // segment positions stay well within int64 range
	pl := int64(payloadLen)

	offsetInPage := st % pageSize
	if offsetInPage < recordsOffset {
		offsetInPage = recordsOffset
	}
	freePageSpace := pageSize - offsetInPage
	inPage := freePageSpace - minRecordSize
	atPageBoundary := st%pageSize == 0

	if inPage >= pl {
		// Fits in the current page.
		resultSize := pl + chunkHeader
		if atPageBoundary {
			st += recordsOffset
		}
		return uint64(st), uint64(st + resultSize) //nolint:gosec // positions stay well within uint64 range
	}

	// Spans pages.
	var length, resultSize int64
	if inPage > 0 {
		// Consume the tail of the current page with one chunk.
		length = pl - inPage
		resultSize = freePageSpace
		if atPageBoundary {
			st += recordsOffset
		}
	} else {
		// No room for even a minimal chunk; skip straight to the next page's
		// records region.
		st = st + freePageSpace + recordsOffset
		resultSize = -recordsOffset
		length = pl
	}

	recordSizeMax := maxEntrySize - minRecordSize
	resultSize += (length / recordSizeMax) * pageSize

	leftover := length % recordSizeMax
	if leftover > 0 {
		resultSize += recordsOffset + leftover + chunkHeader
	}

	return uint64(st), uint64(st + resultSize) //nolint:gosec // positions stay well within uint64 range
}
