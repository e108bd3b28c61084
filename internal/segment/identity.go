package segment

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
)

// segmentFileNamePattern captures the ordinal from a segment file name of
// the form "*.<N>.wal".
var segmentFileNamePattern = regexp.MustCompile(`^.*\.(\d+)\.wal$`)

// SegmentFileName returns the conventional file name for the segment with
// the given ordinal, embedding it so OrdinalFromFileName can recover it.
// Per spec.md §6's `*.<N>.wal` pattern, a name needs something before the
// ordinal's dot — a bare "<N>.wal" would not match segmentFileNamePattern.
func SegmentFileName(order uint64) string {
	return fmt.Sprintf("segment.%d.wal", order)
}

// OrdinalFromFileName extracts the ordinal from a segment file name. Returns
// an error if the name does not match the `*.<N>.wal` pattern.
func OrdinalFromFileName(name string) (uint64, error) {
	matches := segmentFileNamePattern.FindStringSubmatch(name)
	if matches == nil {
		return 0, fmt.Errorf("file name %q does not match the segment naming pattern", name)
	}
	order, err := strconv.ParseUint(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing the ordinal from file name %q: %w", name, err)
	}
	return order, nil
}

// GetSegments returns the ordinals of every segment file in directory,
// sorted in ascending order. Not a spec.md operation in its own right —
// a convenience for an outer collaborator managing a set of segments.
func GetSegments(directory string) ([]uint64, error) {
	dirEntries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("reading directory %q: %w", directory, err)
	}

	result := make([]uint64, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		order, err := OrdinalFromFileName(dirEntry.Name())
		if err != nil {
			// Files not matching the naming pattern are simply not segments.
			continue
		}
		result = append(result, order)
	}

	slices.Sort(result)
	return result, nil
}

// Compare orders two segments by ordinal, per spec.md §6's "ordering
// relation": segments compare equal iff their ordinals are equal.
func Compare(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
