package segment

import "log"

// logWarning and logError follow the teacher's logging idiom verbatim
// (internal/wal/writer.go, sync_policy_periodic.go): the stdlib log
// package, a severity prefix, no structured logging library. Used only at
// the points spec.md calls out as "logged" — PartialLastPage repair and
// swallowed background flush/close errors.
func logWarning(format string, args ...any) {
	log.Printf("WARNING: "+format, args...)
}

func logError(format string, args ...any) {
	log.Printf("ERROR: "+format, args...)
}
