package ingest

import "time"

// MinInterval is the minimum gap between two ingestion cycles.
const MinInterval = time.Hour

// ShouldRun reports whether a cycle may proceed. Forced runs always proceed,
// as does the first run (no prior observation). Otherwise at least
// MinInterval must have elapsed since the last observation; a timestamp in
// the future counts as zero elapsed.
func ShouldRun(now time.Time, last *time.Time, force bool) bool {
	if force || last == nil {
		return true
	}
	elapsed := now.Sub(*last)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed >= MinInterval
}
