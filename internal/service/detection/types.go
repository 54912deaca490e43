package detection

import (
	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
)

// WindowResult is one window's evaluation outcome. Exactly one of
// DistinctIDs or Err is meaningful: a storage-read failure is reported
// as an errored window, never as zero distinct IDs, because silently
// treating a read error as "no fraud" would be a false negative.
type WindowResult struct {
	Window      fraud.Window
	DistinctIDs []string
	Err         error
}

// DistinctCount returns the number of distinct national IDs in the window.
func (r WindowResult) DistinctCount() int {
	return len(r.DistinctIDs)
}

// Config holds the engine's immutable tuning knobs.
type Config struct {
	// Threshold is the distinct-national-ID count that triggers an
	// automatic block within any single window.
	Threshold int

	// Windows are the trailing evaluation windows; they are sorted
	// longest-first at construction regardless of input order.
	Windows []fraud.Window
}

// DefaultConfig mirrors the production defaults: threshold 3 over
// month/week/day windows.
func DefaultConfig() Config {
	return Config{
		Threshold: 3,
		Windows:   fraud.DefaultWindows(),
	}
}
