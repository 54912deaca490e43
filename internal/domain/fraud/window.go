package fraud

import (
	"sort"
	"time"

	"github.com/voicegate/fraud-manager-backend/internal/domain/errors"
)

// Window is a named trailing time interval over which distinct national
// IDs are counted.
type Window struct {
	Name string `json:"name"`
	Days int    `json:"days"`
}

// Duration returns the trailing length of the window.
func (w Window) Duration() time.Duration {
	return time.Duration(w.Days) * 24 * time.Hour
}

// DefaultWindows returns the default evaluation windows, longest first.
func DefaultWindows() []Window {
	return []Window{
		{Name: "month", Days: 30},
		{Name: "week", Days: 7},
		{Name: "day", Days: 1},
	}
}

// SortWindowsDescending orders windows longest-first. A longer trailing
// window ending at the same instant is a superset of every shorter one,
// so its distinct-ID count is never smaller; evaluating longest-first
// lets the policy short-circuit without missing a violation.
func SortWindowsDescending(windows []Window) []Window {
	sorted := make([]Window, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Days > sorted[j].Days
	})
	return sorted
}

// ValidateWindows rejects empty sets and non-positive lengths.
func ValidateWindows(windows []Window) error {
	if len(windows) == 0 {
		return errors.NewValidationError("NO_WINDOWS", "at least one evaluation window is required")
	}
	for _, w := range windows {
		if w.Days <= 0 {
			return errors.NewValidationError("INVALID_WINDOW", "window length must be positive days")
		}
		if w.Name == "" {
			return errors.NewValidationError("INVALID_WINDOW", "window name cannot be empty")
		}
	}
	return nil
}
