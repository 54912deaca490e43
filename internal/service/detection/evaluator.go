package detection

import (
	"context"
	"time"

	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
)

// WindowEvaluator computes, per trailing window, the distinct national
// IDs observed for a phone number. Windows are visited longest-first and
// results are produced one at a time so the caller can stop early.
type WindowEvaluator struct {
	events  EventStore
	windows []fraud.Window
}

// NewWindowEvaluator creates an evaluator over the given windows. The
// windows are sorted longest-first; evaluation order is what justifies
// the policy's short-circuit.
func NewWindowEvaluator(events EventStore, windows []fraud.Window) *WindowEvaluator {
	return &WindowEvaluator{
		events:  events,
		windows: fraud.SortWindowsDescending(windows),
	}
}

// Evaluate streams one WindowResult per window to visit, longest window
// first, stopping when visit returns false. A storage-read failure for
// one window is delivered as that window's Err and does not abort the
// remaining windows.
func (e *WindowEvaluator) Evaluate(ctx context.Context, phoneNumber string, now time.Time, visit func(WindowResult) bool) {
	for _, w := range e.windows {
		since := now.Add(-w.Duration())

		ids, err := e.events.DistinctNationalIDs(ctx, phoneNumber, since)
		res := WindowResult{Window: w, DistinctIDs: ids, Err: err}
		if err != nil {
			res.DistinctIDs = nil
		}

		if !visit(res) {
			return
		}
	}
}
