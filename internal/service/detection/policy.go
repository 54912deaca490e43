package detection

import (
	"fmt"

	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
)

// BlockingPolicy applies the distinct-ID threshold rule to window
// results. It has no side effects; committing the resulting BlockEntry
// is the orchestrator's responsibility.
//
// Windows arrive longest-first. Because a shorter trailing window is a
// subset of every longer one ending at the same instant, distinct counts
// can only shrink as windows shorten. The policy exploits that both
// ways: while windows keep triggering it narrows the verdict to the most
// specific (shortest) triggering window, and the first window that fails
// the threshold ends evaluation, since no shorter window can pass it.
type BlockingPolicy struct {
	threshold int
}

// NewBlockingPolicy creates a policy with the given distinct-ID threshold.
func NewBlockingPolicy(threshold int) *BlockingPolicy {
	return &BlockingPolicy{threshold: threshold}
}

// Apply inspects one window result and reports whether it triggers a
// block. Errored windows never trigger; the orchestrator skips them
// without ending evaluation.
//
// The currently queried national ID is not special-cased: it is
// persisted before evaluation runs, so it counts toward the threshold
// like any other observed ID.
func (p *BlockingPolicy) Apply(res WindowResult) (fraud.BlockDecision, bool) {
	if res.Err != nil {
		return fraud.BlockDecision{}, false
	}

	if res.DistinctCount() >= p.threshold {
		return fraud.BlockDecision{
			Blocked: true,
			Reason:  fmt.Sprintf("Automatic block (rule: %s period)", res.Window.Name),
			Window:  res.Window,
		}, true
	}

	return fraud.BlockDecision{}, false
}
