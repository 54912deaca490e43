package detection

import (
	"context"
	"time"

	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
)

// EventStore is the append-only record of observations, queryable by
// phone number and minimum timestamp. Implementations are expected to be
// eventually consistent for read-after-write; the engine tolerates that.
type EventStore interface {
	// RecordObservation appends one observation. Best-effort from the
	// orchestrator's point of view: a failure is logged, not fatal.
	RecordObservation(ctx context.Context, obs *fraud.Observation) error

	// DistinctNationalIDs returns the distinct national IDs observed for
	// the phone number at or after since.
	DistinctNationalIDs(ctx context.Context, phoneNumber string, since time.Time) ([]string, error)
}

// BlockRegistry is the authoritative set of blocked phone numbers.
type BlockRegistry interface {
	// GetBlockEntry returns the entry for the phone number, or
	// errors.ErrBlockEntryNotFound when the number is not blocked.
	GetBlockEntry(ctx context.Context, phoneNumber string) (*fraud.BlockEntry, error)

	// PutBlockEntry writes the entry, overwriting any existing one for
	// the same phone number. Must be atomic per key so concurrent
	// automatic re-assertions cannot corrupt the entry.
	PutBlockEntry(ctx context.Context, entry *fraud.BlockEntry) error
}

// TaskRunner submits work to run off the request path. Fire-and-forget:
// submitted tasks are never cancelled and must run to completion even
// when the triggering request has already been answered.
type TaskRunner interface {
	Submit(task func(ctx context.Context))
}

// Service is the decision engine invoked once per inbound event.
type Service interface {
	// CheckNumber answers the fast block-list check for a phone number.
	CheckNumber(ctx context.Context, rawPhoneNumber string) fraud.Decision

	// Decide runs the full pipeline synchronously: fast check, record,
	// evaluate, and commit a block entry if the policy triggers.
	Decide(ctx context.Context, rawPhoneNumber, rawNationalID string) fraud.Decision

	// DecideDeferred records the observation and answers optimistically,
	// scheduling evaluation on the task runner. A burst of simultaneous
	// calls from one number can each be judged against a snapshot missing
	// its siblings; that false-negative window is an accepted latency
	// tradeoff, bounded by how quickly the deferred task runs.
	DecideDeferred(ctx context.Context, rawPhoneNumber, rawNationalID string) fraud.Decision
}
