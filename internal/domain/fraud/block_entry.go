package fraud

import (
	"time"

	"github.com/voicegate/fraud-manager-backend/internal/domain/errors"
)

// BlockOrigin tags who created a block entry.
type BlockOrigin string

const (
	// OriginAutomatic marks entries written by the blocking policy.
	OriginAutomatic BlockOrigin = "automatic_block"
	// OriginManual marks entries curated out of band (support agents,
	// conversational agent escalations). The engine never writes these.
	OriginManual BlockOrigin = "manual"
)

// BlockEntry is the authoritative record that a phone number is blocked.
// It is keyed uniquely by the normalized phone number; its presence alone
// answers "is this number blocked". The automatic path treats an existing
// entry as terminal: the engine never un-blocks a number, and overwriting
// an automatic entry with a fresh automatic reason is an idempotent
// re-assertion, not a state change.
type BlockEntry struct {
	PhoneNumber string      `json:"phone_number"`
	Reason      string      `json:"reason"`
	BlockedAt   time.Time   `json:"block_timestamp"`
	Origin      BlockOrigin `json:"origin"`
}

// NewAutomaticBlock creates a policy-originated block entry.
func NewAutomaticBlock(phoneNumber, reason string, blockedAt time.Time) (*BlockEntry, error) {
	if phoneNumber == "" {
		return nil, errors.NewValidationError("EMPTY_PHONE_NUMBER", "phone number cannot be empty")
	}
	if reason == "" {
		return nil, errors.NewValidationError("EMPTY_REASON", "block reason cannot be empty")
	}

	return &BlockEntry{
		PhoneNumber: phoneNumber,
		Reason:      reason,
		BlockedAt:   blockedAt.UTC(),
		Origin:      OriginAutomatic,
	}, nil
}

// IsAutomatic reports whether the entry was written by the blocking policy.
func (e *BlockEntry) IsAutomatic() bool {
	return e.Origin == OriginAutomatic
}
