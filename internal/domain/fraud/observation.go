package fraud

import (
	"time"

	"github.com/google/uuid"

	"github.com/voicegate/fraud-manager-backend/internal/domain/errors"
)

// Observation is one immutable recorded fact: a national ID was claimed
// from a phone number at a point in time. Observations are append-only
// and never mutated or deleted.
type Observation struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	NationalID  string    `json:"national_id"`
	ObservedAt  time.Time `json:"query_timestamp"`
}

// NewObservation creates an observation from already-normalized identifiers.
// Both identifiers must be non-empty; normalization happens upstream so the
// store only ever sees canonical keys.
func NewObservation(phoneNumber, nationalID string, observedAt time.Time) (*Observation, error) {
	if phoneNumber == "" {
		return nil, errors.NewValidationError("EMPTY_PHONE_NUMBER", "phone number cannot be empty")
	}
	if nationalID == "" {
		return nil, errors.NewValidationError("EMPTY_NATIONAL_ID", "national ID cannot be empty")
	}

	return &Observation{
		ID:          uuid.New(),
		PhoneNumber: phoneNumber,
		NationalID:  nationalID,
		ObservedAt:  observedAt.UTC(),
	}, nil
}
