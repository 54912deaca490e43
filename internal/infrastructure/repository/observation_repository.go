package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voicegate/fraud-manager-backend/internal/domain/errors"
	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
)

// ObservationRepository implements detection.EventStore using PostgreSQL.
// Observations are append-only; windowed distinct counts are computed in
// SQL so history never needs to be loaded into the process.
type ObservationRepository struct {
	db *pgxpool.Pool
}

// NewObservationRepository creates a PostgreSQL observation repository.
func NewObservationRepository(db *pgxpool.Pool) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// RecordObservation appends one query observation.
func (r *ObservationRepository) RecordObservation(ctx context.Context, obs *fraud.Observation) error {
	query := `
		INSERT INTO queries (id, phone_number, national_id, query_timestamp)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query,
		obs.ID,
		obs.PhoneNumber,
		obs.NationalID,
		obs.ObservedAt,
	)
	if err != nil {
		return errors.NewInternalError("failed to record observation").WithCause(err)
	}

	return nil
}

// DistinctNationalIDs lists the distinct national IDs observed for a
// phone number at or after the given instant.
func (r *ObservationRepository) DistinctNationalIDs(ctx context.Context, phoneNumber string, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT national_id
		FROM queries
		WHERE phone_number = $1 AND query_timestamp >= $2
	`

	rows, err := r.db.Query(ctx, query, phoneNumber, since)
	if err != nil {
		return nil, errors.NewInternalError("failed to query observations").WithCause(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternalError("failed to scan national id").WithCause(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to iterate observations").WithCause(err)
	}

	return ids, nil
}
