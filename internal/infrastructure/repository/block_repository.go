package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/voicegate/fraud-manager-backend/internal/domain/errors"
	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
)

// BlockRepository implements detection.BlockRegistry using PostgreSQL.
// The phone number is the primary key, so PutBlockEntry is an atomic
// per-number upsert and concurrent evaluations cannot produce duplicate
// entries.
type BlockRepository struct {
	db *pgxpool.Pool
}

// NewBlockRepository creates a PostgreSQL block registry.
func NewBlockRepository(db *pgxpool.Pool) *BlockRepository {
	return &BlockRepository{db: db}
}

// GetBlockEntry fetches the block entry for a phone number. Returns
// domain ErrBlockEntryNotFound when the number is not blocked.
func (r *BlockRepository) GetBlockEntry(ctx context.Context, phoneNumber string) (*fraud.BlockEntry, error) {
	query := `
		SELECT phone_number, reason, block_timestamp, origin
		FROM blocked_phone_numbers
		WHERE phone_number = $1
	`

	var entry fraud.BlockEntry
	err := r.db.QueryRow(ctx, query, phoneNumber).Scan(
		&entry.PhoneNumber,
		&entry.Reason,
		&entry.BlockedAt,
		&entry.Origin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrBlockEntryNotFound
		}
		return nil, domainErrors.NewInternalError("failed to fetch block entry").WithCause(err)
	}

	return &entry, nil
}

// PutBlockEntry inserts or refreshes a block entry.
func (r *BlockRepository) PutBlockEntry(ctx context.Context, entry *fraud.BlockEntry) error {
	query := `
		INSERT INTO blocked_phone_numbers (phone_number, reason, block_timestamp, origin)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (phone_number)
		DO UPDATE SET
			reason = EXCLUDED.reason,
			block_timestamp = EXCLUDED.block_timestamp,
			origin = EXCLUDED.origin
	`

	_, err := r.db.Exec(ctx, query,
		entry.PhoneNumber,
		entry.Reason,
		entry.BlockedAt,
		entry.Origin,
	)
	if err != nil {
		return domainErrors.NewInternalError("failed to write block entry").WithCause(err)
	}

	return nil
}
