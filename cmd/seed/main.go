package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
	"github.com/voicegate/fraud-manager-backend/internal/infrastructure/config"
	"github.com/voicegate/fraud-manager-backend/internal/infrastructure/database"
)

// Sample data for local development and demos. Phone numbers are E.164
// Chilean mobiles; national IDs are RUT-shaped.
var (
	samplePhoneNumbers = []string{
		"+56911111111",
		"+56922222222",
		"+56933333333",
		"+56944444444",
		"+56955555555",
	}

	sampleNationalIDs = []string{
		"11111111-1",
		"22222222-2",
		"33333333-3",
		"44444444-4",
		"55555555-5",
		"66666666-6",
		"77777777-7",
	}
)

func main() {
	var (
		configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
		numQueries = flag.Int("queries", 50, "Number of sample query observations to insert")
	)
	flag.Parse()

	if err := run(*configPath, *numQueries); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, numQueries int) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return seedBlockedPhoneNumbers(gctx, db) })
	g.Go(func() error { return seedQueries(gctx, db, numQueries) })
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("database seeded", "queries", numQueries)
	return nil
}

func seedBlockedPhoneNumbers(ctx context.Context, db *pgxpool.Pool) error {
	blocks := []struct {
		phone  string
		reason string
	}{
		{samplePhoneNumbers[0], "Reported by customer for fraudulent call"},
		{samplePhoneNumbers[1], "Suspicious activity detected."},
	}

	for _, b := range blocks {
		_, err := db.Exec(ctx, `
			INSERT INTO blocked_phone_numbers (phone_number, reason, block_timestamp, origin)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (phone_number) DO NOTHING
		`, fraud.Normalize(b.phone), b.reason, time.Now().UTC(), fraud.OriginManual)
		if err != nil {
			return fmt.Errorf("seeding block entry for %s: %w", b.phone, err)
		}
	}

	slog.Info("blocked_phone_numbers seeded", "count", len(blocks))
	return nil
}

func seedQueries(ctx context.Context, db *pgxpool.Pool, numQueries int) error {
	now := time.Now().UTC()

	for i := 0; i < numQueries; i++ {
		phone := fraud.Normalize(samplePhoneNumbers[rand.Intn(len(samplePhoneNumbers))])
		nationalID := fraud.Normalize(sampleNationalIDs[rand.Intn(len(sampleNationalIDs))])
		observedAt := now.
			AddDate(0, 0, -rand.Intn(31)).
			Add(-time.Duration(rand.Intn(24)) * time.Hour)

		_, err := db.Exec(ctx, `
			INSERT INTO queries (id, phone_number, national_id, query_timestamp)
			VALUES ($1, $2, $3, $4)
		`, uuid.New(), phone, nationalID, observedAt)
		if err != nil {
			return fmt.Errorf("seeding query %d: %w", i, err)
		}
	}

	slog.Info("queries seeded", "count", numQueries)
	return nil
}
