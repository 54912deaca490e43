package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/voicegate/fraud-manager-backend/internal/infrastructure/cache"
	"github.com/voicegate/fraud-manager-backend/internal/infrastructure/config"
	"github.com/voicegate/fraud-manager-backend/internal/infrastructure/database"
	"github.com/voicegate/fraud-manager-backend/internal/infrastructure/repository"
	"github.com/voicegate/fraud-manager-backend/internal/service/detection"
)

// Server wires storage, the detection engine, and the HTTP surface.
type Server struct {
	config     *config.Config
	httpServer *http.Server
	logger     *slog.Logger

	db         *pgxpool.Pool
	blockCache *cache.BlockEntryCache
	runner     *detection.AsyncRunner
}

// NewServer connects all dependencies and builds the HTTP server.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	events := repository.NewObservationRepository(db)

	var blocks detection.BlockRegistry = repository.NewBlockRepository(db)
	var blockCache *cache.BlockEntryCache
	if cfg.Redis.Enabled {
		zapLogger, err := zap.NewProduction()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating cache logger: %w", err)
		}

		blockCache, err = cache.NewBlockEntryCache(ctx, blocks, cfg.Redis, zapLogger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		blocks = blockCache
	}

	runner := detection.NewAsyncRunner(ctx, logger)

	detector, err := detection.NewService(events, blocks, runner,
		cfg.Fraud.DetectionConfig(), logger, nil)
	if err != nil {
		if blockCache != nil {
			blockCache.Close()
		}
		db.Close()
		return nil, fmt.Errorf("building detection service: %w", err)
	}

	handler := NewHandler(detector, logger, cfg.Fraud.DeferEvaluation)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      NewRouter(handler, logger, cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		logger:     logger,
		db:         db,
		blockCache: blockCache,
		runner:     runner,
	}, nil
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts down gracefully:
// the listener drains, pending deferred evaluations finish, and the
// storage connections close.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening",
			"addr", s.httpServer.Addr,
			"environment", s.config.Environment,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown drains the HTTP server and releases all resources.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		shutdownErr = fmt.Errorf("http shutdown: %w", err)
	}

	// Wait for in-flight deferred evaluations before closing storage.
	s.runner.Close()

	if s.blockCache != nil {
		if err := s.blockCache.Close(); err != nil {
			s.logger.Error("closing block cache", "error", err)
		}
	}
	s.db.Close()

	s.logger.Info("server stopped")
	return shutdownErr
}
