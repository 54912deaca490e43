package rest

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voicegate/fraud-manager-backend/internal/infrastructure/config"
)

// NewRouter assembles the webhook routes with the standard middleware
// chain: request ID, logging, metrics, rate limiting, recovery.
func NewRouter(handler *Handler, logger *slog.Logger, cfg config.ServerConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /phone-numbers:check/{$}", handler.handleCheckNumber)
	mux.HandleFunc("POST /queries/{$}", handler.handleQuery)
	mux.HandleFunc("GET /healthcheck", handler.handleHealthcheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	chain := []Middleware{
		requestIDMiddleware,
		loggingMiddleware(logger),
		metricsMiddleware,
		rateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize),
		recoveryMiddleware(logger),
	}

	var h http.Handler = mux
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}
