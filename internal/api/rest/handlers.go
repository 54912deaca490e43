package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
	"github.com/voicegate/fraud-manager-backend/internal/service/detection"
)

// Handler serves the Dialogflow CX webhook endpoints.
type Handler struct {
	detector detection.Service
	validate *validator.Validate
	logger   *slog.Logger
	tracer   trace.Tracer

	// deferEvaluation selects the deployment shape for /queries/: when
	// set, window evaluation runs off the request path and the endpoint
	// acknowledges immediately.
	deferEvaluation bool
}

// NewHandler creates the webhook handler.
func NewHandler(detector detection.Service, logger *slog.Logger, deferEvaluation bool) *Handler {
	return &Handler{
		detector:        detector,
		validate:        validator.New(),
		logger:          logger,
		tracer:          otel.Tracer("api.rest"),
		deferEvaluation: deferEvaluation,
	}
}

// handleCheckNumber answers POST /phone-numbers:check/ with the fast
// block-list verdict.
func (h *Handler) handleCheckNumber(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "POST /phone-numbers:check/")
	defer span.End()

	var req CheckRequest
	if !h.decodeAndValidate(ctx, w, r, &req) {
		return
	}

	decision := h.detector.CheckNumber(ctx, req.Payload.Telephony.CallerID)
	if decision.Blocked {
		numbersBlocked.WithLabelValues("check").Inc()
	}
	h.writeJSON(ctx, w, http.StatusOK, decisionResponse(decision))
}

// handleQuery answers POST /queries/. The observation is always
// recorded; depending on the deployment shape the fraud evaluation runs
// inline or on the background runner.
func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "POST /queries/")
	defer span.End()

	var req QueryRequest
	if !h.decodeAndValidate(ctx, w, r, &req) {
		return
	}

	phoneNumber := req.Payload.Telephony.CallerID
	nationalID := req.SessionInfo.Parameters.NationalID

	if h.deferEvaluation {
		h.detector.DecideDeferred(ctx, phoneNumber, nationalID)
		h.writeJSON(ctx, w, http.StatusOK, StatusResponse{Status: "ok"})
		return
	}

	decision := h.detector.Decide(ctx, phoneNumber, nationalID)
	if decision.Blocked {
		numbersBlocked.WithLabelValues("query").Inc()
	}
	h.writeJSON(ctx, w, http.StatusOK, decisionResponse(decision))
}

// handleHealthcheck answers GET /healthcheck.
func (h *Handler) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(r.Context(), w, http.StatusOK, StatusResponse{Status: "ok"})
}

// decodeAndValidate parses and validates the request body. On failure it
// writes an HTTP 400 carrying the Dialogflow-shaped extraction error, so
// the agent flow always receives a well-formed fulfillment body.
func (h *Handler) decodeAndValidate(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode webhook request",
			"path", r.URL.Path,
			"error", err,
		)
		h.writeExtractionError(ctx, w)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		h.logger.ErrorContext(ctx, "webhook request validation failed",
			"path", r.URL.Path,
			"error", err,
		)
		h.writeExtractionError(ctx, w)
		return false
	}

	return true
}

func (h *Handler) writeExtractionError(ctx context.Context, w http.ResponseWriter) {
	resp := buildWebhookResponse(true, dialogflowMessages[fraud.MessageErrorExtractingParams])
	h.writeJSON(ctx, w, http.StatusBadRequest, resp)
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
