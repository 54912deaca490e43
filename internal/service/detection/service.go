package detection

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	domainErrors "github.com/voicegate/fraud-manager-backend/internal/domain/errors"
	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
)

// service implements the Service interface. Each invocation is
// independent: there is no shared mutable in-process state beyond the
// immutable configuration, so no engine-level locking is needed. The
// only side effect, the BlockEntry write, is an idempotent per-key
// upsert, so concurrent evaluations of the same number are harmless.
type service struct {
	events    EventStore
	blocks    BlockRegistry
	evaluator *WindowEvaluator
	policy    *BlockingPolicy
	tasks     TaskRunner
	clock     fraud.Clock
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewService wires the decision engine. A nil clock defaults to system
// time; a nil task runner makes DecideDeferred evaluate inline, which is
// the synchronous deployment shape.
func NewService(events EventStore, blocks BlockRegistry, tasks TaskRunner, cfg Config, logger *slog.Logger, clock fraud.Clock) (Service, error) {
	if err := fraud.ValidateWindows(cfg.Windows); err != nil {
		return nil, err
	}
	if cfg.Threshold <= 0 {
		return nil, domainErrors.NewValidationError("INVALID_THRESHOLD", "distinct-ID threshold must be positive")
	}
	if clock == nil {
		clock = fraud.RealClock{}
	}

	return &service{
		events:    events,
		blocks:    blocks,
		evaluator: NewWindowEvaluator(events, cfg.Windows),
		policy:    NewBlockingPolicy(cfg.Threshold),
		tasks:     tasks,
		clock:     clock,
		logger:    logger,
		tracer:    otel.Tracer("service.detection"),
	}, nil
}

// CheckNumber answers the fast block-list check. A registry read failure
// fails closed: when the engine cannot verify safety it reports the
// number as blocked rather than letting the call through.
func (s *service) CheckNumber(ctx context.Context, rawPhoneNumber string) fraud.Decision {
	ctx, span := s.tracer.Start(ctx, "detection.CheckNumber")
	defer span.End()

	phoneNumber := fraud.Normalize(rawPhoneNumber)
	if phoneNumber == "" {
		return fraud.Decision{Blocked: true, Message: fraud.MessageErrorExtractingParams}
	}
	span.SetAttributes(attribute.String("phone_number", phoneNumber))

	entry, err := s.blocks.GetBlockEntry(ctx, phoneNumber)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "phone number found in block list",
			"phone_number", phoneNumber,
			"reason", entry.Reason,
			"origin", entry.Origin,
		)
		return fraud.Decision{Blocked: true, Message: fraud.MessageBlockedNumber, Reason: entry.Reason}
	case errors.Is(err, domainErrors.ErrBlockEntryNotFound):
		s.logger.InfoContext(ctx, "phone number not found in block list", "phone_number", phoneNumber)
		return fraud.Decision{Blocked: false, Message: fraud.MessageAllowedNumber}
	default:
		s.logger.ErrorContext(ctx, "block registry lookup failed, failing closed",
			"phone_number", phoneNumber,
			"error", err,
		)
		return fraud.Decision{Blocked: true, Message: fraud.MessageBlockedNumber}
	}
}

// Decide runs the full pipeline synchronously, so the caller's response
// reflects the freshest state the stores can offer.
func (s *service) Decide(ctx context.Context, rawPhoneNumber, rawNationalID string) fraud.Decision {
	ctx, span := s.tracer.Start(ctx, "detection.Decide")
	defer span.End()

	phoneNumber, nationalID, decision, ok := s.receive(ctx, rawPhoneNumber, rawNationalID)
	if !ok {
		return decision
	}

	s.record(ctx, phoneNumber, nationalID)
	return s.evaluateAndCommit(ctx, phoneNumber)
}

// DecideDeferred records the observation, schedules evaluation on the
// task runner, and answers optimistically. When no runner is configured
// it degrades to the synchronous shape.
func (s *service) DecideDeferred(ctx context.Context, rawPhoneNumber, rawNationalID string) fraud.Decision {
	ctx, span := s.tracer.Start(ctx, "detection.DecideDeferred")
	defer span.End()

	phoneNumber, nationalID, decision, ok := s.receive(ctx, rawPhoneNumber, rawNationalID)
	if !ok {
		return decision
	}

	s.record(ctx, phoneNumber, nationalID)

	if s.tasks == nil {
		return s.evaluateAndCommit(ctx, phoneNumber)
	}

	s.tasks.Submit(func(taskCtx context.Context) {
		s.evaluateAndCommit(taskCtx, phoneNumber)
	})

	return fraud.Decision{Blocked: false, Message: fraud.MessageAllowedNumber}
}

// receive normalizes the identifiers and runs the fast block check. The
// returned bool is false when processing terminated (empty identifier or
// existing block entry) and decision already holds the answer. The
// fast-block path deliberately skips the observation append:
// already-blocked numbers need no further history.
func (s *service) receive(ctx context.Context, rawPhoneNumber, rawNationalID string) (phoneNumber, nationalID string, decision fraud.Decision, proceed bool) {
	phoneNumber = fraud.Normalize(rawPhoneNumber)
	nationalID = fraud.Normalize(rawNationalID)
	if phoneNumber == "" || nationalID == "" {
		s.logger.WarnContext(ctx, "could not extract parameters",
			"phone_number_empty", phoneNumber == "",
			"national_id_empty", nationalID == "",
		)
		return "", "", fraud.Decision{Blocked: true, Message: fraud.MessageErrorExtractingParams}, false
	}

	entry, err := s.blocks.GetBlockEntry(ctx, phoneNumber)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "phone number already blocked",
			"phone_number", phoneNumber,
			"reason", entry.Reason,
		)
		return "", "", fraud.Decision{Blocked: true, Message: fraud.MessageBlockedNumber, Reason: entry.Reason}, false
	case errors.Is(err, domainErrors.ErrBlockEntryNotFound):
		return phoneNumber, nationalID, fraud.Decision{}, true
	default:
		s.logger.ErrorContext(ctx, "block registry lookup failed, failing closed",
			"phone_number", phoneNumber,
			"error", err,
		)
		return "", "", fraud.Decision{Blocked: true, Message: fraud.MessageBlockedNumber}, false
	}
}

// record appends the observation. The append is best-effort: losing one
// history record is lower severity than blocking the caller on a storage
// hiccup, so a failure is logged and processing continues.
func (s *service) record(ctx context.Context, phoneNumber, nationalID string) {
	obs, err := fraud.NewObservation(phoneNumber, nationalID, s.clock.Now())
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build observation", "error", err)
		return
	}

	if err := s.events.RecordObservation(ctx, obs); err != nil {
		s.logger.ErrorContext(ctx, "failed to record observation",
			"phone_number", phoneNumber,
			"error", err,
		)
		return
	}

	s.logger.InfoContext(ctx, "observation recorded",
		"phone_number", phoneNumber,
		"national_id", nationalID,
	)
}

// evaluateAndCommit runs the window evaluator and blocking policy, and
// commits the block entry when the policy triggers.
func (s *service) evaluateAndCommit(ctx context.Context, phoneNumber string) fraud.Decision {
	ctx, span := s.tracer.Start(ctx, "detection.evaluate")
	defer span.End()

	now := s.clock.Now()

	// Windows stream longest-first. While they keep triggering, the
	// verdict narrows to the most specific (shortest) triggering window;
	// the first window below the threshold ends evaluation, since its
	// subsets cannot reach the threshold either. Errored windows are
	// skipped without ending evaluation so a single failed read is never
	// mistaken for "no fraud".
	var verdict fraud.BlockDecision
	s.evaluator.Evaluate(ctx, phoneNumber, now, func(res WindowResult) bool {
		if res.Err != nil {
			s.logger.ErrorContext(ctx, "window evaluation failed",
				"phone_number", phoneNumber,
				"window", res.Window.Name,
				"error", res.Err,
			)
			return true
		}

		s.logger.DebugContext(ctx, "window evaluated",
			"phone_number", phoneNumber,
			"window", res.Window.Name,
			"distinct_national_ids", res.DistinctCount(),
		)

		d, triggered := s.policy.Apply(res)
		if !triggered {
			return false
		}
		verdict = d
		return true
	})

	if !verdict.Blocked {
		return fraud.Decision{Blocked: false, Message: fraud.MessageAllowedNumber}
	}

	span.SetAttributes(attribute.String("block_window", verdict.Window.Name))
	s.logger.WarnContext(ctx, "fraud rule triggered",
		"phone_number", phoneNumber,
		"window", verdict.Window.Name,
		"reason", verdict.Reason,
	)

	entry, err := fraud.NewAutomaticBlock(phoneNumber, verdict.Reason, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build block entry", "error", err)
		return fraud.Decision{Blocked: true, Message: fraud.MessageBlockedNumber, Reason: verdict.Reason}
	}

	if err := s.blocks.PutBlockEntry(ctx, entry); err != nil {
		// The decision stands even when the write fails; the next
		// evaluation will re-trigger and re-assert the same entry.
		s.logger.ErrorContext(ctx, "failed to write block entry",
			"phone_number", phoneNumber,
			"error", err,
		)
	} else {
		s.logger.InfoContext(ctx, "phone number blocked",
			"phone_number", phoneNumber,
			"reason", verdict.Reason,
		)
	}

	return fraud.Decision{Blocked: true, Message: fraud.MessageBlockedNumber, Reason: verdict.Reason}
}
