package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/loopware/billing-webhook/internal/domain/model"
	"github.com/loopware/billing-webhook/internal/domain/provider"
	"github.com/loopware/billing-webhook/internal/domain/repository"
	"go.uber.org/zap"
)

// defaultAttributionWindow bounds how far back a payment may reach to
// claim a pending signup attempt.
const defaultAttributionWindow = 6 * time.Hour

// PaymentAttributionService turns a provider payment notification into a
// PENDING -> PAID transition on the signup attempt it belongs to. The
// pipeline is dedupe, resolve, match, mark paid; every terminal state is
// written back to the audit row so failed deliveries can be replayed.
type PaymentAttributionService struct {
	attemptRepo repository.SignupAttemptRepository
	eventRepo   repository.WebhookEventRepository
	resolver    provider.PaymentResolver
	logger      *zap.Logger
	window      time.Duration
}

// NewPaymentAttributionService creates a new payment attribution service.
// A non-positive window falls back to the 6 hour default.
func NewPaymentAttributionService(
	attemptRepo repository.SignupAttemptRepository,
	eventRepo repository.WebhookEventRepository,
	resolver provider.PaymentResolver,
	logger *zap.Logger,
	window time.Duration,
) *PaymentAttributionService {
	if window <= 0 {
		window = defaultAttributionWindow
	}
	return &PaymentAttributionService{
		attemptRepo: attemptRepo,
		eventRepo:   eventRepo,
		resolver:    resolver,
		logger:      logger,
		window:      window,
	}
}

// Process runs the attribution pipeline for one payment event. It never
// returns an error: providers retry on failures, and a retry storm helps
// nobody, so every failure becomes a logged outcome on the audit row
// instead.
func (s *PaymentAttributionService) Process(ctx context.Context, eventRowID int64, ev InboundEvent) PipelineResult {
	// Dedup is advisory. Events without an id are always processed; the
	// conditional status update makes a second pass a no-op anyway.
	if ev.EventID != "" {
		exists, err := s.attemptRepo.ExistsByProviderEventID(ctx, ev.EventID)
		if err != nil {
			s.logger.Warn("Dedup check failed, processing anyway",
				zap.String("event_id", ev.EventID),
				zap.Error(err))
		} else if exists {
			s.logger.Info("Duplicate payment event, skipping",
				zap.String("event_id", ev.EventID))
			s.markEvent(ctx, eventRowID, model.EventStatusDuplicate, "")
			return PipelineResult{Outcome: OutcomeDuplicate}
		}
	}

	payment, err := s.resolver.ResolvePayment(ctx, provider.ResolveInput{
		ID:   ev.EventID,
		UUID: ev.ObjectUUID,
	})
	if err != nil {
		s.logger.Warn("Payment could not be resolved",
			zap.String("event_id", ev.EventID),
			zap.String("object_uuid", ev.ObjectUUID),
			zap.Error(err))
		s.markEvent(ctx, eventRowID, model.EventStatusFailed, err.Error())
		return PipelineResult{Outcome: OutcomeUnresolved, Detail: err.Error()}
	}

	email := NormalizeEmail(payment.Email)

	asOf := time.Now()
	if payment.CollectedAt != nil {
		asOf = *payment.CollectedAt
	}
	since := asOf.Add(-s.window)

	attempt, err := s.attemptRepo.FindLatestPendingByEmail(ctx, email, since)
	if err != nil {
		s.logger.Error("Failed to query signup attempts",
			zap.String("email", email),
			zap.Error(err))
		s.markEvent(ctx, eventRowID, model.EventStatusFailed, "signup attempt lookup failed: "+err.Error())
		return PipelineResult{Outcome: OutcomeFailed, Detail: err.Error()}
	}
	if attempt == nil {
		s.logger.Info("No pending signup attempt matched payment",
			zap.String("email", email),
			zap.Time("since", since),
			zap.String("transaction_id", payment.TransactionID))
		s.markEvent(ctx, eventRowID, model.EventStatusSkipped, "no pending signup attempt matched")
		return PipelineResult{Outcome: OutcomeNoMatch}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":                   model.SignupStatusPaid,
		"completed_at":             &now,
		"provider_event_id":        nullableString(ev.EventID),
		"provider_invoice_id":      nullableString(payment.InvoiceID),
		"provider_transaction_id":  nullableString(payment.TransactionID),
		"provider_subscription_id": nullableString(payment.SubscriptionID),
		"amount":                   payment.Amount,
		"currency":                 payment.Currency,
	}

	updated, err := s.attemptRepo.MarkPaid(ctx, attempt.ID, updates)
	if err != nil {
		s.logger.Error("Failed to mark signup attempt paid",
			zap.String("attempt_id", attempt.ID.String()),
			zap.Error(err))
		s.markEvent(ctx, eventRowID, model.EventStatusFailed, "mark paid failed: "+err.Error())
		return PipelineResult{Outcome: OutcomeFailed, Detail: err.Error()}
	}
	if !updated {
		// Lost the race: the attempt left PENDING between match and write.
		s.logger.Info("Signup attempt no longer pending, nothing to do",
			zap.String("attempt_id", attempt.ID.String()),
			zap.String("event_id", ev.EventID))
		s.markEvent(ctx, eventRowID, model.EventStatusSkipped, "signup attempt already paid")
		return PipelineResult{Outcome: OutcomeNoMatch, Detail: "signup attempt already paid"}
	}

	s.logger.Info("Payment attributed to signup attempt",
		zap.String("attempt_id", attempt.ID.String()),
		zap.String("email", email),
		zap.String("event_id", ev.EventID),
		zap.String("transaction_id", payment.TransactionID),
		zap.String("amount", payment.Amount.String()),
		zap.String("currency", payment.Currency))
	s.markProcessed(ctx, eventRowID, attempt.ID)

	attemptID := attempt.ID
	return PipelineResult{Outcome: OutcomeAttributed, AttemptID: &attemptID}
}

// markEvent updates the audit row. Audit writes are best effort and must
// never fail the pipeline.
func (s *PaymentAttributionService) markEvent(ctx context.Context, eventRowID int64, status model.EventStatus, detail string) {
	if eventRowID == 0 {
		return
	}

	var err error
	switch status {
	case model.EventStatusDuplicate:
		err = s.eventRepo.MarkDuplicate(ctx, eventRowID)
	case model.EventStatusSkipped:
		err = s.eventRepo.MarkSkipped(ctx, eventRowID, detail)
	default:
		err = s.eventRepo.MarkFailed(ctx, eventRowID, detail)
	}
	if err != nil {
		s.logger.Error("Failed to update webhook event status",
			zap.Int64("event_row_id", eventRowID),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

func (s *PaymentAttributionService) markProcessed(ctx context.Context, eventRowID int64, attemptID uuid.UUID) {
	if eventRowID == 0 {
		return
	}
	if err := s.eventRepo.MarkProcessed(ctx, eventRowID, &attemptID); err != nil {
		s.logger.Error("Failed to mark webhook event processed",
			zap.Int64("event_row_id", eventRowID),
			zap.Error(err))
	}
}
