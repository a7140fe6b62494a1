package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loopware/billing-webhook/internal/domain/model"
	"github.com/loopware/billing-webhook/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type webhookEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *gorm.DB, logger *zap.Logger) repository.WebhookEventRepository {
	return &webhookEventRepository{
		db:     db,
		logger: logger,
	}
}

// Record inserts the audit row for a delivery and fills in its id
func (r *webhookEventRepository) Record(ctx context.Context, event *model.WebhookEvent) error {
	err := r.db.WithContext(ctx).Create(event).Error
	if err != nil {
		r.logger.Error("Failed to record webhook event",
			zap.Stringp("provider_event_id", event.ProviderEventID),
			zap.String("event_type", event.EventType),
			zap.Error(err))
		return fmt.Errorf("failed to record webhook event: %w", err)
	}

	return nil
}

// GetByID retrieves a webhook event by its row id
func (r *webhookEventRepository) GetByID(ctx context.Context, id int64) (*model.WebhookEvent, error) {
	var event model.WebhookEvent

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&event).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get webhook event",
			zap.Int64("event_row_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}

	return &event, nil
}

// MarkProcessed marks the event as processed, linking the attributed attempt
func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id int64, attemptID *uuid.UUID) error {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":            model.EventStatusProcessed,
			"signup_attempt_id": attemptID,
			"processed_at":      &now,
		})

	if result.Error != nil {
		r.logger.Error("Failed to mark webhook event processed",
			zap.Int64("event_row_id", id),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark webhook event processed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %d", id)
	}

	return nil
}

// MarkDuplicate marks the event as a duplicate delivery
func (r *webhookEventRepository) MarkDuplicate(ctx context.Context, id int64) error {
	return r.setOutcome(ctx, id, model.EventStatusDuplicate, "")
}

// MarkSkipped marks the event as out of scope for the pipeline
func (r *webhookEventRepository) MarkSkipped(ctx context.Context, id int64, detail string) error {
	return r.setOutcome(ctx, id, model.EventStatusSkipped, detail)
}

// MarkFailed marks the event as failed, retaining it for replay
func (r *webhookEventRepository) MarkFailed(ctx context.Context, id int64, detail string) error {
	return r.setOutcome(ctx, id, model.EventStatusFailed, detail)
}

func (r *webhookEventRepository) setOutcome(ctx context.Context, id int64, status model.EventStatus, detail string) error {
	now := time.Now()

	updates := map[string]interface{}{
		"status":       status,
		"processed_at": &now,
	}
	if detail != "" {
		updates["detail"] = &detail
	}

	result := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		r.logger.Error("Failed to update webhook event outcome",
			zap.Int64("event_row_id", id),
			zap.String("status", string(status)),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update webhook event outcome: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %d", id)
	}

	return nil
}

// ListByStatus lists events with the given status, oldest first
func (r *webhookEventRepository) ListByStatus(ctx context.Context, status model.EventStatus, limit int) ([]*model.WebhookEvent, error) {
	var events []*model.WebhookEvent

	query := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&events).Error
	if err != nil {
		r.logger.Error("Failed to list webhook events by status",
			zap.String("status", string(status)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list webhook events: %w", err)
	}

	return events, nil
}

// ListUnprocessed lists events eligible for replay: failed ones and
// received ones whose processing never concluded
func (r *webhookEventRepository) ListUnprocessed(ctx context.Context, limit int) ([]*model.WebhookEvent, error) {
	var events []*model.WebhookEvent

	query := r.db.WithContext(ctx).
		Where("status IN (?, ?)", model.EventStatusReceived, model.EventStatusFailed).
		Order("created_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&events).Error
	if err != nil {
		r.logger.Error("Failed to list unprocessed webhook events",
			zap.Error(err))
		return nil, fmt.Errorf("failed to list unprocessed webhook events: %w", err)
	}

	return events, nil
}
