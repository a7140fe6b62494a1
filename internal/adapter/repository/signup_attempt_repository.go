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

type signupAttemptRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSignupAttemptRepository creates a new signup attempt repository
func NewSignupAttemptRepository(db *gorm.DB, logger *zap.Logger) repository.SignupAttemptRepository {
	return &signupAttemptRepository{
		db:     db,
		logger: logger,
	}
}

// ExistsByProviderEventID checks whether any attempt already recorded this event id
func (r *signupAttemptRepository) ExistsByProviderEventID(ctx context.Context, eventID string) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.SignupAttempt{}).
		Where("provider_event_id = ?", eventID).
		Count(&count).Error

	if err != nil {
		r.logger.Error("Failed to check for existing provider event id",
			zap.String("provider_event_id", eventID),
			zap.Error(err))
		return false, fmt.Errorf("failed to check provider event id: %w", err)
	}

	return count > 0, nil
}

// FindLatestPendingByEmail returns the most recent pending attempt for the
// email created at or after since
func (r *signupAttemptRepository) FindLatestPendingByEmail(ctx context.Context, email string, since time.Time) (*model.SignupAttempt, error) {
	var attempt model.SignupAttempt

	err := r.db.WithContext(ctx).
		Where("email = ? AND status = ? AND created_at >= ?", email, model.SignupStatusPending, since).
		Order("created_at DESC").
		First(&attempt).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to find pending signup attempt",
			zap.String("email", email),
			zap.Time("since", since),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find pending signup attempt: %w", err)
	}

	return &attempt, nil
}

// MarkPaid applies the updates to the attempt while it is still pending.
// The status guard in the WHERE clause makes a second application a no-op.
func (r *signupAttemptRepository) MarkPaid(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.SignupAttempt{}).
		Where("id = ? AND status = ?", id, model.SignupStatusPending).
		Updates(updates)

	if result.Error != nil {
		r.logger.Error("Failed to mark signup attempt paid",
			zap.String("attempt_id", id.String()),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to mark signup attempt paid: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}
