package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loopware/billing-webhook/internal/domain/model"
	"github.com/loopware/billing-webhook/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

// GetByProviderSubscriptionID retrieves a subscription by provider subscription ID
func (r *subscriptionRepository) GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription by provider subscription ID",
			zap.String("provider_subscription_id", providerSubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// Upsert inserts or overwrites the subscription keyed on the provider
// subscription id. Last writer wins.
func (r *subscriptionRepository) Upsert(ctx context.Context, subscription *model.Subscription) error {
	subscription.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider_subscription_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"account_code",
				"email",
				"plan_code",
				"shop_id",
				"status",
				"current_period_end",
				"updated_at",
			}),
		}).
		Create(subscription).Error

	if err != nil {
		r.logger.Error("Failed to upsert subscription",
			zap.String("provider_subscription_id", subscription.ProviderSubscriptionID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	return nil
}
