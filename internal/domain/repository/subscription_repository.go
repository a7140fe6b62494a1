package repository

import (
	"context"

	"github.com/loopware/billing-webhook/internal/domain/model"
)

type SubscriptionRepository interface {
	GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*model.Subscription, error)
	Upsert(ctx context.Context, subscription *model.Subscription) error
}
