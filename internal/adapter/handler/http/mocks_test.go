package http

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/loopware/billing-webhook/internal/domain/model"
	"github.com/loopware/billing-webhook/internal/domain/provider"
	"github.com/stretchr/testify/mock"
)

type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) Record(ctx context.Context, event *model.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) GetByID(ctx context.Context, id int64) (*model.WebhookEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookEvent), args.Error(1)
}

func (m *MockWebhookEventRepository) MarkProcessed(ctx context.Context, id int64, attemptID *uuid.UUID) error {
	args := m.Called(ctx, id, attemptID)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) MarkDuplicate(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) MarkSkipped(ctx context.Context, id int64, detail string) error {
	args := m.Called(ctx, id, detail)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) MarkFailed(ctx context.Context, id int64, detail string) error {
	args := m.Called(ctx, id, detail)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) ListByStatus(ctx context.Context, status model.EventStatus, limit int) ([]*model.WebhookEvent, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.WebhookEvent), args.Error(1)
}

func (m *MockWebhookEventRepository) ListUnprocessed(ctx context.Context, limit int) ([]*model.WebhookEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.WebhookEvent), args.Error(1)
}

type MockSignupAttemptRepository struct {
	mock.Mock
}

func (m *MockSignupAttemptRepository) ExistsByProviderEventID(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSignupAttemptRepository) FindLatestPendingByEmail(ctx context.Context, email string, since time.Time) (*model.SignupAttempt, error) {
	args := m.Called(ctx, email, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignupAttempt), args.Error(1)
}

func (m *MockSignupAttemptRepository) MarkPaid(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	args := m.Called(ctx, id, updates)
	return args.Bool(0), args.Error(1)
}

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*model.Subscription, error) {
	args := m.Called(ctx, providerSubscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Upsert(ctx context.Context, subscription *model.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

type MockShopRepository struct {
	mock.Mock
}

func (m *MockShopRepository) GetByPlanCode(ctx context.Context, planCode string) (*model.Shop, error) {
	args := m.Called(ctx, planCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Shop), args.Error(1)
}

type MockPaymentResolver struct {
	mock.Mock
}

func (m *MockPaymentResolver) ResolvePayment(ctx context.Context, in provider.ResolveInput) (*provider.ResolvedPayment, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ResolvedPayment), args.Error(1)
}

type MockSubscriptionResolver struct {
	mock.Mock
}

func (m *MockSubscriptionResolver) ResolveSubscription(ctx context.Context, in provider.ResolveInput) (*provider.ResolvedSubscription, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ResolvedSubscription), args.Error(1)
}
