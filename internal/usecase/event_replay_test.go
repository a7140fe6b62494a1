package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/loopware/billing-webhook/internal/domain/model"
	"github.com/loopware/billing-webhook/internal/domain/provider"
	"github.com/loopware/billing-webhook/internal/usecase"
)

func newReplayService(
	attemptRepo *MockSignupAttemptRepository,
	subRepo *MockSubscriptionRepository,
	shopRepo *MockShopRepository,
	eventRepo *MockWebhookEventRepository,
	paymentResolver *MockPaymentResolver,
	subResolver *MockSubscriptionResolver,
) *usecase.EventReplayService {
	logger := zap.NewNop()
	attribution := usecase.NewPaymentAttributionService(attemptRepo, eventRepo, paymentResolver, logger, 0)
	subscriptionSync := usecase.NewSubscriptionSyncService(subRepo, shopRepo, eventRepo, subResolver, logger)
	return usecase.NewEventReplayService(eventRepo, attribution, subscriptionSync, logger)
}

func TestEventReplayService_Replay(t *testing.T) {
	ctx := context.Background()
	collectedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("replays stored payment event through the pipeline", func(t *testing.T) {
		attemptRepo := new(MockSignupAttemptRepository)
		subRepo := new(MockSubscriptionRepository)
		shopRepo := new(MockShopRepository)
		eventRepo := new(MockWebhookEventRepository)
		paymentResolver := new(MockPaymentResolver)
		subResolver := new(MockSubscriptionResolver)
		service := newReplayService(attemptRepo, subRepo, shopRepo, eventRepo, paymentResolver, subResolver)

		stored := &model.WebhookEvent{
			ID:         11,
			ObjectType: "payment",
			EventType:  "paid",
			Status:     model.EventStatusFailed,
			Payload:    datatypes.JSON([]byte(`{"id": "evt-1", "uuid": "u-1", "object_type": "payment", "event_type": "paid"}`)),
		}

		eventRepo.On("GetByID", ctx, int64(11)).Return(stored, nil)
		attemptRepo.On("ExistsByProviderEventID", ctx, "evt-1").Return(false, nil)
		paymentResolver.On("ResolvePayment", ctx, provider.ResolveInput{ID: "evt-1", UUID: "u-1"}).
			Return(&provider.ResolvedPayment{Email: "user@example.com", CollectedAt: &collectedAt}, nil)
		attemptRepo.On("FindLatestPendingByEmail", ctx, "user@example.com", mock.Anything).
			Return(nil, nil)
		eventRepo.On("MarkSkipped", ctx, int64(11), mock.Anything).Return(nil)

		result, err := service.Replay(ctx, 11)

		assert.NoError(t, err)
		assert.Equal(t, usecase.OutcomeNoMatch, result.Outcome)
		eventRepo.AssertExpectations(t)
		paymentResolver.AssertExpectations(t)
	})

	t.Run("returns not found for missing audit row", func(t *testing.T) {
		eventRepo := new(MockWebhookEventRepository)
		service := newReplayService(
			new(MockSignupAttemptRepository),
			new(MockSubscriptionRepository),
			new(MockShopRepository),
			eventRepo,
			new(MockPaymentResolver),
			new(MockSubscriptionResolver),
		)

		eventRepo.On("GetByID", ctx, int64(404)).Return(nil, nil)

		_, err := service.Replay(ctx, 404)

		assert.ErrorIs(t, err, usecase.ErrEventNotFound)
	})

	t.Run("skips payment event types that are not of interest", func(t *testing.T) {
		eventRepo := new(MockWebhookEventRepository)
		paymentResolver := new(MockPaymentResolver)
		service := newReplayService(
			new(MockSignupAttemptRepository),
			new(MockSubscriptionRepository),
			new(MockShopRepository),
			eventRepo,
			paymentResolver,
			new(MockSubscriptionResolver),
		)

		stored := &model.WebhookEvent{
			ID:         12,
			ObjectType: "payment",
			EventType:  "voided",
			Status:     model.EventStatusReceived,
			Payload:    datatypes.JSON([]byte(`{"id": "evt-2", "object_type": "payment", "event_type": "voided"}`)),
		}

		eventRepo.On("GetByID", ctx, int64(12)).Return(stored, nil)
		eventRepo.On("MarkSkipped", ctx, int64(12), mock.Anything).Return(nil)

		result, err := service.Replay(ctx, 12)

		assert.NoError(t, err)
		assert.Equal(t, usecase.OutcomeSkipped, result.Outcome)
		paymentResolver.AssertNotCalled(t, "ResolvePayment", mock.Anything, mock.Anything)
	})

	t.Run("dead-letters events whose stored payload is unparseable", func(t *testing.T) {
		eventRepo := new(MockWebhookEventRepository)
		service := newReplayService(
			new(MockSignupAttemptRepository),
			new(MockSubscriptionRepository),
			new(MockShopRepository),
			eventRepo,
			new(MockPaymentResolver),
			new(MockSubscriptionResolver),
		)

		stored := &model.WebhookEvent{
			ID:         13,
			Status:     model.EventStatusReceived,
			Payload:    datatypes.JSON([]byte(`{broken`)),
			ObjectType: "payment",
		}

		eventRepo.On("GetByID", ctx, int64(13)).Return(stored, nil)
		eventRepo.On("MarkFailed", ctx, int64(13), mock.Anything).Return(nil)

		result, err := service.Replay(ctx, 13)

		assert.NoError(t, err)
		assert.Equal(t, usecase.OutcomeFailed, result.Outcome)
		eventRepo.AssertExpectations(t)
	})
}

func TestEventReplayService_ReplayUnprocessed(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates outcomes over the backlog", func(t *testing.T) {
		attemptRepo := new(MockSignupAttemptRepository)
		subRepo := new(MockSubscriptionRepository)
		shopRepo := new(MockShopRepository)
		eventRepo := new(MockWebhookEventRepository)
		paymentResolver := new(MockPaymentResolver)
		subResolver := new(MockSubscriptionResolver)
		service := newReplayService(attemptRepo, subRepo, shopRepo, eventRepo, paymentResolver, subResolver)

		backlog := []*model.WebhookEvent{
			{
				ID:         1,
				ObjectType: "subscription",
				EventType:  "created",
				Status:     model.EventStatusFailed,
				Payload:    datatypes.JSON([]byte(`{"uuid": "u-1", "object_type": "subscription", "event_type": "created"}`)),
			},
			{
				ID:         2,
				ObjectType: "refund",
				EventType:  "created",
				Status:     model.EventStatusReceived,
				Payload:    datatypes.JSON([]byte(`{"id": "evt-2", "object_type": "refund", "event_type": "created"}`)),
			},
		}

		eventRepo.On("ListUnprocessed", ctx, 0).Return(backlog, nil)
		subResolver.On("ResolveSubscription", ctx, provider.ResolveInput{UUID: "u-1"}).
			Return(&provider.ResolvedSubscription{
				SubscriptionID: "sub-1",
				Email:          "subscriber@example.com",
				PlanCode:       "pro-monthly",
				Status:         "active",
			}, nil)
		shopRepo.On("GetByPlanCode", ctx, "pro-monthly").Return(nil, nil)
		subRepo.On("GetByProviderSubscriptionID", ctx, "sub-1").Return(nil, nil)
		subRepo.On("Upsert", ctx, mock.Anything).Return(nil)
		eventRepo.On("MarkProcessed", ctx, int64(1), mock.Anything).Return(nil)
		eventRepo.On("MarkSkipped", ctx, int64(2), mock.Anything).Return(nil)

		summary, err := service.ReplayUnprocessed(ctx, 0)

		assert.NoError(t, err)
		assert.Equal(t, 2, summary.Total)
		assert.Equal(t, 1, summary.Outcomes[usecase.OutcomeSynced])
		assert.Equal(t, 1, summary.Outcomes[usecase.OutcomeSkipped])
		eventRepo.AssertExpectations(t)
	})

	t.Run("propagates listing failures", func(t *testing.T) {
		eventRepo := new(MockWebhookEventRepository)
		service := newReplayService(
			new(MockSignupAttemptRepository),
			new(MockSubscriptionRepository),
			new(MockShopRepository),
			eventRepo,
			new(MockPaymentResolver),
			new(MockSubscriptionResolver),
		)

		eventRepo.On("ListUnprocessed", ctx, 0).Return(nil, assert.AnError)

		_, err := service.ReplayUnprocessed(ctx, 0)

		assert.Error(t, err)
	})
}
