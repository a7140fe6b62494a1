package usecase

import (
	"context"
	"strings"

	"github.com/loopware/billing-webhook/internal/domain/model"
	"github.com/loopware/billing-webhook/internal/domain/provider"
	"github.com/loopware/billing-webhook/internal/domain/repository"
	"go.uber.org/zap"
)

// SubscriptionSyncService mirrors provider subscription state into the
// local subscriptions table. Every event upserts the current remote
// state, so ordering between created, updated and canceled deliveries
// does not matter; the last writer wins.
type SubscriptionSyncService struct {
	subscriptionRepo repository.SubscriptionRepository
	shopRepo         repository.ShopRepository
	eventRepo        repository.WebhookEventRepository
	resolver         provider.SubscriptionResolver
	logger           *zap.Logger
}

// NewSubscriptionSyncService creates a new subscription sync service
func NewSubscriptionSyncService(
	subscriptionRepo repository.SubscriptionRepository,
	shopRepo repository.ShopRepository,
	eventRepo repository.WebhookEventRepository,
	resolver provider.SubscriptionResolver,
	logger *zap.Logger,
) *SubscriptionSyncService {
	return &SubscriptionSyncService{
		subscriptionRepo: subscriptionRepo,
		shopRepo:         shopRepo,
		eventRepo:        eventRepo,
		resolver:         resolver,
		logger:           logger,
	}
}

// Process runs the sync pipeline for one subscription event. Like
// payment attribution it absorbs failures into logged outcomes instead
// of returning errors.
func (s *SubscriptionSyncService) Process(ctx context.Context, eventRowID int64, ev InboundEvent) PipelineResult {
	sub, err := s.resolver.ResolveSubscription(ctx, provider.ResolveInput{
		ID:   ev.EventID,
		UUID: ev.ObjectUUID,
	})
	if err != nil {
		s.logger.Warn("Subscription could not be resolved",
			zap.String("event_id", ev.EventID),
			zap.String("object_uuid", ev.ObjectUUID),
			zap.Error(err))
		s.markEvent(ctx, eventRowID, model.EventStatusFailed, err.Error())
		return PipelineResult{Outcome: OutcomeUnresolved, Detail: err.Error()}
	}

	email := NormalizeEmail(sub.Email)

	// Persisting a record that cannot be joined back to a customer or a
	// plan is worse than not persisting it, so all three identifiers are
	// required.
	if missing := missingIdentity(sub.SubscriptionID, email, sub.PlanCode); missing != "" {
		s.logger.Warn("Subscription identity incomplete, skipping upsert",
			zap.String("event_id", ev.EventID),
			zap.String("object_uuid", ev.ObjectUUID),
			zap.String("missing", missing))
		detail := "incomplete subscription identity: missing " + missing
		s.markEvent(ctx, eventRowID, model.EventStatusSkipped, detail)
		return PipelineResult{Outcome: OutcomeSkipped, Detail: detail}
	}

	status := sub.Status
	if status == "" {
		status = "active"
	}

	var shopID *int64
	shop, err := s.shopRepo.GetByPlanCode(ctx, sub.PlanCode)
	if err != nil {
		s.logger.Error("Failed to look up shop by plan code",
			zap.String("plan_code", sub.PlanCode),
			zap.Error(err))
		s.markEvent(ctx, eventRowID, model.EventStatusFailed, "shop lookup failed: "+err.Error())
		return PipelineResult{Outcome: OutcomeFailed, Detail: err.Error()}
	}
	if shop != nil {
		shopID = &shop.ID
	} else {
		s.logger.Warn("No shop registered for plan code",
			zap.String("plan_code", sub.PlanCode))
		// A shop linked while the plan mapping still existed survives
		// re-syncs; the upsert must not null it out.
		existing, lookupErr := s.subscriptionRepo.GetByProviderSubscriptionID(ctx, sub.SubscriptionID)
		if lookupErr != nil {
			s.logger.Warn("Failed to load existing subscription",
				zap.String("subscription_id", sub.SubscriptionID),
				zap.Error(lookupErr))
		} else if existing != nil {
			shopID = existing.ShopID
		}
	}

	record := &model.Subscription{
		Provider:               "recurly",
		ProviderSubscriptionID: sub.SubscriptionID,
		AccountCode:            sub.AccountCode,
		Email:                  email,
		PlanCode:               sub.PlanCode,
		ShopID:                 shopID,
		Status:                 status,
		CurrentPeriodEnd:       sub.CurrentPeriodEnd,
	}
	if err := s.subscriptionRepo.Upsert(ctx, record); err != nil {
		s.logger.Error("Failed to upsert subscription",
			zap.String("subscription_id", sub.SubscriptionID),
			zap.Error(err))
		s.markEvent(ctx, eventRowID, model.EventStatusFailed, "subscription upsert failed: "+err.Error())
		return PipelineResult{Outcome: OutcomeFailed, Detail: err.Error()}
	}

	s.logger.Info("Subscription synced",
		zap.String("subscription_id", sub.SubscriptionID),
		zap.String("email", email),
		zap.String("plan_code", sub.PlanCode),
		zap.String("status", status),
		zap.Int64p("shop_id", shopID))
	s.markEvent(ctx, eventRowID, model.EventStatusProcessed, "")

	return PipelineResult{Outcome: OutcomeSynced}
}

func (s *SubscriptionSyncService) markEvent(ctx context.Context, eventRowID int64, status model.EventStatus, detail string) {
	if eventRowID == 0 {
		return
	}

	var err error
	switch status {
	case model.EventStatusProcessed:
		err = s.eventRepo.MarkProcessed(ctx, eventRowID, nil)
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

func missingIdentity(subscriptionID, email, planCode string) string {
	var missing []string
	if subscriptionID == "" {
		missing = append(missing, "subscription_id")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if planCode == "" {
		missing = append(missing, "plan_code")
	}
	return strings.Join(missing, ", ")
}
