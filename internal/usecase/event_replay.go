package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/loopware/billing-webhook/internal/domain/model"
	"github.com/loopware/billing-webhook/internal/domain/repository"
	"go.uber.org/zap"
)

// ErrEventNotFound is returned when a replay targets an audit row that
// does not exist.
var ErrEventNotFound = errors.New("webhook event not found")

// EventReplayService re-runs the processing pipeline for stored webhook
// events. Replays are manual: an operator picks a dead-lettered row (or
// a batch of them) after fixing whatever made the first pass fail.
type EventReplayService struct {
	eventRepo        repository.WebhookEventRepository
	attribution      *PaymentAttributionService
	subscriptionSync *SubscriptionSyncService
	logger           *zap.Logger
}

// NewEventReplayService creates a new event replay service
func NewEventReplayService(
	eventRepo repository.WebhookEventRepository,
	attribution *PaymentAttributionService,
	subscriptionSync *SubscriptionSyncService,
	logger *zap.Logger,
) *EventReplayService {
	return &EventReplayService{
		eventRepo:        eventRepo,
		attribution:      attribution,
		subscriptionSync: subscriptionSync,
		logger:           logger,
	}
}

// Replay re-runs one stored event through the pipeline it belongs to.
// The stored payload is the source of truth; the new outcome overwrites
// the old one on the audit row.
func (s *EventReplayService) Replay(ctx context.Context, eventRowID int64) (PipelineResult, error) {
	event, err := s.eventRepo.GetByID(ctx, eventRowID)
	if err != nil {
		return PipelineResult{}, fmt.Errorf("failed to load webhook event %d: %w", eventRowID, err)
	}
	if event == nil {
		return PipelineResult{}, ErrEventNotFound
	}

	s.logger.Info("Replaying webhook event",
		zap.Int64("event_row_id", event.ID),
		zap.String("object_type", event.ObjectType),
		zap.String("event_type", event.EventType),
		zap.String("previous_status", string(event.Status)))

	return s.dispatch(ctx, event), nil
}

// ReplaySummary aggregates outcomes over a batch replay.
type ReplaySummary struct {
	Total    int
	Outcomes map[Outcome]int
}

// ReplayUnprocessed re-runs every received or failed event, oldest
// first. A limit of zero replays the whole backlog.
func (s *EventReplayService) ReplayUnprocessed(ctx context.Context, limit int) (ReplaySummary, error) {
	summary := ReplaySummary{Outcomes: make(map[Outcome]int)}

	events, err := s.eventRepo.ListUnprocessed(ctx, limit)
	if err != nil {
		return summary, fmt.Errorf("failed to list unprocessed events: %w", err)
	}

	for _, event := range events {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		result := s.dispatch(ctx, event)
		summary.Total++
		summary.Outcomes[result.Outcome]++
	}

	return summary, nil
}

func (s *EventReplayService) dispatch(ctx context.Context, event *model.WebhookEvent) PipelineResult {
	ev, err := inboundEventFromPayload(event)
	if err != nil {
		s.logger.Error("Stored payload is not valid JSON, cannot replay",
			zap.Int64("event_row_id", event.ID),
			zap.Error(err))
		detail := "stored payload unparseable: " + err.Error()
		if markErr := s.eventRepo.MarkFailed(ctx, event.ID, detail); markErr != nil {
			s.logger.Error("Failed to update webhook event status",
				zap.Int64("event_row_id", event.ID),
				zap.Error(markErr))
		}
		return PipelineResult{Outcome: OutcomeFailed, Detail: detail}
	}

	switch ClassifyObjectType(ev.ObjectType) {
	case ObjectClassPayment:
		if !IsPaymentEventOfInterest(ev.EventType) {
			return s.skip(ctx, event.ID, "payment event type not of interest: "+ev.EventType)
		}
		return s.attribution.Process(ctx, event.ID, ev)
	case ObjectClassSubscription:
		return s.subscriptionSync.Process(ctx, event.ID, ev)
	default:
		return s.skip(ctx, event.ID, "unsupported object type: "+ev.ObjectType)
	}
}

func (s *EventReplayService) skip(ctx context.Context, eventRowID int64, detail string) PipelineResult {
	if err := s.eventRepo.MarkSkipped(ctx, eventRowID, detail); err != nil {
		s.logger.Error("Failed to update webhook event status",
			zap.Int64("event_row_id", eventRowID),
			zap.Error(err))
	}
	return PipelineResult{Outcome: OutcomeSkipped, Detail: detail}
}

// inboundEventFromPayload rebuilds the envelope from the stored raw
// payload rather than the indexed columns, so a replay sees exactly what
// the original delivery carried.
func inboundEventFromPayload(event *model.WebhookEvent) (InboundEvent, error) {
	var payload struct {
		ID         string `json:"id"`
		UUID       string `json:"uuid"`
		ObjectType string `json:"object_type"`
		EventType  string `json:"event_type"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return InboundEvent{}, err
	}
	return InboundEvent{
		EventID:    payload.ID,
		ObjectUUID: payload.UUID,
		ObjectType: payload.ObjectType,
		EventType:  payload.EventType,
	}, nil
}
