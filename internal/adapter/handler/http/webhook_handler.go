package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/loopware/billing-webhook/internal/domain/model"
	"github.com/loopware/billing-webhook/internal/domain/repository"
	"github.com/loopware/billing-webhook/internal/usecase"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// maxWebhookBody caps how much of a webhook request is read. Provider
// notifications are small; anything beyond this is not a webhook.
const maxWebhookBody = 1 << 20

// WebhookHandler handles provider webhook notifications
type WebhookHandler struct {
	logger           *zap.Logger
	eventRepo        repository.WebhookEventRepository
	attribution      *usecase.PaymentAttributionService
	subscriptionSync *usecase.SubscriptionSyncService
}

// NewWebhookHandler creates a new WebhookHandler instance
func NewWebhookHandler(
	logger *zap.Logger,
	eventRepo repository.WebhookEventRepository,
	attribution *usecase.PaymentAttributionService,
	subscriptionSync *usecase.SubscriptionSyncService,
) *WebhookHandler {
	return &WebhookHandler{
		logger:           logger,
		eventRepo:        eventRepo,
		attribution:      attribution,
		subscriptionSync: subscriptionSync,
	}
}

// Handle processes provider webhook notifications. A malformed body is
// the only thing answered with a 4xx; every other outcome, including
// pipeline failures, gets a 200 so the provider does not enter a retry
// storm against a bug on our side. Failures land on the audit row and
// are replayed by an operator instead.
func (h *WebhookHandler) Handle(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(http.MaxBytesReader(nil, c.Request().Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("Failed to read webhook body",
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Failed to read request body",
			"code":  "INVALID_REQUEST",
		})
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("Malformed webhook payload",
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Request body is not valid JSON",
			"code":  "MALFORMED_PAYLOAD",
		})
	}

	h.logger.Info("Processing webhook event",
		zap.String("event_id", payload.ID),
		zap.String("object_uuid", payload.UUID),
		zap.String("object_type", payload.ObjectType),
		zap.String("event_type", payload.EventType))

	event := h.recordEvent(ctx, payload, body)

	ev := usecase.InboundEvent{
		EventID:    payload.ID,
		ObjectUUID: payload.UUID,
		ObjectType: payload.ObjectType,
		EventType:  payload.EventType,
	}

	var result usecase.PipelineResult
	switch usecase.ClassifyObjectType(payload.ObjectType) {
	case usecase.ObjectClassPayment:
		if !usecase.IsPaymentEventOfInterest(payload.EventType) {
			result = h.skipEvent(ctx, event, "payment event type not of interest: "+payload.EventType)
			break
		}
		result = h.attribution.Process(ctx, eventRowID(event), ev)
	case usecase.ObjectClassSubscription:
		result = h.subscriptionSync.Process(ctx, eventRowID(event), ev)
	default:
		result = h.skipEvent(ctx, event, "unsupported object type: "+payload.ObjectType)
	}

	h.logger.Info("Webhook event handled",
		zap.String("event_id", payload.ID),
		zap.String("outcome", string(result.Outcome)),
		zap.String("detail", result.Detail))

	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
	})
}

// Alive answers health probes and provider endpoint validation. Some
// providers send GET, HEAD or OPTIONS before enabling an endpoint and
// expect a 2xx back.
func (h *WebhookHandler) Alive(c echo.Context) error {
	return c.String(http.StatusOK, "alive")
}

// recordEvent persists the raw delivery before any processing. The
// write is best effort: losing the audit row is better than bouncing
// the webhook.
func (h *WebhookHandler) recordEvent(ctx context.Context, payload WebhookPayload, body []byte) *model.WebhookEvent {
	event := &model.WebhookEvent{
		ObjectType: payload.ObjectType,
		EventType:  payload.EventType,
		Status:     model.EventStatusReceived,
		Payload:    datatypes.JSON(body),
	}
	if payload.ID != "" {
		event.ProviderEventID = &payload.ID
	}

	if err := h.eventRepo.Record(ctx, event); err != nil {
		h.logger.Error("Failed to record webhook event, continuing without audit row",
			zap.String("event_id", payload.ID),
			zap.Error(err))
		return nil
	}
	return event
}

func (h *WebhookHandler) skipEvent(ctx context.Context, event *model.WebhookEvent, detail string) usecase.PipelineResult {
	if event != nil {
		if err := h.eventRepo.MarkSkipped(ctx, event.ID, detail); err != nil {
			h.logger.Error("Failed to update webhook event status",
				zap.Int64("event_row_id", event.ID),
				zap.Error(err))
		}
	}
	return usecase.PipelineResult{Outcome: usecase.OutcomeSkipped, Detail: detail}
}

func eventRowID(event *model.WebhookEvent) int64 {
	if event == nil {
		return 0
	}
	return event.ID
}

// WebhookPayload is the envelope every provider notification shares.
// Identifier semantics vary across deployments: id names the
// notification itself while uuid names the business object it is about,
// and either may be absent.
type WebhookPayload struct {
	ID         string `json:"id"`
	UUID       string `json:"uuid"`
	ObjectType string `json:"object_type"`
	EventType  string `json:"event_type"`
}
