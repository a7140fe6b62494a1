package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/loopware/billing-webhook/internal/domain/model"
	"github.com/loopware/billing-webhook/internal/domain/repository"
	"github.com/loopware/billing-webhook/internal/usecase"
	"go.uber.org/zap"
)

const defaultEventListLimit = 50

// OpsHandler exposes the operator surface over the webhook audit trail:
// inspecting stored events and replaying the ones that failed.
type OpsHandler struct {
	logger    *zap.Logger
	eventRepo repository.WebhookEventRepository
	replay    *usecase.EventReplayService
}

// NewOpsHandler creates a new OpsHandler instance
func NewOpsHandler(
	logger *zap.Logger,
	eventRepo repository.WebhookEventRepository,
	replay *usecase.EventReplayService,
) *OpsHandler {
	return &OpsHandler{
		logger:    logger,
		eventRepo: eventRepo,
		replay:    replay,
	}
}

// ListEvents handles GET /api/v1/ops/events. Without a status filter it
// returns the unprocessed backlog (received and failed rows), oldest
// first.
func (h *OpsHandler) ListEvents(c echo.Context) error {
	ctx := c.Request().Context()

	limit := defaultEventListLimit
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "invalid limit parameter",
				"code":  "INVALID_LIMIT",
			})
		}
		limit = parsed
	}

	var (
		events []*model.WebhookEvent
		err    error
	)
	if status := c.QueryParam("status"); status != "" {
		validStatuses := map[string]bool{
			string(model.EventStatusReceived):  true,
			string(model.EventStatusDuplicate): true,
			string(model.EventStatusProcessed): true,
			string(model.EventStatusSkipped):   true,
			string(model.EventStatusFailed):    true,
		}
		if !validStatuses[status] {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "invalid status, must be one of: received, duplicate, processed, skipped, failed",
				"code":  "INVALID_STATUS",
			})
		}
		events, err = h.eventRepo.ListByStatus(ctx, model.EventStatus(status), limit)
	} else {
		events, err = h.eventRepo.ListUnprocessed(ctx, limit)
	}
	if err != nil {
		h.logger.Error("Failed to list webhook events",
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to list webhook events",
			"code":  "EVENT_LIST_FAILED",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"events": events,
		"count":  len(events),
	})
}

// ReplayEvent handles POST /api/v1/ops/events/:id/replay. The stored
// payload is pushed through the pipeline again and the new outcome is
// returned.
func (h *OpsHandler) ReplayEvent(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid event id",
			"code":  "INVALID_EVENT_ID",
		})
	}

	result, err := h.replay.Replay(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "webhook event not found",
				"code":  "EVENT_NOT_FOUND",
			})
		}
		h.logger.Error("Failed to replay webhook event",
			zap.Int64("event_row_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to replay webhook event",
			"code":  "REPLAY_FAILED",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"event_id": id,
		"result":   result,
	})
}
