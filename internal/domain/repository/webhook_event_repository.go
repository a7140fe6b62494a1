package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/loopware/billing-webhook/internal/domain/model"
)

// WebhookEventRepository handles the audit / dead-letter trail. Record is
// called before processing; exactly one of the Mark methods afterwards.
type WebhookEventRepository interface {
	Record(ctx context.Context, event *model.WebhookEvent) error
	GetByID(ctx context.Context, id int64) (*model.WebhookEvent, error)
	MarkProcessed(ctx context.Context, id int64, attemptID *uuid.UUID) error
	MarkDuplicate(ctx context.Context, id int64) error
	MarkSkipped(ctx context.Context, id int64, detail string) error
	MarkFailed(ctx context.Context, id int64, detail string) error
	ListByStatus(ctx context.Context, status model.EventStatus, limit int) ([]*model.WebhookEvent, error)
	ListUnprocessed(ctx context.Context, limit int) ([]*model.WebhookEvent, error)
}
