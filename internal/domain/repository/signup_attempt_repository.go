package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/loopware/billing-webhook/internal/domain/model"
)

// SignupAttemptRepository is the persistence contract of the attribution
// pipeline. The service never creates signup attempts; the intake flow owns
// that side.
type SignupAttemptRepository interface {
	// ExistsByProviderEventID reports whether any attempt already carries
	// the given provider event id. Advisory dedup check.
	ExistsByProviderEventID(ctx context.Context, eventID string) (bool, error)

	// FindLatestPendingByEmail returns the most recently created pending
	// attempt for the normalized email with created_at >= since, or nil.
	FindLatestPendingByEmail(ctx context.Context, email string, since time.Time) (*model.SignupAttempt, error)

	// MarkPaid conditionally applies the update map to the attempt while it
	// is still pending. Returns false when no pending row matched.
	MarkPaid(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (bool, error)
}
