package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentResolver fetches the authoritative transaction for a webhook's
// identifiers, trying alternate auth schemes and lookup strategies until
// one succeeds.
type PaymentResolver interface {
	ResolvePayment(ctx context.Context, in ResolveInput) (*ResolvedPayment, error)
}

// SubscriptionResolver is the subscription-lifecycle counterpart.
type SubscriptionResolver interface {
	ResolveSubscription(ctx context.Context, in ResolveInput) (*ResolvedSubscription, error)
}

// ResolveInput carries the identifiers extracted from a webhook payload.
// Either field may be empty; the resolver orders its strategies around
// whichever are present.
type ResolveInput struct {
	ID   string `json:"id,omitempty"`
	UUID string `json:"uuid,omitempty"`
}

// ResolvedPayment is a provider transaction normalized down to the fields
// the attribution pipeline consumes.
type ResolvedPayment struct {
	TransactionID  string                 `json:"transaction_id"`
	InvoiceID      string                 `json:"invoice_id,omitempty"`
	SubscriptionID string                 `json:"subscription_id,omitempty"`
	Email          string                 `json:"email"`
	Amount         decimal.Decimal        `json:"amount"`
	Currency       string                 `json:"currency"`
	CollectedAt    *time.Time             `json:"collected_at,omitempty"`
	Raw            map[string]interface{} `json:"raw,omitempty"`
}

// ResolvedSubscription is a provider subscription normalized for the
// upsert pipeline.
type ResolvedSubscription struct {
	SubscriptionID   string                 `json:"subscription_id"`
	AccountCode      string                 `json:"account_code,omitempty"`
	Email            string                 `json:"email"`
	PlanCode         string                 `json:"plan_code"`
	Status           string                 `json:"status"`
	CurrentPeriodEnd *time.Time             `json:"current_period_end,omitempty"`
	Raw              map[string]interface{} `json:"raw,omitempty"`
}

// ProviderError carries the upstream failure detail for one API call.
type ProviderError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unauthorized reports whether the provider rejected the credentials or
// scheme. The resolver retries these with the alternate auth scheme.
func (e *ProviderError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// NotFound reports whether the resource does not exist under the tried
// lookup. The resolver advances to the next strategy without an auth retry.
func (e *ProviderError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
