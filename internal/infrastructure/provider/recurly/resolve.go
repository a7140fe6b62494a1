package recurly

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	domainErrors "github.com/loopware/billing-webhook/internal/domain/errors"
	"github.com/loopware/billing-webhook/internal/domain/provider"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// lookup is one way of addressing a resource on the provider API. The
// identifier shape varies per deployment, so resolution walks an ordered
// list of lookups until one yields a usable resource.
type lookup struct {
	name string
	path string
	// list marks search endpoints that wrap results in a {"data": [...]}
	// envelope instead of returning the resource directly.
	list bool
}

// ResolvePayment fetches the transaction behind a webhook payload. Each
// lookup is retried once with the alternate auth scheme when the first
// is rejected; a 404 moves straight to the next lookup. A response
// without an account email counts as not found. When every lookup is
// exhausted the caller gets a ResolveError, never a raw upstream error.
func (c *Client) ResolvePayment(ctx context.Context, in provider.ResolveInput) (*provider.ResolvedPayment, error) {
	lookups := paymentLookups(in)
	if len(lookups) == 0 {
		return nil, domainErrors.NewMissingIdentifierError()
	}

	raw, err := c.resolve(ctx, lookups, in.UUID)
	if err != nil {
		return nil, err
	}

	return paymentFromResource(raw), nil
}

// ResolveSubscription fetches the subscription behind a webhook payload
// using the same lookup chain semantics as ResolvePayment.
func (c *Client) ResolveSubscription(ctx context.Context, in provider.ResolveInput) (*provider.ResolvedSubscription, error) {
	lookups := subscriptionLookups(in)
	if len(lookups) == 0 {
		return nil, domainErrors.NewMissingIdentifierError()
	}

	raw, err := c.resolve(ctx, lookups, in.UUID)
	if err != nil {
		return nil, err
	}

	return subscriptionFromResource(raw), nil
}

func paymentLookups(in provider.ResolveInput) []lookup {
	var lookups []lookup
	if in.ID != "" {
		lookups = append(lookups, lookup{
			name: "transaction_by_id",
			path: "/transactions/" + url.PathEscape(in.ID),
		})
	}
	if in.UUID != "" {
		lookups = append(lookups,
			lookup{
				name: "transaction_by_composite_uuid",
				path: "/transactions/uuid-" + url.PathEscape(in.UUID),
			},
			lookup{
				name: "transaction_search_by_uuid",
				path: "/transactions?uuid=" + url.QueryEscape(in.UUID) + "&limit=1",
				list: true,
			},
		)
	}
	return lookups
}

func subscriptionLookups(in provider.ResolveInput) []lookup {
	var lookups []lookup
	if in.ID != "" {
		lookups = append(lookups, lookup{
			name: "subscription_by_id",
			path: "/subscriptions/" + url.PathEscape(in.ID),
		})
	}
	if in.UUID != "" {
		lookups = append(lookups,
			lookup{
				name: "subscription_by_composite_uuid",
				path: "/subscriptions/uuid-" + url.PathEscape(in.UUID),
			},
			lookup{
				name: "subscription_search_by_uuid",
				path: "/subscriptions?uuid=" + url.QueryEscape(in.UUID) + "&limit=1",
				list: true,
			},
		)
	}
	return lookups
}

// resolve walks the lookup chain and returns the first resource that
// carries an account email. Context errors abort the chain immediately;
// anything else is absorbed into the Unresolved error returned at the
// end.
func (c *Client) resolve(ctx context.Context, lookups []lookup, objectUUID string) (map[string]interface{}, error) {
	var lastErr error
	for _, l := range lookups {
		raw, err := c.runLookup(ctx, l)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}

		if extractEmail(raw) == "" {
			c.logger.Warn("Resolved resource has no account email, trying next lookup",
				zap.String("lookup", l.name))
			lastErr = &provider.ProviderError{
				Code:       "MISSING_ACCOUNT",
				Message:    "resource has no account email",
				StatusCode: http.StatusNotFound,
			}
			continue
		}

		return raw, nil
	}

	return nil, domainErrors.NewUnresolvedError(objectUUID, lastErr)
}

// runLookup executes one lookup, retrying with the alternate auth scheme
// only when the provider rejects the credentials. Not-found responses
// advance the chain without an auth retry.
func (c *Client) runLookup(ctx context.Context, l lookup) (map[string]interface{}, error) {
	raw, err := c.doGet(ctx, l.path, authBasic)
	if err != nil {
		var provErr *provider.ProviderError
		if errors.As(err, &provErr) && provErr.Unauthorized() {
			c.logger.Info("Auth scheme rejected, retrying with alternate",
				zap.String("lookup", l.name))
			raw, err = c.doGet(ctx, l.path, authBearer)
		}
	}
	if err != nil {
		return nil, err
	}

	if l.list {
		return firstFromEnvelope(raw)
	}
	return raw, nil
}

func firstFromEnvelope(raw map[string]interface{}) (map[string]interface{}, error) {
	data, ok := raw["data"].([]interface{})
	if !ok || len(data) == 0 {
		return nil, &provider.ProviderError{
			Code:       "EMPTY_RESULT",
			Message:    "search returned no results",
			StatusCode: http.StatusNotFound,
		}
	}
	first, ok := data[0].(map[string]interface{})
	if !ok {
		return nil, &provider.ProviderError{
			Code:    "PARSE_ERROR",
			Message: "unexpected search result shape",
		}
	}
	return first, nil
}

func paymentFromResource(raw map[string]interface{}) *provider.ResolvedPayment {
	p := &provider.ResolvedPayment{
		TransactionID: getStringFromMap(raw, "id"),
		Email:         extractEmail(raw),
		Currency:      getStringFromMap(raw, "currency"),
		Raw:           raw,
	}
	if p.TransactionID == "" {
		p.TransactionID = getStringFromMap(raw, "uuid")
	}

	if amount, ok := raw["amount"].(float64); ok {
		p.Amount = decimal.NewFromFloat(amount)
	}

	if invoice, ok := raw["invoice"].(map[string]interface{}); ok {
		p.InvoiceID = getStringFromMap(invoice, "id")
	}
	if p.InvoiceID == "" {
		p.InvoiceID = getStringFromMap(raw, "invoice_id")
	}

	if sub, ok := raw["subscription"].(map[string]interface{}); ok {
		p.SubscriptionID = getStringFromMap(sub, "id")
	}
	if p.SubscriptionID == "" {
		p.SubscriptionID = getStringFromMap(raw, "subscription_id")
	}

	p.CollectedAt = extractTimestamp(raw, "collected_at", "created_at")

	return p
}

func subscriptionFromResource(raw map[string]interface{}) *provider.ResolvedSubscription {
	s := &provider.ResolvedSubscription{
		SubscriptionID: getStringFromMap(raw, "id"),
		Email:          extractEmail(raw),
		Status:         getStringFromMap(raw, "state"),
		Raw:            raw,
	}
	if s.SubscriptionID == "" {
		s.SubscriptionID = getStringFromMap(raw, "uuid")
	}
	if s.Status == "" {
		s.Status = getStringFromMap(raw, "status")
	}

	if account, ok := raw["account"].(map[string]interface{}); ok {
		s.AccountCode = getStringFromMap(account, "code")
	}
	if s.AccountCode == "" {
		s.AccountCode = getStringFromMap(raw, "account_code")
	}

	if plan, ok := raw["plan"].(map[string]interface{}); ok {
		s.PlanCode = getStringFromMap(plan, "code")
	}
	if s.PlanCode == "" {
		s.PlanCode = getStringFromMap(raw, "plan_code")
	}

	s.CurrentPeriodEnd = extractTimestamp(raw, "current_period_ends_at", "current_period_end")

	return s
}

// extractEmail digs out the account email. Different lookup endpoints
// nest the account at different depths, so all known paths are checked.
func extractEmail(raw map[string]interface{}) string {
	if account, ok := raw["account"].(map[string]interface{}); ok {
		if email := getStringFromMap(account, "email"); email != "" {
			return email
		}
	}
	if invoice, ok := raw["invoice"].(map[string]interface{}); ok {
		if account, ok := invoice["account"].(map[string]interface{}); ok {
			if email := getStringFromMap(account, "email"); email != "" {
				return email
			}
		}
	}
	if sub, ok := raw["subscription"].(map[string]interface{}); ok {
		if account, ok := sub["account"].(map[string]interface{}); ok {
			if email := getStringFromMap(account, "email"); email != "" {
				return email
			}
		}
	}
	return getStringFromMap(raw, "email")
}

func extractTimestamp(raw map[string]interface{}, keys ...string) *time.Time {
	for _, key := range keys {
		if v := getStringFromMap(raw, key); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return &t
			}
		}
	}
	return nil
}
