package usecase

import (
	"strings"

	"github.com/google/uuid"
)

// Outcome labels how the pipeline concluded for one webhook delivery.
type Outcome string

const (
	OutcomeAttributed Outcome = "attributed"
	OutcomeSynced     Outcome = "synced"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeNoMatch    Outcome = "no_match"
	OutcomeUnresolved Outcome = "unresolved"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeFailed     Outcome = "failed"
)

// PipelineResult reports the terminal outcome for one webhook delivery.
// The HTTP layer answers 200 regardless; this is what the logs and the
// audit trail see.
type PipelineResult struct {
	Outcome   Outcome    `json:"outcome"`
	AttemptID *uuid.UUID `json:"attempt_id,omitempty"`
	Detail    string     `json:"detail,omitempty"`
}

// InboundEvent carries the envelope fields every provider notification
// shares, regardless of which object it describes.
type InboundEvent struct {
	EventID    string
	ObjectUUID string
	ObjectType string
	EventType  string
}

// ObjectClass routes an event to the pipeline that handles its object.
type ObjectClass string

const (
	ObjectClassPayment      ObjectClass = "payment"
	ObjectClassSubscription ObjectClass = "subscription"
	ObjectClassOther        ObjectClass = "other"
)

// ClassifyObjectType maps a payload object_type onto a pipeline.
func ClassifyObjectType(objectType string) ObjectClass {
	switch strings.ToLower(strings.TrimSpace(objectType)) {
	case "payment", "transaction":
		return ObjectClassPayment
	case "subscription":
		return ObjectClassSubscription
	default:
		return ObjectClassOther
	}
}

// IsPaymentEventOfInterest reports whether a payment event type marks a
// completed charge. Anything else (voids, declines, refunds, pending
// authorizations) is recorded and skipped.
func IsPaymentEventOfInterest(eventType string) bool {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "paid", "succeeded", "collected":
		return true
	default:
		return false
	}
}

// NormalizeEmail lowercases and trims an address so matching is
// insensitive to how the user typed it at signup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
