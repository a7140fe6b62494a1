package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventStatus represents the processing outcome of a webhook delivery
type EventStatus string

const (
	EventStatusReceived  EventStatus = "received"
	EventStatusDuplicate EventStatus = "duplicate"
	EventStatusProcessed EventStatus = "processed"
	EventStatusSkipped   EventStatus = "skipped"
	EventStatusFailed    EventStatus = "failed"
)

// Scan implements sql.Scanner interface
func (e *EventStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*e = EventStatus(v)
	case []byte:
		*e = EventStatus(v)
	default:
		*e = EventStatusReceived
	}
	return nil
}

// Value implements driver.Valuer interface
func (e EventStatus) Value() (driver.Value, error) {
	return string(e), nil
}

// WebhookEvent is the audit row written for every webhook delivery. It
// doubles as the dead-letter queue: failed and skipped rows keep their
// raw payload so operators can replay them without provider redelivery.
// provider_event_id is nullable and deliberately not unique; dedup is
// enforced at the signup attempt layer.
type WebhookEvent struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderEventID *string        `gorm:"size:100;index" json:"provider_event_id,omitempty"`
	ObjectType      string         `gorm:"size:50;index" json:"object_type"`
	EventType       string         `gorm:"size:100;index" json:"event_type"`
	Status          EventStatus    `gorm:"type:webhook_event_status;not null;default:'received';index" json:"status"`
	Payload         datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	Detail          *string        `json:"detail,omitempty"`
	SignupAttemptID *uuid.UUID     `gorm:"type:uuid" json:"signup_attempt_id,omitempty"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
	CreatedAt       time.Time      `gorm:"default:now();index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
