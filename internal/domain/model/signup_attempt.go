package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SignupStatus represents the lifecycle state of a signup attempt
type SignupStatus string

const (
	SignupStatusPending SignupStatus = "pending"
	SignupStatusPaid    SignupStatus = "paid"
)

// Scan implements sql.Scanner interface
func (s *SignupStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SignupStatus(v)
	case []byte:
		*s = SignupStatus(v)
	default:
		*s = SignupStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s SignupStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// SignupAttempt represents a signup recorded by the intake flow, waiting
// for a payment to be attributed to it. A row moves pending -> paid at
// most once; once paid it is never re-matched.
type SignupAttempt struct {
	ID                     uuid.UUID       `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ShopID                 *int64          `gorm:"index" json:"shop_id,omitempty"`
	EmployeeCode           *string         `gorm:"size:50" json:"employee_code,omitempty"`
	Email                  string          `gorm:"not null;size:255;index" json:"email"`
	Status                 SignupStatus    `gorm:"type:signup_status;not null;default:'pending';index" json:"status"`
	ProviderEventID        *string         `gorm:"size:100;index" json:"provider_event_id,omitempty"`
	ProviderInvoiceID      *string         `gorm:"size:100" json:"provider_invoice_id,omitempty"`
	ProviderTransactionID  *string         `gorm:"size:100" json:"provider_transaction_id,omitempty"`
	ProviderSubscriptionID *string         `gorm:"size:100" json:"provider_subscription_id,omitempty"`
	Amount                 decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"amount"`
	Currency               string          `gorm:"size:3" json:"currency"`
	CompletedAt            *time.Time      `json:"completed_at,omitempty"`
	CreatedAt              time.Time       `gorm:"default:now();index" json:"created_at"`
	UpdatedAt              time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SignupAttempt) TableName() string {
	return "signup_attempts"
}
