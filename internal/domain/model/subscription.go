package model

import (
	"time"
)

// Subscription mirrors the provider's view of a subscription. Rows are
// upserted keyed on the provider subscription id; last writer wins. The
// status vocabulary is the provider's own, so it stays an open string.
type Subscription struct {
	ID                     int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider               string     `gorm:"size:50;not null;default:'recurly'" json:"provider"`
	ProviderSubscriptionID string     `gorm:"uniqueIndex;not null;size:100" json:"provider_subscription_id"`
	AccountCode            string     `gorm:"size:100" json:"account_code"`
	Email                  string     `gorm:"not null;size:255;index" json:"email"`
	PlanCode               string     `gorm:"not null;size:100" json:"plan_code"`
	ShopID                 *int64     `gorm:"index" json:"shop_id,omitempty"`
	Status                 string     `gorm:"size:50;not null;default:'active'" json:"status"`
	CurrentPeriodEnd       *time.Time `json:"current_period_end,omitempty"`
	CreatedAt              time.Time  `gorm:"default:now()" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}
