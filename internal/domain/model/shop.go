package model

import "time"

// Shop is the tenant a subscription belongs to. Tenancy is derived from
// the provider plan code, so plan_code is the lookup key.
type Shop struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	PlanCode  string    `gorm:"uniqueIndex;not null;size:100" json:"plan_code"`
	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Shop) TableName() string {
	return "shops"
}
