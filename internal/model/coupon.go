package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon is a discount code.
// Type: "percent" (Value is 0–100) | "fixed" (Value is a currency amount).
// MaxUses = 0 means unlimited.
type Coupon struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code        string    `gorm:"uniqueIndex;not null"`
	Type        string    `gorm:"type:varchar(10);not null"`
	Value       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Description *string
	ExpiresAt   *time.Time
	MaxUses     int  `gorm:"not null;default:0"`
	Uses        int  `gorm:"not null;default:0"`
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
