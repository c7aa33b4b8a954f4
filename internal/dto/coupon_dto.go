package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreateCouponRequest struct {
	Code        string          `json:"code"        validate:"required,min=3,max=30,alphanum"`
	Type        string          `json:"type"        validate:"required,oneof=percent fixed"`
	Value       decimal.Decimal `json:"value"       validate:"required,gt=0"`
	Description *string         `json:"description"`
	ExpiresAt   *time.Time      `json:"expires_at"`
	MaxUses     int             `json:"max_uses"    validate:"min=0"`
}

type UpdateCouponRequest struct {
	Value       *decimal.Decimal `json:"value"       validate:"omitempty,gt=0"`
	Description *string          `json:"description"`
	ExpiresAt   *time.Time       `json:"expires_at"`
	MaxUses     *int             `json:"max_uses"    validate:"omitempty,min=0"`
	Active      *bool            `json:"active"`
}

type ValidateCouponRequest struct {
	Code       string          `json:"code"        validate:"required"`
	OrderTotal decimal.Decimal `json:"order_total" validate:"required,gt=0"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type CouponResponse struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Type        string          `json:"type"`
	Value       decimal.Decimal `json:"value"`
	Description *string         `json:"description,omitempty"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	MaxUses     int             `json:"max_uses"`
	Uses        int             `json:"uses"`
	Active      bool            `json:"active"`
}

type ValidateCouponResponse struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	NewTotal decimal.Decimal `json:"new_total"`
}
