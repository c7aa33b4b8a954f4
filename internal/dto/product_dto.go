package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name        string          `json:"name"        validate:"required,min=2,max=150"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"       validate:"required,gt=0"`
	CategoryID  string          `json:"category_id" validate:"required,uuid"`
	ImageURL    *string         `json:"image_url"   validate:"omitempty,url"`
	Available   *bool           `json:"available"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=2,max=150"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"       validate:"omitempty,gt=0"`
	CategoryID  *string          `json:"category_id" validate:"omitempty,uuid"`
	ImageURL    *string          `json:"image_url"   validate:"omitempty,url"`
	Available   *bool            `json:"available"`
}

// ProductFilter is bound from the query string of GET /v1/products.
type ProductFilter struct {
	CategoryID string `form:"category_id"`
	Search     string `form:"search"`
	OnlyActive bool   `form:"only_active,default=true"`
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=50"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Category    string          `json:"category,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Available   bool            `json:"available"`
	Active      bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
