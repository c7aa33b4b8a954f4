package dto

import "github.com/google/uuid"

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreateClientRequest struct {
	Name    string  `json:"name"    validate:"required,min=2,max=150"`
	Phone   string  `json:"phone"   validate:"required,min=8,max=20"`
	Email   *string `json:"email"   validate:"omitempty,email"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

type UpdateClientRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=2,max=150"`
	Phone   *string `json:"phone"   validate:"omitempty,min=8,max=20"`
	Email   *string `json:"email"   validate:"omitempty,email"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

// ClientFilter is bound from the query string of GET /v1/clients.
type ClientFilter struct {
	Search string `form:"search"` // matches name or phone
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=50"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type ClientResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone"`
	Email   *string   `json:"email,omitempty"`
	Address *string   `json:"address,omitempty"`
	Notes   *string   `json:"notes,omitempty"`
	Active  bool      `json:"active"`
}

type ClientListResponse struct {
	Data  []ClientResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}
