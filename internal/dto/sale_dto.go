package dto

import "github.com/shopspring/decimal"

// ── Request DTOs ──────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	ID       string          `json:"id"       validate:"required,uuid"`
	Name     string          `json:"name"     validate:"required"`
	Quantity int             `json:"quantity" validate:"required,min=1"`
	Price    decimal.Decimal `json:"price"    validate:"min=0"`
}

type SaleCustomerRequest struct {
	Name  string `json:"name"  validate:"required"`
	Phone string `json:"phone"`
}

type CreateSaleRequest struct {
	Customer     *SaleCustomerRequest `json:"customer"`
	TableID      *string              `json:"table_id" validate:"omitempty,uuid"`
	Type         string               `json:"type"     validate:"required,oneof=dine_in takeaway delivery"`
	Items        []SaleItemRequest    `json:"items"    validate:"required,min=1,dive"`
	Observations string               `json:"observations"`
}

// UpdateSaleRequest maps to the core's typed update commands: only the fields
// present become commands, so unknown or unset fields can never leak into a
// sale.
type UpdateSaleRequest struct {
	Items        *[]SaleItemRequest   `json:"items"        validate:"omitempty,min=1,dive"`
	Status       *string              `json:"status"       validate:"omitempty,oneof=active pending_payment preparing"`
	Customer     *SaleCustomerRequest `json:"customer"`
	Observations *string              `json:"observations"`
}

type PaySaleRequest struct {
	Method string          `json:"method" validate:"required,oneof=cash credit debit pix"`
	Amount decimal.Decimal `json:"amount" validate:"min=0"`
}
