package dto

import (
	"github.com/shopspring/decimal"

	"cardapio/internal/cashier"
)

// Amount bounds are deliberately NOT validator tags here: the cashier core
// owns those rules and reports them with its own user-facing messages.

// ── Request DTOs ──────────────────────────────────────────────────────────────

type OpenCashierRequest struct {
	InitialAmount decimal.Decimal `json:"initial_amount"`
	Observations  string          `json:"observations"`
}

type CloseCashierRequest struct {
	FinalAmount        decimal.Decimal `json:"final_amount"`
	Observations       string          `json:"observations"`
	ForceDiscardActive bool            `json:"force_discard_active"`
}

type CashMovementRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"required,min=3"`
}

type OpenTableRequest struct {
	Number   int    `json:"number"   validate:"required,min=1"`
	Capacity int    `json:"capacity" validate:"min=0"`
	Customer string `json:"customer"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

// CashierStateResponse is the collaborator-facing read surface: the full
// snapshot plus the derived counters and the sticky error string.
type CashierStateResponse struct {
	IsOpen            bool              `json:"isOpen"`
	Session           *cashier.Session  `json:"session"`
	ActiveSales       []cashier.Sale    `json:"activeSales"`
	ActiveTables      []cashier.Table   `json:"activeTables"`
	TotalActiveSales  int               `json:"totalActiveSales"`
	TotalActiveTables int               `json:"totalActiveTables"`
	Error             *string           `json:"error"`
	ErrorCode         *string           `json:"errorCode,omitempty"`
}
