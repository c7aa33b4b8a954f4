package cashier

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus tracks a sale through its lifecycle.
// active | pending_payment | preparing are working statuses;
// completed | cancelled are terminal and only ever appear in history.
type SaleStatus string

const (
	SaleActive         SaleStatus = "active"
	SalePendingPayment SaleStatus = "pending_payment"
	SalePreparing      SaleStatus = "preparing"
	SaleCompleted      SaleStatus = "completed"
	SaleCancelled      SaleStatus = "cancelled"
)

// Terminal reports whether the status is final (immutable sale).
func (s SaleStatus) Terminal() bool {
	return s == SaleCompleted || s == SaleCancelled
}

// SaleType: dine_in | takeaway | delivery
type SaleType string

const (
	DineIn   SaleType = "dine_in"
	Takeaway SaleType = "takeaway"
	Delivery SaleType = "delivery"
)

// MovementType: withdrawal (sangria) | supply (suprimento)
type MovementType string

const (
	Withdrawal MovementType = "withdrawal"
	Supply     MovementType = "supply"
)

// SaleItem is one line of a sale. Price is the unit price; the sale total is
// always recomputed from its items, never trusted from the caller.
type SaleItem struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Subtotal returns Price × Quantity for this line.
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Customer is an optional reference attached to a sale or table.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// Payment holds the metadata recorded when a sale is paid. Amount is
// informational (receipt/change display); the ledger always credits the
// sale's own total.
type Payment struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
	PaidAt time.Time       `json:"paidAt"`
}

// Sale is one in-progress or completed transaction.
type Sale struct {
	ID           uuid.UUID       `json:"id"`
	Customer     *Customer       `json:"customer,omitempty"`
	TableID      *uuid.UUID      `json:"table,omitempty"`
	Type         SaleType        `json:"type"`
	Items        []SaleItem      `json:"items"`
	Total        decimal.Decimal `json:"total"`
	Status       SaleStatus      `json:"status"`
	Timestamp    time.Time       `json:"timestamp"`
	Observations string          `json:"observations,omitempty"`
	Payment      *Payment        `json:"payment,omitempty"`
}

// ComputeTotal derives a sale total from its items. Pure function: calling it
// twice over the same items yields the same value.
func ComputeTotal(items []SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// CashMovement is one immutable entry in the session ledger. Movements are
// never edited or deleted after creation.
type CashMovement struct {
	Type        MovementType    `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Table is one physical table / comanda. IsOccupied, Customer and StartTime
// are set and cleared together.
type Table struct {
	ID            uuid.UUID  `json:"id"`
	Number        int        `json:"number"`
	Capacity      int        `json:"capacity"`
	IsOccupied    bool       `json:"isOccupied"`
	Customer      *string    `json:"customer,omitempty"`
	StartTime     *time.Time `json:"startTime,omitempty"`
	CurrentSaleID *uuid.UUID `json:"currentSale,omitempty"`
}

// Session is one cashier open-to-close operating period.
//
// Invariant: CurrentBalance == InitialAmount + TotalRevenue + TotalSupplies −
// TotalWithdrawals for every reachable state.
type Session struct {
	ID               uuid.UUID        `json:"id"`
	Operator         string           `json:"operator"`
	OpenTime         time.Time        `json:"openTime"`
	CloseTime        *time.Time       `json:"closeTime,omitempty"`
	InitialAmount    decimal.Decimal  `json:"initialAmount"`
	FinalAmount      *decimal.Decimal `json:"finalAmount,omitempty"`
	CurrentBalance   decimal.Decimal  `json:"currentBalance"`
	TotalSales       int              `json:"totalSales"`
	TotalRevenue     decimal.Decimal  `json:"totalRevenue"`
	TotalWithdrawals decimal.Decimal  `json:"totalWithdrawals"`
	TotalSupplies    decimal.Decimal  `json:"totalSupplies"`
	Movements        []CashMovement   `json:"movements"`
	Observations     string           `json:"observations,omitempty"`
}

// Snapshot is the persisted shape of the manager's working state. It must
// round-trip losslessly across a process restart.
type Snapshot struct {
	Session      *Session `json:"session"`
	ActiveSales  []Sale   `json:"activeSales"`
	ActiveTables []Table  `json:"activeTables"`
}
