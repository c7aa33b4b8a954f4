package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleRecord is the durable form of a completed or cancelled sale. Records
// are append-only: once written they are never updated, so the sales history
// remains a trustworthy ledger across session closes and restarts.
// Status: "completed" | "cancelled"
type SaleRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type          string    `gorm:"type:varchar(20);not null"`
	Status        string    `gorm:"type:varchar(20);not null;index"`
	CustomerName  *string
	CustomerPhone *string
	TableID       *uuid.UUID `gorm:"type:uuid"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod *string         `gorm:"type:varchar(20)"`
	PaymentAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Observations  *string
	SoldAt        time.Time `gorm:"index;not null"`
	CreatedAt     time.Time

	Items []SaleRecordItem `gorm:"foreignKey:SaleRecordID"`
}

// SaleRecordItem is one line of an archived sale.
type SaleRecordItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleRecordID uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null"`
	Name         string          `gorm:"not null"`
	Quantity     int             `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

// SessionRecord archives a closed cashier session for reporting.
type SessionRecord struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Operator         string          `gorm:"not null"`
	OpenedAt         time.Time       `gorm:"index;not null"`
	ClosedAt         time.Time       `gorm:"not null"`
	InitialAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FinalAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ClosingBalance   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalSales       int             `gorm:"not null"`
	TotalRevenue     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalWithdrawals decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalSupplies    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Observations     *string
	CreatedAt        time.Time
}
