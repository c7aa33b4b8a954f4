package dto

import "github.com/shopspring/decimal"

// SalesReportFilter is bound from the query string of GET /v1/reports/sales.
// Dates are YYYY-MM-DD; both empty means today.
type SalesReportFilter struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// SalesReportResponse aggregates the durable sales history for a period.
// Everything here is computed on read — nothing is stored redundantly.
type SalesReportResponse struct {
	From            string                     `json:"from"`
	To              string                     `json:"to"`
	TotalSales      int                        `json:"total_sales"`
	CancelledSales  int                        `json:"cancelled_sales"`
	TotalRevenue    decimal.Decimal            `json:"total_revenue"`
	TicketAverage   decimal.Decimal            `json:"ticket_average"`
	ByPaymentMethod map[string]decimal.Decimal `json:"by_payment_method"`
	BySaleType      map[string]decimal.Decimal `json:"by_sale_type"`
}

// SessionReportItem is one archived cashier session.
type SessionReportItem struct {
	ID               string          `json:"id"`
	Operator         string          `json:"operator"`
	OpenedAt         string          `json:"opened_at"`
	ClosedAt         string          `json:"closed_at"`
	InitialAmount    decimal.Decimal `json:"initial_amount"`
	FinalAmount      decimal.Decimal `json:"final_amount"`
	ClosingBalance   decimal.Decimal `json:"closing_balance"`
	Difference       decimal.Decimal `json:"difference"` // declared − expected
	TotalSales       int             `json:"total_sales"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	TotalSupplies    decimal.Decimal `json:"total_supplies"`
}

type SessionReportListResponse struct {
	Data  []SessionReportItem `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}
