package service

import (
	"context"
	"errors"
	"time"

	"cardapio/internal/dto"
	"cardapio/internal/repository"

	"github.com/shopspring/decimal"
)

const reportDateLayout = "2006-01-02"

// ReportService computes read-only aggregations over the durable sales and
// session history.
type ReportService interface {
	SalesReport(ctx context.Context, filter dto.SalesReportFilter) (*dto.SalesReportResponse, error)
	SessionReports(ctx context.Context, page, limit int) (*dto.SessionReportListResponse, error)
}

type reportService struct {
	sales    repository.SaleHistoryRepository
	sessions repository.SessionArchiveRepository
}

func NewReportService(sales repository.SaleHistoryRepository, sessions repository.SessionArchiveRepository) ReportService {
	return &reportService{sales: sales, sessions: sessions}
}

func (s *reportService) SalesReport(ctx context.Context, filter dto.SalesReportFilter) (*dto.SalesReportResponse, error) {
	from, to, err := parsePeriod(filter.From, filter.To)
	if err != nil {
		return nil, err
	}

	records, err := s.sales.ListPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}

	resp := &dto.SalesReportResponse{
		From:            from.Format(reportDateLayout),
		To:              to.AddDate(0, 0, -1).Format(reportDateLayout),
		ByPaymentMethod: map[string]decimal.Decimal{},
		BySaleType:      map[string]decimal.Decimal{},
	}
	for i := range records {
		rec := &records[i]
		if rec.Status == "cancelled" {
			resp.CancelledSales++
			continue
		}
		resp.TotalSales++
		resp.TotalRevenue = resp.TotalRevenue.Add(rec.Total)
		if rec.PaymentMethod != nil {
			resp.ByPaymentMethod[*rec.PaymentMethod] = resp.ByPaymentMethod[*rec.PaymentMethod].Add(rec.Total)
		}
		resp.BySaleType[rec.Type] = resp.BySaleType[rec.Type].Add(rec.Total)
	}
	if resp.TotalSales > 0 {
		resp.TicketAverage = resp.TotalRevenue.Div(decimal.NewFromInt(int64(resp.TotalSales))).Round(2)
	}
	return resp, nil
}

func (s *reportService) SessionReports(ctx context.Context, page, limit int) (*dto.SessionReportListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	records, total, err := s.sessions.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SessionReportItem, 0, len(records))
	for i := range records {
		rec := &records[i]
		items = append(items, dto.SessionReportItem{
			ID:               rec.ID.String(),
			Operator:         rec.Operator,
			OpenedAt:         rec.OpenedAt.Format(time.RFC3339),
			ClosedAt:         rec.ClosedAt.Format(time.RFC3339),
			InitialAmount:    rec.InitialAmount,
			FinalAmount:      rec.FinalAmount,
			ClosingBalance:   rec.ClosingBalance,
			Difference:       rec.FinalAmount.Sub(rec.ClosingBalance),
			TotalSales:       rec.TotalSales,
			TotalRevenue:     rec.TotalRevenue,
			TotalWithdrawals: rec.TotalWithdrawals,
			TotalSupplies:    rec.TotalSupplies,
		})
	}
	return &dto.SessionReportListResponse{
		Data:  items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// parsePeriod turns inclusive YYYY-MM-DD bounds into a [from, to) interval.
// Both empty means today.
func parsePeriod(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now()
	// Midnight in the server's timezone, not UTC, so the default window is
	// the local calendar day.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from, to := today, today
	var err error
	if fromStr != "" {
		from, err = time.Parse(reportDateLayout, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("data inicial inválida, use YYYY-MM-DD")
		}
	}
	if toStr != "" {
		to, err = time.Parse(reportDateLayout, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("data final inválida, use YYYY-MM-DD")
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("data final anterior à data inicial")
	}
	return from, to.AddDate(0, 0, 1), nil
}
