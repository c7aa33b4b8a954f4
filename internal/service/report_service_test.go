package service_test

import (
	"context"
	"testing"
	"time"

	"cardapio/internal/cashier"
	"cardapio/internal/dto"
	"cardapio/internal/model"
	"cardapio/internal/repository"
	"cardapio/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── In-memory history fakes ──────────────────────────────────────────────────

type fakeSaleHistory struct {
	records []model.SaleRecord
}

func (f *fakeSaleHistory) Append(_ context.Context, _ cashier.Sale) error { return nil }

func (f *fakeSaleHistory) Load(_ context.Context) ([]cashier.Sale, error) { return nil, nil }

func (f *fakeSaleHistory) ListPeriod(_ context.Context, from, to time.Time) ([]model.SaleRecord, error) {
	var out []model.SaleRecord
	for _, rec := range f.records {
		if !rec.SoldAt.Before(from) && rec.SoldAt.Before(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

var _ repository.SaleHistoryRepository = (*fakeSaleHistory)(nil)

type fakeSessionArchive struct {
	records []model.SessionRecord
}

func (f *fakeSessionArchive) Archive(_ context.Context, _ cashier.Session) error { return nil }

func (f *fakeSessionArchive) List(_ context.Context, page, limit int) ([]model.SessionRecord, int64, error) {
	total := int64(len(f.records))
	start := (page - 1) * limit
	if start >= len(f.records) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(f.records) {
		end = len(f.records)
	}
	return f.records[start:end], total, nil
}

var _ repository.SessionArchiveRepository = (*fakeSessionArchive)(nil)

func saleRecord(day string, status, saleType, method string, total int64) model.SaleRecord {
	soldAt, _ := time.Parse("2006-01-02", day)
	rec := model.SaleRecord{
		ID:     uuid.New(),
		Type:   saleType,
		Status: status,
		Total:  decimal.NewFromInt(total),
		SoldAt: soldAt.Add(12 * time.Hour),
	}
	if method != "" {
		rec.PaymentMethod = &method
	}
	return rec
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestSalesReportAggregation(t *testing.T) {
	history := &fakeSaleHistory{records: []model.SaleRecord{
		saleRecord("2026-03-10", "completed", "dine_in", "cash", 80),
		saleRecord("2026-03-10", "completed", "dine_in", "card", 40),
		saleRecord("2026-03-11", "completed", "takeaway", "cash", 30),
		saleRecord("2026-03-11", "cancelled", "dine_in", "", 55),
	}}
	svc := service.NewReportService(history, &fakeSessionArchive{})

	resp, err := svc.SalesReport(context.Background(), dto.SalesReportFilter{
		From: "2026-03-10",
		To:   "2026-03-11",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalSales)
	assert.Equal(t, 1, resp.CancelledSales)
	// Cancelled sales never count toward revenue.
	assert.True(t, resp.TotalRevenue.Equal(decimal.NewFromInt(150)))
	assert.True(t, resp.ByPaymentMethod["cash"].Equal(decimal.NewFromInt(110)))
	assert.True(t, resp.ByPaymentMethod["card"].Equal(decimal.NewFromInt(40)))
	assert.True(t, resp.BySaleType["dine_in"].Equal(decimal.NewFromInt(120)))
	assert.True(t, resp.BySaleType["takeaway"].Equal(decimal.NewFromInt(30)))
	assert.True(t, resp.TicketAverage.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "2026-03-10", resp.From)
	assert.Equal(t, "2026-03-11", resp.To)
}

func TestSalesReportTicketAverageRounds(t *testing.T) {
	history := &fakeSaleHistory{records: []model.SaleRecord{
		saleRecord("2026-03-10", "completed", "dine_in", "cash", 10),
		saleRecord("2026-03-10", "completed", "dine_in", "cash", 10),
		saleRecord("2026-03-10", "completed", "dine_in", "cash", 5),
	}}
	svc := service.NewReportService(history, &fakeSessionArchive{})

	resp, err := svc.SalesReport(context.Background(), dto.SalesReportFilter{
		From: "2026-03-10",
		To:   "2026-03-10",
	})
	require.NoError(t, err)
	assert.True(t, resp.TicketAverage.Equal(decimal.RequireFromString("8.33")))
}

func TestSalesReportPeriodBoundsInclusive(t *testing.T) {
	history := &fakeSaleHistory{records: []model.SaleRecord{
		saleRecord("2026-03-09", "completed", "dine_in", "cash", 10),
		saleRecord("2026-03-10", "completed", "dine_in", "cash", 20),
		saleRecord("2026-03-11", "completed", "dine_in", "cash", 40),
	}}
	svc := service.NewReportService(history, &fakeSessionArchive{})

	resp, err := svc.SalesReport(context.Background(), dto.SalesReportFilter{
		From: "2026-03-10",
		To:   "2026-03-10",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalSales)
	assert.True(t, resp.TotalRevenue.Equal(decimal.NewFromInt(20)))
}

func TestSalesReportDefaultsToLocalToday(t *testing.T) {
	now := time.Now()
	history := &fakeSaleHistory{records: []model.SaleRecord{{
		ID:     uuid.New(),
		Type:   "dine_in",
		Status: "completed",
		Total:  decimal.NewFromInt(25),
		SoldAt: now,
	}}}
	svc := service.NewReportService(history, &fakeSessionArchive{})

	// No bounds: the window is the local calendar day, so a sale made just
	// now must fall inside it regardless of the server's UTC offset.
	resp, err := svc.SalesReport(context.Background(), dto.SalesReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalSales)
	assert.Equal(t, now.Format("2006-01-02"), resp.From)
	assert.Equal(t, now.Format("2006-01-02"), resp.To)
}

func TestSalesReportRejectsBadPeriod(t *testing.T) {
	svc := service.NewReportService(&fakeSaleHistory{}, &fakeSessionArchive{})

	_, err := svc.SalesReport(context.Background(), dto.SalesReportFilter{From: "10/03/2026"})
	assert.ErrorContains(t, err, "data inicial inválida")

	_, err = svc.SalesReport(context.Background(), dto.SalesReportFilter{From: "2026-03-10", To: "marco"})
	assert.ErrorContains(t, err, "data final inválida")

	_, err = svc.SalesReport(context.Background(), dto.SalesReportFilter{From: "2026-03-11", To: "2026-03-10"})
	assert.ErrorContains(t, err, "data final anterior à data inicial")
}

func TestSessionReportsDifference(t *testing.T) {
	opened, _ := time.Parse(time.RFC3339, "2026-03-10T08:00:00Z")
	closed, _ := time.Parse(time.RFC3339, "2026-03-10T18:00:00Z")
	archive := &fakeSessionArchive{records: []model.SessionRecord{{
		ID:               uuid.New(),
		Operator:         "maria",
		OpenedAt:         opened,
		ClosedAt:         closed,
		InitialAmount:    decimal.NewFromInt(100),
		FinalAmount:      decimal.NewFromInt(195),
		ClosingBalance:   decimal.NewFromInt(200),
		TotalSales:       7,
		TotalRevenue:     decimal.NewFromInt(120),
		TotalWithdrawals: decimal.NewFromInt(20),
	}}}
	svc := service.NewReportService(&fakeSaleHistory{}, archive)

	resp, err := svc.SessionReports(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)

	item := resp.Data[0]
	assert.Equal(t, "maria", item.Operator)
	// Declared drawer amount minus the expected balance.
	assert.True(t, item.Difference.Equal(decimal.NewFromInt(-5)))
	assert.Equal(t, "2026-03-10T08:00:00Z", item.OpenedAt)
	assert.Equal(t, "2026-03-10T18:00:00Z", item.ClosedAt)
	assert.Equal(t, int64(1), resp.Total)
}

func TestSessionReportsClampsPagination(t *testing.T) {
	archive := &fakeSessionArchive{}
	for i := 0; i < 3; i++ {
		archive.records = append(archive.records, model.SessionRecord{ID: uuid.New(), Operator: "ana"})
	}
	svc := service.NewReportService(&fakeSaleHistory{}, archive)

	resp, err := svc.SessionReports(context.Background(), 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)
	assert.Len(t, resp.Data, 3)
}
