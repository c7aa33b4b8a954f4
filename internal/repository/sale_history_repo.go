package repository

import (
	"context"
	"time"

	"cardapio/internal/cashier"
	"cardapio/internal/model"

	"gorm.io/gorm"
)

// SaleHistoryRepository persists completed/cancelled sales. It satisfies
// cashier.HistorySink so the core can append without knowing about GORM, and
// adds the period queries the report service needs.
//
// Records are append-only: there is deliberately no Update or Delete.
type SaleHistoryRepository interface {
	cashier.HistorySink
	ListPeriod(ctx context.Context, from, to time.Time) ([]model.SaleRecord, error)
}

type saleHistoryRepo struct{ db *gorm.DB }

func NewSaleHistoryRepository(db *gorm.DB) SaleHistoryRepository {
	return &saleHistoryRepo{db: db}
}

func (r *saleHistoryRepo) Append(ctx context.Context, sale cashier.Sale) error {
	return r.db.WithContext(ctx).Create(recordFromSale(sale)).Error
}

func (r *saleHistoryRepo) Load(ctx context.Context) ([]cashier.Sale, error) {
	var records []model.SaleRecord
	err := r.db.WithContext(ctx).Preload("Items").Order("sold_at ASC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	sales := make([]cashier.Sale, 0, len(records))
	for i := range records {
		sales = append(sales, saleFromRecord(&records[i]))
	}
	return sales, nil
}

func (r *saleHistoryRepo) ListPeriod(ctx context.Context, from, to time.Time) ([]model.SaleRecord, error) {
	var records []model.SaleRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("sold_at >= ? AND sold_at < ?", from, to).
		Order("sold_at ASC").
		Find(&records).Error
	return records, err
}

// ── Conversions ──────────────────────────────────────────────────────────────

func recordFromSale(sale cashier.Sale) *model.SaleRecord {
	rec := &model.SaleRecord{
		ID:      sale.ID,
		Type:    string(sale.Type),
		Status:  string(sale.Status),
		TableID: sale.TableID,
		Total:   sale.Total,
		SoldAt:  sale.Timestamp,
	}
	if sale.Customer != nil {
		name := sale.Customer.Name
		rec.CustomerName = &name
		if sale.Customer.Phone != "" {
			phone := sale.Customer.Phone
			rec.CustomerPhone = &phone
		}
	}
	if sale.Payment != nil {
		method := sale.Payment.Method
		amount := sale.Payment.Amount
		rec.PaymentMethod = &method
		rec.PaymentAmount = &amount
	}
	if sale.Observations != "" {
		obs := sale.Observations
		rec.Observations = &obs
	}
	for _, it := range sale.Items {
		rec.Items = append(rec.Items, model.SaleRecordItem{
			SaleRecordID: sale.ID,
			ProductID:    it.ID,
			Name:         it.Name,
			Quantity:     it.Quantity,
			UnitPrice:    it.Price,
		})
	}
	return rec
}

func saleFromRecord(rec *model.SaleRecord) cashier.Sale {
	sale := cashier.Sale{
		ID:        rec.ID,
		Type:      cashier.SaleType(rec.Type),
		Status:    cashier.SaleStatus(rec.Status),
		TableID:   rec.TableID,
		Total:     rec.Total,
		Timestamp: rec.SoldAt,
	}
	if rec.CustomerName != nil {
		sale.Customer = &cashier.Customer{Name: *rec.CustomerName}
		if rec.CustomerPhone != nil {
			sale.Customer.Phone = *rec.CustomerPhone
		}
	}
	if rec.PaymentMethod != nil && rec.PaymentAmount != nil {
		sale.Payment = &cashier.Payment{
			Method: *rec.PaymentMethod,
			Amount: *rec.PaymentAmount,
			PaidAt: rec.SoldAt,
		}
	}
	if rec.Observations != nil {
		sale.Observations = *rec.Observations
	}
	for _, it := range rec.Items {
		sale.Items = append(sale.Items, cashier.SaleItem{
			ID:       it.ProductID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.UnitPrice,
		})
	}
	return sale
}
