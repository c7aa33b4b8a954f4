package repository

import (
	"context"

	"cardapio/internal/cashier"
	"cardapio/internal/model"

	"gorm.io/gorm"
)

// SessionArchiveRepository stores closed cashier sessions. It satisfies
// cashier.SessionArchive; listing feeds the session history report.
type SessionArchiveRepository interface {
	cashier.SessionArchive
	List(ctx context.Context, page, limit int) ([]model.SessionRecord, int64, error)
}

type sessionArchiveRepo struct{ db *gorm.DB }

func NewSessionArchiveRepository(db *gorm.DB) SessionArchiveRepository {
	return &sessionArchiveRepo{db: db}
}

func (r *sessionArchiveRepo) Archive(ctx context.Context, s cashier.Session) error {
	rec := &model.SessionRecord{
		ID:               s.ID,
		Operator:         s.Operator,
		OpenedAt:         s.OpenTime,
		InitialAmount:    s.InitialAmount,
		ClosingBalance:   s.CurrentBalance,
		TotalSales:       s.TotalSales,
		TotalRevenue:     s.TotalRevenue,
		TotalWithdrawals: s.TotalWithdrawals,
		TotalSupplies:    s.TotalSupplies,
	}
	if s.CloseTime != nil {
		rec.ClosedAt = *s.CloseTime
	}
	if s.FinalAmount != nil {
		rec.FinalAmount = *s.FinalAmount
	}
	if s.Observations != "" {
		obs := s.Observations
		rec.Observations = &obs
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *sessionArchiveRepo) List(ctx context.Context, page, limit int) ([]model.SessionRecord, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.SessionRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []model.SessionRecord
	err := r.db.WithContext(ctx).
		Order("closed_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&records).Error
	return records, total, err
}
