package repository

import (
	"context"

	"cardapio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CouponRepository defines persistence operations for discount coupons.
type CouponRepository interface {
	Create(ctx context.Context, c *model.Coupon) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	FindByCode(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	Update(ctx context.Context, c *model.Coupon) error
	// IncrementUses bumps the usage counter atomically on redemption.
	IncrementUses(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type couponRepository struct{ db *gorm.DB }

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, c *model.Coupon) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *couponRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	var c model.Coupon
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *couponRepository) FindByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var c model.Coupon
	if err := r.db.WithContext(ctx).Where("upper(code) = upper(?)", code).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *couponRepository) List(ctx context.Context) ([]model.Coupon, error) {
	var list []model.Coupon
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&list).Error
	return list, err
}

func (r *couponRepository) Update(ctx context.Context, c *model.Coupon) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *couponRepository) IncrementUses(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("id = ?", id).
		Update("uses", gorm.Expr("uses + 1")).Error
}

func (r *couponRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Coupon{}).Where("id = ?", id).Update("active", false).Error
}
