package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"cardapio/internal/dto"
	"cardapio/internal/model"
	"cardapio/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCouponNotFound  = errors.New("cupom não encontrado")
	ErrCouponInactive  = errors.New("cupom inativo")
	ErrCouponExpired   = errors.New("cupom expirado")
	ErrCouponExhausted = errors.New("cupom esgotado")
)

// CouponService defines business operations for discount coupons.
type CouponService interface {
	Create(ctx context.Context, req dto.CreateCouponRequest) (*dto.CouponResponse, error)
	List(ctx context.Context) ([]dto.CouponResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateCouponRequest) (*dto.CouponResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	// Validate checks a code against an order total and computes the discount
	// without consuming a use.
	Validate(ctx context.Context, req dto.ValidateCouponRequest) (*dto.ValidateCouponResponse, error)
	// Redeem validates and then consumes one use of the coupon.
	Redeem(ctx context.Context, req dto.ValidateCouponRequest) (*dto.ValidateCouponResponse, error)
}

type couponService struct {
	repo repository.CouponRepository
}

func NewCouponService(repo repository.CouponRepository) CouponService {
	return &couponService{repo: repo}
}

func mapCoupon(c *model.Coupon) *dto.CouponResponse {
	return &dto.CouponResponse{
		ID:          c.ID,
		Code:        c.Code,
		Type:        c.Type,
		Value:       c.Value,
		Description: c.Description,
		ExpiresAt:   c.ExpiresAt,
		MaxUses:     c.MaxUses,
		Uses:        c.Uses,
		Active:      c.Active,
	}
}

func (s *couponService) Create(ctx context.Context, req dto.CreateCouponRequest) (*dto.CouponResponse, error) {
	code := strings.ToUpper(req.Code)
	if existing, err := s.repo.FindByCode(ctx, code); err == nil && existing != nil {
		return nil, errors.New("já existe um cupom com esse código")
	}
	if req.Type == "percent" && req.Value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, errors.New("percentual não pode exceder 100")
	}
	c := &model.Coupon{
		Code:        code,
		Type:        req.Type,
		Value:       req.Value,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
		MaxUses:     req.MaxUses,
		Active:      true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return mapCoupon(c), nil
}

func (s *couponService) List(ctx context.Context) ([]dto.CouponResponse, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CouponResponse, 0, len(coupons))
	for i := range coupons {
		out = append(out, *mapCoupon(&coupons[i]))
	}
	return out, nil
}

func (s *couponService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateCouponRequest) (*dto.CouponResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	if req.Value != nil {
		if c.Type == "percent" && req.Value.GreaterThan(decimal.NewFromInt(100)) {
			return nil, errors.New("percentual não pode exceder 100")
		}
		c.Value = *req.Value
	}
	if req.Description != nil {
		c.Description = req.Description
	}
	if req.ExpiresAt != nil {
		c.ExpiresAt = req.ExpiresAt
	}
	if req.MaxUses != nil {
		c.MaxUses = *req.MaxUses
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return mapCoupon(c), nil
}

func (s *couponService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCouponNotFound
		}
		return err
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *couponService) Validate(ctx context.Context, req dto.ValidateCouponRequest) (*dto.ValidateCouponResponse, error) {
	c, err := s.lookupValid(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	return buildDiscount(c, req.OrderTotal), nil
}

func (s *couponService) Redeem(ctx context.Context, req dto.ValidateCouponRequest) (*dto.ValidateCouponResponse, error) {
	c, err := s.lookupValid(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementUses(ctx, c.ID); err != nil {
		return nil, err
	}
	return buildDiscount(c, req.OrderTotal), nil
}

func (s *couponService) lookupValid(ctx context.Context, code string) (*model.Coupon, error) {
	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	if !c.Active {
		return nil, ErrCouponInactive
	}
	if c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt) {
		return nil, ErrCouponExpired
	}
	if c.MaxUses > 0 && c.Uses >= c.MaxUses {
		return nil, ErrCouponExhausted
	}
	return c, nil
}

// buildDiscount computes the discount for an order total. The discount never
// exceeds the total, so NewTotal is never negative.
func buildDiscount(c *model.Coupon, orderTotal decimal.Decimal) *dto.ValidateCouponResponse {
	var discount decimal.Decimal
	switch c.Type {
	case "percent":
		discount = orderTotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
	default: // fixed
		discount = c.Value
	}
	if discount.GreaterThan(orderTotal) {
		discount = orderTotal
	}
	return &dto.ValidateCouponResponse{
		Code:     c.Code,
		Discount: discount,
		NewTotal: orderTotal.Sub(discount),
	}
}
