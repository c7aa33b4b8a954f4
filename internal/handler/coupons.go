package handler

import (
	"errors"
	"net/http"

	"cardapio/internal/apierror"
	"cardapio/internal/dto"
	"cardapio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CouponHandler struct{ svc service.CouponService }

func NewCouponHandler(svc service.CouponService) *CouponHandler {
	return &CouponHandler{svc: svc}
}

// writeCouponError distinguishes the rejection causes: unknown code is a 404,
// everything else (inactive, expired, exhausted) is a 409.
func writeCouponError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCouponNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrCouponInactive),
		errors.Is(err, service.ErrCouponExpired),
		errors.Is(err, service.ErrCouponExhausted):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}

// Create registers a new discount code.
func (h *CouponHandler) Create(c *gin.Context) {
	var req dto.CreateCouponRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List returns every coupon with its usage counters.
func (h *CouponHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Update modifies coupon limits and the active flag.
func (h *CouponHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.UpdateCouponRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeCouponError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate disables a coupon without touching its history.
func (h *CouponHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		writeCouponError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Validate godoc
// @Summary Valida um cupom contra o total do pedido sem consumir uso
// @Tags coupons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ValidateCouponRequest true "Código e total do pedido"
// @Success 200 {object} dto.ValidateCouponResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/coupons/validate [post]
func (h *CouponHandler) Validate(c *gin.Context) {
	var req dto.ValidateCouponRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Validate(c.Request.Context(), req)
	if err != nil {
		writeCouponError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Redeem validates the coupon and consumes one use.
func (h *CouponHandler) Redeem(c *gin.Context) {
	var req dto.ValidateCouponRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Redeem(c.Request.Context(), req)
	if err != nil {
		writeCouponError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
