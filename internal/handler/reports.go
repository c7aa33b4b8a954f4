package handler

import (
	"net/http"
	"strconv"

	"cardapio/internal/apierror"
	"cardapio/internal/dto"
	"cardapio/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct{ svc service.ReportService }

func NewReportHandler(svc service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Sales godoc
// @Summary Relatório de vendas por período
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param from query string false "Data inicial YYYY-MM-DD"
// @Param to query string false "Data final YYYY-MM-DD"
// @Success 200 {object} dto.SalesReportResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/reports/sales [get]
func (h *ReportHandler) Sales(c *gin.Context) {
	var filter dto.SalesReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetros de busca inválidos"))
		return
	}
	resp, err := h.svc.SalesReport(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Sessions returns the paginated archive of closed cashier sessions.
func (h *ReportHandler) Sessions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	resp, err := h.svc.SessionReports(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
