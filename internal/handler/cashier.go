package handler

import (
	"errors"
	"net/http"

	"cardapio/internal/apierror"
	"cardapio/internal/cashier"
	"cardapio/internal/dto"
	"cardapio/internal/middleware"
	"cardapio/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CashierHandler exposes the cashier session state machine over HTTP. All
// writes funnel into the manager, which serializes them; the handler only
// translates wire shapes and maps domain error codes to HTTP statuses.
type CashierHandler struct {
	manager     *cashier.Manager
	dispatcher  *worker.Dispatcher
	reportEmail string
}

func NewCashierHandler(manager *cashier.Manager, dispatcher *worker.Dispatcher, reportEmail string) *CashierHandler {
	return &CashierHandler{manager: manager, dispatcher: dispatcher, reportEmail: reportEmail}
}

// writeCashierError maps a domain error to its HTTP status:
// not_found → 404, validation → 400, invalid_operation / insufficient_funds → 409.
func writeCashierError(c *gin.Context, err error) {
	var derr *cashier.Error
	if !errors.As(err, &derr) {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro interno do servidor"))
		return
	}
	status := http.StatusConflict
	switch derr.Code {
	case cashier.CodeNotFound:
		status = http.StatusNotFound
	case cashier.CodeValidation:
		status = http.StatusBadRequest
	}
	c.JSON(status, apierror.NewCoded(string(derr.Code), derr.Message))
}

func (h *CashierHandler) state() dto.CashierStateResponse {
	resp := dto.CashierStateResponse{
		IsOpen:            h.manager.IsOpen(),
		ActiveSales:       h.manager.ActiveSales(),
		ActiveTables:      h.manager.ActiveTables(),
		TotalActiveSales:  h.manager.TotalActiveSales(),
		TotalActiveTables: h.manager.TotalActiveTables(),
	}
	if s, ok := h.manager.Session(); ok {
		resp.Session = &s
	}
	if derr := h.manager.LastError(); derr != nil {
		msg := derr.Message
		code := string(derr.Code)
		resp.Error = &msg
		resp.ErrorCode = &code
	}
	return resp
}

// State godoc
// @Summary Estado atual do caixa
// @Tags cashier
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CashierStateResponse
// @Router /v1/cashier [get]
func (h *CashierHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.state())
}

// Open godoc
// @Summary Abre uma nova sessão de caixa
// @Tags cashier
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenCashierRequest true "Dados de abertura"
// @Success 201 {object} cashier.Session
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cashier/open [post]
func (h *CashierHandler) Open(c *gin.Context) {
	var req dto.OpenCashierRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	session, err := h.manager.OpenCashier(claims.Username, req.InitialAmount, req.Observations)
	if err != nil {
		writeCashierError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// CloseSession godoc
// @Summary Fecha a sessão de caixa com conferência do valor declarado
// @Tags cashier
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseCashierRequest true "Dados de fechamento"
// @Success 200 {object} cashier.Session
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cashier/close [post]
func (h *CashierHandler) CloseSession(c *gin.Context) {
	var req dto.CloseCashierRequest
	if !bindAndValidate(c, &req) {
		return
	}
	session, err := h.manager.CloseCashier(req.FinalAmount, req.Observations, cashier.CloseOptions{
		ForceDiscardActive: req.ForceDiscardActive,
	})
	if err != nil {
		writeCashierError(c, err)
		return
	}

	// Report generation is best-effort: a queue hiccup never undoes the close.
	payload := worker.SessionReportPayload{Session: session, ToEmail: h.reportEmail}
	if err := h.dispatcher.EnqueueSessionReport(c.Request.Context(), payload); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("cashier: failed to enqueue session report")
	}

	c.JSON(http.StatusOK, session)
}

// Withdraw registers a sangria against the open session.
func (h *CashierHandler) Withdraw(c *gin.Context) {
	var req dto.CashMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.manager.WithdrawCash(req.Amount, req.Description); err != nil {
		writeCashierError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.state())
}

// Supply registers a suprimento against the open session.
func (h *CashierHandler) Supply(c *gin.Context) {
	var req dto.CashMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.manager.SupplyCash(req.Amount, req.Description); err != nil {
		writeCashierError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.state())
}

// ClearError acknowledges the sticky error surfaced in the state response.
func (h *CashierHandler) ClearError(c *gin.Context) {
	h.manager.ClearError()
	c.JSON(http.StatusOK, h.state())
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func saleItemsFromRequest(reqs []dto.SaleItemRequest) ([]cashier.SaleItem, error) {
	items := make([]cashier.SaleItem, 0, len(reqs))
	for _, r := range reqs {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, errors.New("ID de item inválido: " + r.ID)
		}
		items = append(items, cashier.SaleItem{
			ID:       id,
			Name:     r.Name,
			Quantity: r.Quantity,
			Price:    r.Price,
		})
	}
	return items, nil
}

// CreateSale godoc
// @Summary Cria uma venda na sessão aberta
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateSaleRequest true "Dados da venda"
// @Success 201 {object} cashier.Sale
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cashier/sales [post]
func (h *CashierHandler) CreateSale(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	items, err := saleItemsFromRequest(req.Items)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	input := cashier.SaleInput{
		Type:         cashier.SaleType(req.Type),
		Items:        items,
		Observations: req.Observations,
	}
	if req.Customer != nil {
		input.Customer = &cashier.Customer{Name: req.Customer.Name, Phone: req.Customer.Phone}
	}
	if req.TableID != nil {
		tableID, err := uuid.Parse(*req.TableID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("ID de mesa inválido"))
			return
		}
		input.TableID = &tableID
	}

	sale, err := h.manager.CreateSale(input)
	if err != nil {
		writeCashierError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// UpdateSale applies the commands implied by the present fields of the
// request. Absent fields change nothing.
func (h *CashierHandler) UpdateSale(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.UpdateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var cmds []cashier.UpdateCommand
	if req.Items != nil {
		items, err := saleItemsFromRequest(*req.Items)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return
		}
		cmds = append(cmds, cashier.UpdateItems{Items: items})
	}
	if req.Status != nil {
		cmds = append(cmds, cashier.UpdateStatus{Status: cashier.SaleStatus(*req.Status)})
	}
	if req.Customer != nil {
		cmds = append(cmds, cashier.UpdateCustomer{
			Customer: &cashier.Customer{Name: req.Customer.Name, Phone: req.Customer.Phone},
		})
	}
	if req.Observations != nil {
		cmds = append(cmds, cashier.UpdateObservations{Text: *req.Observations})
	}
	if len(cmds) == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("Nenhum campo para atualizar"))
		return
	}

	sale, err := h.manager.UpdateSale(id, cmds...)
	if err != nil {
		writeCashierError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// PaySale godoc
// @Summary Registra o pagamento e conclui a venda
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da venda"
// @Param body body dto.PaySaleRequest true "Dados do pagamento"
// @Success 200 {object} cashier.Sale
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cashier/sales/{id}/pay [post]
func (h *CashierHandler) PaySale(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.PaySaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sale, err := h.manager.ProcessSalePayment(id, cashier.PaymentInput{
		Method: req.Method,
		Amount: req.Amount,
	})
	if err != nil {
		writeCashierError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// CancelSale moves an unpaid sale to the history as cancelled.
func (h *CashierHandler) CancelSale(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	sale, err := h.manager.CancelSale(id)
	if err != nil {
		writeCashierError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// ActiveSales lists the working set of the open session.
func (h *CashierHandler) ActiveSales(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.manager.ActiveSales()})
}

// SalesHistory lists the terminal sales recorded since startup rehydration.
func (h *CashierHandler) SalesHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.manager.SalesHistory()})
}

// ── Tables ────────────────────────────────────────────────────────────────────

// OpenTable occupies a table for a customer.
func (h *CashierHandler) OpenTable(c *gin.Context) {
	var req dto.OpenTableRequest
	if !bindAndValidate(c, &req) {
		return
	}
	table, err := h.manager.OpenTable(cashier.TableInput{
		Number:   req.Number,
		Capacity: req.Capacity,
		Customer: req.Customer,
	})
	if err != nil {
		writeCashierError(c, err)
		return
	}
	c.JSON(http.StatusCreated, table)
}

// CloseTable frees a table; its pending sale (if any) is detached.
func (h *CashierHandler) CloseTable(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	table, err := h.manager.CloseTable(id)
	if err != nil {
		writeCashierError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// ListTables returns every tracked table, occupied or not.
func (h *CashierHandler) ListTables(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.manager.ActiveTables()})
}
