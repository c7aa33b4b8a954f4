// Package cashier implements the point-of-sale session state machine: one
// open-to-close operating period, its active sales and tables, and the
// append-only cash movement ledger.
//
// A Manager is an explicitly constructed aggregate — no package-level state.
// All operations run synchronously under one mutex, so readers always observe
// a fully-formed post-mutation state. Persistence is a side channel: every
// mutation enqueues a snapshot write, and write failures surface as
// PersistenceWarning without touching the in-memory state, which is the
// source of truth for the running session.
package cashier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Config wires the manager's ports. Store defaults to an in-memory store;
// History and Archive are optional.
type Config struct {
	Store     SessionStore
	History   HistorySink
	Archive   SessionArchive
	QueueSize int
	OnWarning func(PersistenceWarning)
}

// Manager owns the cashier session lifecycle. Construct with NewManager and
// release with Close.
type Manager struct {
	mu           sync.Mutex
	session      *Session
	activeSales  []Sale
	activeTables []Table
	history      []Sale
	lastErr      *Error

	sink    HistorySink
	archive SessionArchive
	writer  *snapshotWriter
	onWarn  func(PersistenceWarning)
}

// NewManager rehydrates state from the store and history sink. A missing
// snapshot starts a fresh manager; a store read failure is a construction
// error so a misconfigured backend is caught at startup, not mid-shift.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}

	m := &Manager{
		sink:    cfg.History,
		archive: cfg.Archive,
		onWarn:  cfg.OnWarning,
	}

	snap, found, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cashier: load snapshot: %w", err)
	}
	if found {
		m.session = snap.Session
		m.activeSales = snap.ActiveSales
		m.activeTables = snap.ActiveTables
	}

	if m.sink != nil {
		history, err := m.sink.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("cashier: load sales history: %w", err)
		}
		m.history = history
	}

	m.writer = newSnapshotWriter(store, cfg.QueueSize, cfg.OnWarning)
	return m, nil
}

// Close drains pending snapshot writes. The manager must not be used after.
func (m *Manager) Close() {
	m.writer.close()
}

// ── Session lifecycle ─────────────────────────────────────────────────────────

// OpenCashier starts a new session. Only one session may be open at a time;
// opening while open leaves the existing session untouched.
func (m *Manager) OpenCashier(operator string, initialAmount decimal.Decimal, observations string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isOpenLocked() {
		return Session{}, m.fail(errInvalidOperation("Caixa já está aberto"))
	}
	if initialAmount.LessThanOrEqual(decimal.Zero) {
		return Session{}, m.fail(errValidation("Valor inicial deve ser positivo"))
	}

	m.session = &Session{
		ID:               uuid.New(),
		Operator:         operator,
		OpenTime:         time.Now(),
		InitialAmount:    initialAmount,
		CurrentBalance:   initialAmount,
		TotalRevenue:     decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		TotalSupplies:    decimal.Zero,
		Observations:     observations,
	}
	m.activeSales = nil
	m.activeTables = nil

	m.persist("open_cashier")
	log.Info().Str("operator", operator).Str("initial_amount", initialAmount.String()).Msg("cashier: session opened")
	return *cloneSession(m.session), nil
}

// CloseOptions controls the close policy for sales still in the working set.
type CloseOptions struct {
	// ForceDiscardActive drops sales that were never paid or cancelled.
	// Without it, closing with active sales is refused so in-progress
	// orders are not silently lost.
	ForceDiscardActive bool
}

// CloseCashier ends the open session. Completed sales already in history
// remain there; the working sets are cleared.
func (m *Manager) CloseCashier(finalAmount decimal.Decimal, observations string, opts CloseOptions) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOpenLocked() {
		return Session{}, m.fail(errInvalidOperation("Caixa não está aberto"))
	}
	if len(m.activeSales) > 0 && !opts.ForceDiscardActive {
		return Session{}, m.fail(errInvalidOperation("Existem vendas em aberto"))
	}

	now := time.Now()
	m.session.CloseTime = &now
	m.session.FinalAmount = &finalAmount
	if observations != "" {
		if m.session.Observations != "" {
			m.session.Observations += "\n"
		}
		m.session.Observations += observations
	}

	if discarded := len(m.activeSales); discarded > 0 {
		log.Warn().Int("discarded_sales", discarded).Msg("cashier: forced close discarded active sales")
	}
	m.activeSales = nil
	m.activeTables = nil

	if m.archive != nil {
		if err := m.archive.Archive(context.Background(), *cloneSession(m.session)); err != nil {
			m.warn("close_cashier", "cashier: session archive failed", err)
		}
	}

	m.persist("close_cashier")
	log.Info().Str("session_id", m.session.ID.String()).Str("final_amount", finalAmount.String()).Msg("cashier: session closed")
	return *cloneSession(m.session), nil
}

// ── Sale lifecycle ────────────────────────────────────────────────────────────

// SaleInput carries the caller-supplied fields for a new sale. The total is
// never taken from the caller.
type SaleInput struct {
	Customer     *Customer
	TableID      *uuid.UUID
	Type         SaleType
	Items        []SaleItem
	Observations string
}

// CreateSale appends a new active sale to the working set.
func (m *Manager) CreateSale(input SaleInput) (Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOpenLocked() {
		return Sale{}, m.fail(errInvalidOperation("Caixa não está aberto"))
	}
	if err := validateItems(input.Items); err != nil {
		return Sale{}, m.fail(err)
	}
	switch input.Type {
	case DineIn, Takeaway, Delivery:
	default:
		return Sale{}, m.fail(errValidation("Tipo de venda inválido"))
	}

	sale := Sale{
		ID:           uuid.New(),
		Customer:     input.Customer,
		Type:         input.Type,
		Items:        cloneItems(input.Items),
		Total:        ComputeTotal(input.Items),
		Status:       SaleActive,
		Timestamp:    time.Now(),
		Observations: input.Observations,
	}

	if input.TableID != nil {
		table := m.findTableLocked(*input.TableID)
		if table == nil {
			return Sale{}, m.fail(errNotFound("Mesa não encontrada"))
		}
		sale.TableID = input.TableID
		saleID := sale.ID
		table.CurrentSaleID = &saleID
	}

	m.activeSales = append(m.activeSales, sale)
	m.persist("create_sale")
	return *cloneSale(&sale), nil
}

// UpdateCommand is one explicit, typed change to an active sale. Commands are
// validated before any of them is applied, so a rejected update mutates
// nothing.
type UpdateCommand interface {
	validate() *Error
	apply(s *Sale)
}

// UpdateItems replaces the item list and recomputes the total.
type UpdateItems struct{ Items []SaleItem }

func (u UpdateItems) validate() *Error { return validateItems(u.Items) }
func (u UpdateItems) apply(s *Sale) {
	s.Items = cloneItems(u.Items)
	s.Total = ComputeTotal(u.Items)
}

// UpdateStatus moves the sale between working statuses. Terminal statuses go
// through ProcessSalePayment / CancelSale only.
type UpdateStatus struct{ Status SaleStatus }

func (u UpdateStatus) validate() *Error {
	switch u.Status {
	case SaleActive, SalePendingPayment, SalePreparing:
		return nil
	default:
		return errValidation("Status de venda inválido")
	}
}
func (u UpdateStatus) apply(s *Sale) { s.Status = u.Status }

// UpdateCustomer replaces the customer reference; nil detaches it.
type UpdateCustomer struct{ Customer *Customer }

func (u UpdateCustomer) validate() *Error { return nil }
func (u UpdateCustomer) apply(s *Sale) {
	if u.Customer == nil {
		s.Customer = nil
		return
	}
	c := *u.Customer
	s.Customer = &c
}

// UpdateObservations replaces the free-text notes.
type UpdateObservations struct{ Text string }

func (u UpdateObservations) validate() *Error { return nil }
func (u UpdateObservations) apply(s *Sale)    { s.Observations = u.Text }

// UpdateSale applies typed update commands to a sale still in the working set.
func (m *Manager) UpdateSale(id uuid.UUID, cmds ...UpdateCommand) (Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sale := m.findSaleLocked(id)
	if sale == nil {
		return Sale{}, m.fail(errNotFound("Venda não encontrada"))
	}
	for _, cmd := range cmds {
		if err := cmd.validate(); err != nil {
			return Sale{}, m.fail(err)
		}
	}
	for _, cmd := range cmds {
		cmd.apply(sale)
	}

	m.persist("update_sale")
	return *cloneSale(sale), nil
}

// PaymentInput is the caller-supplied payment metadata. Amount is recorded
// for receipt/change display only — the ledger credits the sale total.
type PaymentInput struct {
	Method string
	Amount decimal.Decimal
}

// ProcessSalePayment completes a sale: it leaves the working set, enters the
// history, and its recomputed total credits the session balance.
func (m *Manager) ProcessSalePayment(id uuid.UUID, payment PaymentInput) (Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOpenLocked() {
		return Sale{}, m.fail(errInvalidOperation("Caixa não está aberto"))
	}
	sale := m.findSaleLocked(id)
	if sale == nil {
		return Sale{}, m.fail(errNotFound("Venda não encontrada"))
	}

	// Recompute from line items so a drifted Total field can never reach
	// the ledger.
	total := ComputeTotal(sale.Items)
	sale.Total = total
	sale.Status = SaleCompleted
	sale.Payment = &Payment{Method: payment.Method, Amount: payment.Amount, PaidAt: time.Now()}

	completed := *cloneSale(sale)
	m.removeSaleLocked(id)
	m.detachSaleFromTableLocked(id)
	m.appendHistoryLocked("process_sale_payment", completed)

	m.session.TotalSales++
	m.session.TotalRevenue = m.session.TotalRevenue.Add(total)
	m.session.CurrentBalance = m.session.CurrentBalance.Add(total)

	m.persist("process_sale_payment")
	return completed, nil
}

// CancelSale moves an active sale to history with no financial effect.
func (m *Manager) CancelSale(id uuid.UUID) (Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sale := m.findSaleLocked(id)
	if sale == nil {
		return Sale{}, m.fail(errNotFound("Venda não encontrada"))
	}

	sale.Status = SaleCancelled
	cancelled := *cloneSale(sale)
	m.removeSaleLocked(id)
	m.detachSaleFromTableLocked(id)
	m.appendHistoryLocked("cancel_sale", cancelled)

	m.persist("cancel_sale")
	return cancelled, nil
}

// ── Cash movements ────────────────────────────────────────────────────────────

// WithdrawCash records a sangria. The balance can never be driven negative:
// an excessive amount fails and leaves the session untouched.
func (m *Manager) WithdrawCash(amount decimal.Decimal, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOpenLocked() {
		return m.fail(errInvalidOperation("Caixa não está aberto"))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return m.fail(errValidation("Valor deve ser maior que zero"))
	}
	if amount.GreaterThan(m.session.CurrentBalance) {
		return m.fail(errInsufficientFunds("Saldo insuficiente"))
	}

	m.session.CurrentBalance = m.session.CurrentBalance.Sub(amount)
	m.session.TotalWithdrawals = m.session.TotalWithdrawals.Add(amount)
	m.session.Movements = append(m.session.Movements, CashMovement{
		Type:        Withdrawal,
		Amount:      amount,
		Description: description,
		Timestamp:   time.Now(),
	})

	m.persist("withdraw_cash")
	return nil
}

// SupplyCash records a suprimento. No upper bound applies.
func (m *Manager) SupplyCash(amount decimal.Decimal, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOpenLocked() {
		return m.fail(errInvalidOperation("Caixa não está aberto"))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return m.fail(errValidation("Valor deve ser maior que zero"))
	}

	m.session.CurrentBalance = m.session.CurrentBalance.Add(amount)
	m.session.TotalSupplies = m.session.TotalSupplies.Add(amount)
	m.session.Movements = append(m.session.Movements, CashMovement{
		Type:        Supply,
		Amount:      amount,
		Description: description,
		Timestamp:   time.Now(),
	})

	m.persist("supply_cash")
	return nil
}

// ── Table lifecycle ───────────────────────────────────────────────────────────

// TableInput carries the fields for occupying a table.
type TableInput struct {
	Number   int
	Capacity int
	Customer string
}

// OpenTable occupies a table, creating its record on first use. Occupancy,
// customer and start time are set together.
func (m *Manager) OpenTable(input TableInput) (Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOpenLocked() {
		return Table{}, m.fail(errInvalidOperation("Caixa não está aberto"))
	}
	if input.Number <= 0 {
		return Table{}, m.fail(errValidation("Número da mesa deve ser positivo"))
	}

	now := time.Now()
	for i := range m.activeTables {
		if m.activeTables[i].Number != input.Number {
			continue
		}
		if m.activeTables[i].IsOccupied {
			return Table{}, m.fail(errInvalidOperation("Mesa já está ocupada"))
		}
		t := &m.activeTables[i]
		t.IsOccupied = true
		if input.Capacity > 0 {
			t.Capacity = input.Capacity
		}
		customer := input.Customer
		t.Customer = &customer
		t.StartTime = &now
		m.persist("open_table")
		return *t, nil
	}

	customer := input.Customer
	table := Table{
		ID:         uuid.New(),
		Number:     input.Number,
		Capacity:   input.Capacity,
		IsOccupied: true,
		Customer:   &customer,
		StartTime:  &now,
	}
	m.activeTables = append(m.activeTables, table)
	m.persist("open_table")
	return table, nil
}

// CloseTable frees a table. The record stays in the working set as available.
func (m *Manager) CloseTable(id uuid.UUID) (Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table := m.findTableLocked(id)
	if table == nil {
		return Table{}, m.fail(errNotFound("Mesa não encontrada"))
	}

	table.IsOccupied = false
	table.Customer = nil
	table.StartTime = nil
	table.CurrentSaleID = nil

	m.persist("close_table")
	return *table, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

// IsOpen reports whether a session is currently open.
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isOpenLocked()
}

// Session returns a copy of the current or last-closed session, or false when
// the manager has never opened one.
func (m *Manager) Session() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false
	}
	return *cloneSession(m.session), true
}

// ActiveSales returns a copy of the working set, in creation order.
func (m *Manager) ActiveSales() []Sale {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSales(m.activeSales)
}

// ActiveTables returns a copy of the table set, in open order.
func (m *Manager) ActiveTables() []Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneTables(m.activeTables)
}

// SalesHistory returns a copy of the completed/cancelled sales, oldest first.
func (m *Manager) SalesHistory() []Sale {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSales(m.history)
}

// TotalActiveSales is the size of the working set.
func (m *Manager) TotalActiveSales() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activeSales)
}

// TotalActiveTables counts occupied tables.
func (m *Manager) TotalActiveTables() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.activeTables {
		if t.IsOccupied {
			n++
		}
	}
	return n
}

// LastError returns the most recent operation error, if not yet cleared.
func (m *Manager) LastError() *Error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// ClearError resets the error state shown to the operator.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = nil
}

// ── Internals ─────────────────────────────────────────────────────────────────

func (m *Manager) isOpenLocked() bool {
	return m.session != nil && m.session.CloseTime == nil
}

func (m *Manager) findSaleLocked(id uuid.UUID) *Sale {
	for i := range m.activeSales {
		if m.activeSales[i].ID == id {
			return &m.activeSales[i]
		}
	}
	return nil
}

func (m *Manager) removeSaleLocked(id uuid.UUID) {
	for i := range m.activeSales {
		if m.activeSales[i].ID == id {
			m.activeSales = append(m.activeSales[:i], m.activeSales[i+1:]...)
			return
		}
	}
}

func (m *Manager) findTableLocked(id uuid.UUID) *Table {
	for i := range m.activeTables {
		if m.activeTables[i].ID == id {
			return &m.activeTables[i]
		}
	}
	return nil
}

func (m *Manager) detachSaleFromTableLocked(saleID uuid.UUID) {
	for i := range m.activeTables {
		t := &m.activeTables[i]
		if t.CurrentSaleID != nil && *t.CurrentSaleID == saleID {
			t.CurrentSaleID = nil
		}
	}
}

func (m *Manager) appendHistoryLocked(op string, sale Sale) {
	m.history = append(m.history, sale)
	if m.sink == nil {
		return
	}
	if err := m.sink.Append(context.Background(), sale); err != nil {
		m.warn(op, "cashier: history write failed", err)
	}
}

// fail records the error as the manager's visible error state and returns it.
func (m *Manager) fail(err *Error) *Error {
	m.lastErr = err
	return err
}

func (m *Manager) warn(op, msg string, err error) {
	log.Warn().Err(err).Str("op", op).Msg(msg)
	if m.onWarn != nil {
		m.onWarn(PersistenceWarning{Op: op, Err: err, Time: time.Now()})
	}
}

// persist enqueues a deep-copied snapshot so later mutations cannot race the
// asynchronous write.
func (m *Manager) persist(op string) {
	m.writer.enqueue(op, Snapshot{
		Session:      cloneSession(m.session),
		ActiveSales:  cloneSales(m.activeSales),
		ActiveTables: cloneTables(m.activeTables),
	})
}

func validateItems(items []SaleItem) *Error {
	if len(items) == 0 {
		return errValidation("Venda deve ter ao menos um item")
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return errValidation("Quantidade do item deve ser positiva")
		}
		if it.Price.IsNegative() {
			return errValidation("Preço do item não pode ser negativo")
		}
	}
	return nil
}

// ── Copy helpers ──────────────────────────────────────────────────────────────

func cloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.CloseTime != nil {
		t := *s.CloseTime
		c.CloseTime = &t
	}
	if s.FinalAmount != nil {
		a := *s.FinalAmount
		c.FinalAmount = &a
	}
	c.Movements = append([]CashMovement(nil), s.Movements...)
	return &c
}

func cloneSale(s *Sale) *Sale {
	c := *s
	c.Items = cloneItems(s.Items)
	if s.Customer != nil {
		cust := *s.Customer
		c.Customer = &cust
	}
	if s.TableID != nil {
		id := *s.TableID
		c.TableID = &id
	}
	if s.Payment != nil {
		p := *s.Payment
		c.Payment = &p
	}
	return &c
}

func cloneItems(items []SaleItem) []SaleItem {
	return append([]SaleItem(nil), items...)
}

func cloneSales(sales []Sale) []Sale {
	out := make([]Sale, 0, len(sales))
	for i := range sales {
		out = append(out, *cloneSale(&sales[i]))
	}
	return out
}

func cloneTables(tables []Table) []Table {
	out := make([]Table, 0, len(tables))
	for _, t := range tables {
		c := t
		if t.Customer != nil {
			name := *t.Customer
			c.Customer = &name
		}
		if t.StartTime != nil {
			st := *t.StartTime
			c.StartTime = &st
		}
		if t.CurrentSaleID != nil {
			id := *t.CurrentSaleID
			c.CurrentSaleID = &id
		}
		out = append(out, c)
	}
	return out
}
