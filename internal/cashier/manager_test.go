package cashier

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), Config{})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func openSession(t *testing.T, m *Manager, initial float64) Session {
	t.Helper()
	s, err := m.OpenCashier("maria", decimal.NewFromFloat(initial), "")
	require.NoError(t, err)
	return s
}

func someItems() []SaleItem {
	return []SaleItem{
		{ID: uuid.New(), Name: "X-Burger", Quantity: 2, Price: decimal.NewFromFloat(25.50)},
		{ID: uuid.New(), Name: "Suco de laranja", Quantity: 1, Price: decimal.NewFromFloat(9)},
	}
}

// assertBalanceIdentity checks the ledger invariant on the current session.
func assertBalanceIdentity(t *testing.T, m *Manager) {
	t.Helper()
	s, ok := m.Session()
	require.True(t, ok)
	expected := s.InitialAmount.
		Add(s.TotalRevenue).
		Add(s.TotalSupplies).
		Sub(s.TotalWithdrawals)
	assert.True(t, s.CurrentBalance.Equal(expected),
		"balance %s != initial+revenue+supplies-withdrawals %s", s.CurrentBalance, expected)
}

// ── Session lifecycle ─────────────────────────────────────────────────────────

func TestOpenCashier(t *testing.T) {
	m := newTestManager(t)

	s := openSession(t, m, 200)
	assert.True(t, m.IsOpen())
	assert.Equal(t, "maria", s.Operator)
	assert.True(t, s.CurrentBalance.Equal(decimal.NewFromInt(200)))
	assert.True(t, s.InitialAmount.Equal(decimal.NewFromInt(200)))
}

func TestOpenCashierAlreadyOpen(t *testing.T) {
	m := newTestManager(t)
	first := openSession(t, m, 200)

	_, err := m.OpenCashier("joao", decimal.NewFromInt(100), "")
	require.Error(t, err)

	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, CodeInvalidOperation, derr.Code)
	assert.Equal(t, "Caixa já está aberto", derr.Message)

	// The existing session is untouched.
	s, ok := m.Session()
	require.True(t, ok)
	assert.Equal(t, first.ID, s.ID)
	assert.Equal(t, "maria", s.Operator)
}

func TestOpenCashierNonPositiveInitialAmount(t *testing.T) {
	m := newTestManager(t)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-50)} {
		_, err := m.OpenCashier("maria", amount, "")
		var derr *Error
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, CodeValidation, derr.Code)
		assert.Equal(t, "Valor inicial deve ser positivo", derr.Message)
		assert.False(t, m.IsOpen())
	}
}

func TestCloseCashier(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)

	closed, err := m.CloseCashier(decimal.NewFromInt(100), "tudo certo", CloseOptions{})
	require.NoError(t, err)
	require.NotNil(t, closed.CloseTime)
	require.NotNil(t, closed.FinalAmount)
	assert.True(t, closed.FinalAmount.Equal(decimal.NewFromInt(100)))
	assert.False(t, m.IsOpen())
}

func TestCloseCashierNotOpen(t *testing.T) {
	m := newTestManager(t)

	_, err := m.CloseCashier(decimal.NewFromInt(10), "", CloseOptions{})
	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, CodeInvalidOperation, derr.Code)
}

func TestCloseCashierRefusesWithActiveSales(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)
	_, err := m.CreateSale(SaleInput{Type: Takeaway, Items: someItems()})
	require.NoError(t, err)

	_, err = m.CloseCashier(decimal.NewFromInt(100), "", CloseOptions{})
	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, CodeInvalidOperation, derr.Code)
	assert.Equal(t, "Existem vendas em aberto", derr.Message)
	assert.True(t, m.IsOpen())
	assert.Equal(t, 1, m.TotalActiveSales())
}

func TestCloseCashierForceDiscardsActiveSales(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)
	_, err := m.CreateSale(SaleInput{Type: Takeaway, Items: someItems()})
	require.NoError(t, err)

	closed, err := m.CloseCashier(decimal.NewFromInt(100), "", CloseOptions{ForceDiscardActive: true})
	require.NoError(t, err)
	assert.False(t, m.IsOpen())
	assert.Empty(t, m.ActiveSales())
	// Discarded sales never touched the ledger.
	assert.True(t, closed.TotalRevenue.IsZero())
	// They do not enter the history either.
	assert.Empty(t, m.SalesHistory())
}

// ── Sale lifecycle ────────────────────────────────────────────────────────────

func TestCreateSaleComputesTotal(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)

	items := someItems()
	sale, err := m.CreateSale(SaleInput{Type: DineIn, Items: items})
	require.NoError(t, err)

	// 2×25.50 + 1×9 = 60
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, SaleActive, sale.Status)
	assert.Equal(t, 1, m.TotalActiveSales())

	// ComputeTotal is idempotent over the same items.
	assert.True(t, ComputeTotal(items).Equal(ComputeTotal(items)))
}

func TestCreateSaleRequiresOpenSession(t *testing.T) {
	m := newTestManager(t)

	_, err := m.CreateSale(SaleInput{Type: DineIn, Items: someItems()})
	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "Caixa não está aberto", derr.Message)
}

func TestCreateSaleRejectsBadInput(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)

	_, err := m.CreateSale(SaleInput{Type: DineIn, Items: nil})
	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, CodeValidation, derr.Code)

	_, err = m.CreateSale(SaleInput{Type: "drive_thru", Items: someItems()})
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "Tipo de venda inválido", derr.Message)

	assert.Zero(t, m.TotalActiveSales())
}

func TestProcessSalePaymentCreditsRecomputedTotal(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)
	sale, err := m.CreateSale(SaleInput{Type: Takeaway, Items: someItems()})
	require.NoError(t, err)

	// The paid amount (cash tendered) must not leak into the ledger.
	paid, err := m.ProcessSalePayment(sale.ID, PaymentInput{Method: "cash", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.Equal(t, SaleCompleted, paid.Status)
	require.NotNil(t, paid.Payment)
	assert.True(t, paid.Payment.Amount.Equal(decimal.NewFromInt(100)))

	s, _ := m.Session()
	assert.Equal(t, 1, s.TotalSales)
	assert.True(t, s.TotalRevenue.Equal(decimal.NewFromInt(60)))
	assert.True(t, s.CurrentBalance.Equal(decimal.NewFromInt(160)))
	assertBalanceIdentity(t, m)

	assert.Empty(t, m.ActiveSales())
	require.Len(t, m.SalesHistory(), 1)
	assert.Equal(t, SaleCompleted, m.SalesHistory()[0].Status)
}

func TestProcessSalePaymentUnknownSale(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)

	_, err := m.ProcessSalePayment(uuid.New(), PaymentInput{Method: "pix"})
	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, CodeNotFound, derr.Code)
	assert.Equal(t, "Venda não encontrada", derr.Message)
}

func TestCancelSaleNoFinancialEffect(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)
	sale, err := m.CreateSale(SaleInput{Type: Delivery, Items: someItems()})
	require.NoError(t, err)

	cancelled, err := m.CancelSale(sale.ID)
	require.NoError(t, err)
	assert.Equal(t, SaleCancelled, cancelled.Status)

	s, _ := m.Session()
	assert.Zero(t, s.TotalSales)
	assert.True(t, s.TotalRevenue.IsZero())
	assert.True(t, s.CurrentBalance.Equal(decimal.NewFromInt(100)))
	require.Len(t, m.SalesHistory(), 1)
	assert.Equal(t, SaleCancelled, m.SalesHistory()[0].Status)
}

func TestUpdateSaleCommands(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)
	sale, err := m.CreateSale(SaleInput{Type: DineIn, Items: someItems()})
	require.NoError(t, err)

	newItems := []SaleItem{{ID: uuid.New(), Name: "Pizza", Quantity: 1, Price: decimal.NewFromInt(40)}}
	updated, err := m.UpdateSale(sale.ID,
		UpdateItems{Items: newItems},
		UpdateStatus{Status: SalePreparing},
		UpdateCustomer{Customer: &Customer{Name: "Ana"}},
		UpdateObservations{Text: "sem cebola"},
	)
	require.NoError(t, err)
	assert.True(t, updated.Total.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, SalePreparing, updated.Status)
	require.NotNil(t, updated.Customer)
	assert.Equal(t, "Ana", updated.Customer.Name)
	assert.Equal(t, "sem cebola", updated.Observations)
}

func TestUpdateSaleAtomicValidation(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)
	sale, err := m.CreateSale(SaleInput{Type: DineIn, Items: someItems()})
	require.NoError(t, err)

	// Second command is invalid — the first must not be applied either.
	_, err = m.UpdateSale(sale.ID,
		UpdateObservations{Text: "mudou"},
		UpdateStatus{Status: SaleCompleted},
	)
	require.Error(t, err)

	current := m.ActiveSales()[0]
	assert.Empty(t, current.Observations)
	assert.Equal(t, SaleActive, current.Status)
}

// ── Cash movements ────────────────────────────────────────────────────────────

func TestWithdrawAndSupply(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 200)

	require.NoError(t, m.SupplyCash(decimal.NewFromInt(50), "troco"))
	require.NoError(t, m.WithdrawCash(decimal.NewFromInt(120), "sangria Para cofre"))

	s, _ := m.Session()
	assert.True(t, s.CurrentBalance.Equal(decimal.NewFromInt(130)))
	assert.True(t, s.TotalSupplies.Equal(decimal.NewFromInt(50)))
	assert.True(t, s.TotalWithdrawals.Equal(decimal.NewFromInt(120)))
	assertBalanceIdentity(t, m)

	// Ledger is append-only: both movements recorded in order.
	require.Len(t, s.Movements, 2)
	assert.Equal(t, Supply, s.Movements[0].Type)
	assert.Equal(t, Withdrawal, s.Movements[1].Type)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)

	err := m.WithdrawCash(decimal.NewFromInt(150), "demais")
	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, CodeInsufficientFunds, derr.Code)
	assert.Equal(t, "Saldo insuficiente", derr.Message)

	// State untouched: no movement appended, balance intact.
	s, _ := m.Session()
	assert.True(t, s.CurrentBalance.Equal(decimal.NewFromInt(100)))
	assert.Empty(t, s.Movements)
	assertBalanceIdentity(t, m)
}

func TestMovementNonPositiveAmount(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		err := m.WithdrawCash(amount, "x")
		var derr *Error
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, "Valor deve ser maior que zero", derr.Message)

		err = m.SupplyCash(amount, "x")
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, "Valor deve ser maior que zero", derr.Message)
	}
}

// ── Tables ────────────────────────────────────────────────────────────────────

func TestTableLifecycle(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)

	table, err := m.OpenTable(TableInput{Number: 5, Capacity: 4, Customer: "Carlos"})
	require.NoError(t, err)
	assert.True(t, table.IsOccupied)
	require.NotNil(t, table.Customer)
	assert.Equal(t, "Carlos", *table.Customer)
	require.NotNil(t, table.StartTime)
	assert.Equal(t, 1, m.TotalActiveTables())

	// Same number again while occupied is refused.
	_, err = m.OpenTable(TableInput{Number: 5, Customer: "Outro"})
	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "Mesa já está ocupada", derr.Message)

	closed, err := m.CloseTable(table.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsOccupied)
	assert.Nil(t, closed.Customer)
	assert.Nil(t, closed.StartTime)
	assert.Zero(t, m.TotalActiveTables())

	// Re-opening the freed table reuses the record.
	reopened, err := m.OpenTable(TableInput{Number: 5, Customer: "Bia"})
	require.NoError(t, err)
	assert.Equal(t, table.ID, reopened.ID)
	assert.Equal(t, 1, m.TotalActiveTables())
}

func TestSaleAttachedToTable(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)
	table, err := m.OpenTable(TableInput{Number: 2, Customer: "Duda"})
	require.NoError(t, err)

	sale, err := m.CreateSale(SaleInput{Type: DineIn, Items: someItems(), TableID: &table.ID})
	require.NoError(t, err)

	tables := m.ActiveTables()
	require.Len(t, tables, 1)
	require.NotNil(t, tables[0].CurrentSaleID)
	assert.Equal(t, sale.ID, *tables[0].CurrentSaleID)

	// Payment detaches the sale from its table.
	_, err = m.ProcessSalePayment(sale.ID, PaymentInput{Method: "debit"})
	require.NoError(t, err)
	assert.Nil(t, m.ActiveTables()[0].CurrentSaleID)
}

func TestCreateSaleUnknownTable(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)

	ghost := uuid.New()
	_, err := m.CreateSale(SaleInput{Type: DineIn, Items: someItems(), TableID: &ghost})
	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, CodeNotFound, derr.Code)
	assert.Equal(t, "Mesa não encontrada", derr.Message)
}

// ── Sticky error ──────────────────────────────────────────────────────────────

func TestLastErrorStickyUntilCleared(t *testing.T) {
	m := newTestManager(t)
	openSession(t, m, 100)

	_ = m.WithdrawCash(decimal.NewFromInt(500), "x")
	require.NotNil(t, m.LastError())
	assert.Equal(t, CodeInsufficientFunds, m.LastError().Code)

	// A successful operation does not clear it.
	require.NoError(t, m.SupplyCash(decimal.NewFromInt(10), "troco"))
	require.NotNil(t, m.LastError())

	m.ClearError()
	assert.Nil(t, m.LastError())
}

// ── Persistence round-trip ────────────────────────────────────────────────────

func TestRehydrateFromSnapshot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	m1, err := NewManager(ctx, Config{Store: store})
	require.NoError(t, err)
	openSession(t, m1, 300)
	sale, err := m1.CreateSale(SaleInput{Type: Takeaway, Items: someItems()})
	require.NoError(t, err)
	_, err = m1.OpenTable(TableInput{Number: 7, Customer: "Leo"})
	require.NoError(t, err)
	require.NoError(t, m1.SupplyCash(decimal.NewFromInt(20), "troco"))
	m1.Close() // drain pending writes

	m2, err := NewManager(ctx, Config{Store: store})
	require.NoError(t, err)
	defer m2.Close()

	assert.True(t, m2.IsOpen())
	s, ok := m2.Session()
	require.True(t, ok)
	assert.True(t, s.CurrentBalance.Equal(decimal.NewFromInt(320)))
	require.Len(t, s.Movements, 1)

	require.Len(t, m2.ActiveSales(), 1)
	assert.Equal(t, sale.ID, m2.ActiveSales()[0].ID)
	assert.True(t, m2.ActiveSales()[0].Total.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, 1, m2.TotalActiveTables())
}

func TestRehydrateHistoryFromSink(t *testing.T) {
	sink := &memorySink{}
	ctx := context.Background()

	m1, err := NewManager(ctx, Config{History: sink})
	require.NoError(t, err)
	openSession(t, m1, 100)
	sale, err := m1.CreateSale(SaleInput{Type: Takeaway, Items: someItems()})
	require.NoError(t, err)
	_, err = m1.ProcessSalePayment(sale.ID, PaymentInput{Method: "cash"})
	require.NoError(t, err)
	m1.Close()

	m2, err := NewManager(ctx, Config{History: sink})
	require.NoError(t, err)
	defer m2.Close()

	require.Len(t, m2.SalesHistory(), 1)
	assert.Equal(t, sale.ID, m2.SalesHistory()[0].ID)
}

func TestCloseArchivesSession(t *testing.T) {
	archive := &memoryArchive{}
	m, err := NewManager(context.Background(), Config{Archive: archive})
	require.NoError(t, err)
	defer m.Close()

	openSession(t, m, 100)
	_, err = m.CloseCashier(decimal.NewFromInt(100), "", CloseOptions{})
	require.NoError(t, err)

	require.Len(t, archive.sessions, 1)
	assert.Equal(t, "maria", archive.sessions[0].Operator)
	require.NotNil(t, archive.sessions[0].CloseTime)
}

func TestArchiveFailureWarnsAsArchive(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	var warnings []PersistenceWarning
	m, err := NewManager(context.Background(), Config{
		Archive:   failingArchive{},
		OnWarning: func(w PersistenceWarning) { warnings = append(warnings, w) },
	})
	require.NoError(t, err)
	defer m.Close()

	openSession(t, m, 100)
	_, err = m.CloseCashier(decimal.NewFromInt(100), "", CloseOptions{})
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, "close_cashier", warnings[0].Op)
	// The log line names the archive, not the sales history.
	assert.Contains(t, buf.String(), "session archive failed")
	assert.NotContains(t, buf.String(), "history write failed")
}

// ── In-memory fakes ───────────────────────────────────────────────────────────

type memorySink struct {
	mu    sync.Mutex
	sales []Sale
}

func (s *memorySink) Append(_ context.Context, sale Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, sale)
	return nil
}

func (s *memorySink) Load(_ context.Context) ([]Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Sale, len(s.sales))
	copy(out, s.sales)
	return out, nil
}

type memoryArchive struct {
	mu       sync.Mutex
	sessions []Session
}

func (a *memoryArchive) Archive(_ context.Context, s Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions = append(a.sessions, s)
	return nil
}

type failingArchive struct{}

func (failingArchive) Archive(context.Context, Session) error {
	return errors.New("postgres down")
}
