package cashier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore keeps every saved snapshot so tests can assert write order.
type recordingStore struct {
	mu    sync.Mutex
	saves []Snapshot
}

func (s *recordingStore) Save(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, snap)
	return nil
}

func (s *recordingStore) Load(_ context.Context) (Snapshot, bool, error) {
	return Snapshot{}, false, nil
}

type failingStore struct{}

func (failingStore) Save(context.Context, Snapshot) error {
	return errors.New("redis down")
}

func (failingStore) Load(context.Context) (Snapshot, bool, error) {
	return Snapshot{}, false, nil
}

func TestSnapshotWritesPreserveMutationOrder(t *testing.T) {
	store := &recordingStore{}
	m, err := NewManager(context.Background(), Config{Store: store})
	require.NoError(t, err)

	openSession(t, m, 100)
	require.NoError(t, m.SupplyCash(decimal.NewFromInt(10), "troco"))
	require.NoError(t, m.SupplyCash(decimal.NewFromInt(20), "mais troco"))
	require.NoError(t, m.WithdrawCash(decimal.NewFromInt(5), "sangria"))
	m.Close()

	// One write per mutation, in order, no coalescing.
	require.Len(t, store.saves, 4)
	balances := []int64{100, 110, 130, 125}
	for i, want := range balances {
		require.NotNil(t, store.saves[i].Session)
		assert.True(t, store.saves[i].Session.CurrentBalance.Equal(decimal.NewFromInt(want)),
			"save %d: got %s", i, store.saves[i].Session.CurrentBalance)
	}
}

func TestSnapshotWriteIsolatedFromLaterMutations(t *testing.T) {
	store := &recordingStore{}
	m, err := NewManager(context.Background(), Config{Store: store})
	require.NoError(t, err)

	openSession(t, m, 100)
	require.NoError(t, m.SupplyCash(decimal.NewFromInt(50), "troco"))
	m.Close()

	// The first snapshot must reflect the state at enqueue time even though
	// the session mutated afterwards.
	require.Len(t, store.saves, 2)
	assert.True(t, store.saves[0].Session.CurrentBalance.Equal(decimal.NewFromInt(100)))
	assert.Empty(t, store.saves[0].Session.Movements)
	assert.Len(t, store.saves[1].Session.Movements, 1)
}

func TestSnapshotWriteFailureSurfacesWarning(t *testing.T) {
	var (
		mu       sync.Mutex
		warnings []PersistenceWarning
	)
	m, err := NewManager(context.Background(), Config{
		Store: failingStore{},
		OnWarning: func(w PersistenceWarning) {
			mu.Lock()
			warnings = append(warnings, w)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	// Operation succeeds even though persistence fails.
	openSession(t, m, 100)
	require.NoError(t, m.SupplyCash(decimal.NewFromInt(10), "troco"))
	m.Close()

	assert.True(t, m.IsOpen())
	s, _ := m.Session()
	assert.True(t, s.CurrentBalance.Equal(decimal.NewFromInt(110)))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, warnings, 2)
	assert.Equal(t, "open_cashier", warnings[0].Op)
	assert.Equal(t, "supply_cash", warnings[1].Op)
	assert.ErrorContains(t, warnings[0].Err, "redis down")
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	snap := Snapshot{Session: &Session{Operator: "maria", InitialAmount: decimal.NewFromInt(50), CurrentBalance: decimal.NewFromInt(50)}}
	require.NoError(t, store.Save(ctx, snap))

	got, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, got.Session)
	assert.Equal(t, "maria", got.Session.Operator)
	assert.True(t, got.Session.CurrentBalance.Equal(decimal.NewFromInt(50)))
}
