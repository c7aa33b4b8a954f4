package cashier

import (
	"context"
	"encoding/json"
	"sync"
)

// SessionStore persists the manager's working state under a single key.
// Implementations must be safe for one writer at a time; the manager
// serializes writes through its queue.
type SessionStore interface {
	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap Snapshot) error
	// Load returns the stored snapshot, or found=false when none exists.
	Load(ctx context.Context) (snap Snapshot, found bool, err error)
}

// HistorySink receives completed and cancelled sales. History is append-only
// and must survive both a session close and a process restart.
type HistorySink interface {
	Append(ctx context.Context, sale Sale) error
	Load(ctx context.Context) ([]Sale, error)
}

// SessionArchive receives closed sessions for durable audit.
type SessionArchive interface {
	Archive(ctx context.Context, session Session) error
}

// ── In-memory store ───────────────────────────────────────────────────────────

// MemoryStore is a SessionStore backed by a JSON blob in memory. Used in tests
// and as a fallback when no Redis is configured.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (Snapshot, bool, error) {
	s.mu.Lock()
	data := s.data
	s.mu.Unlock()

	if data == nil {
		return Snapshot{}, false, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}
