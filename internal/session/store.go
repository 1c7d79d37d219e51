package session

import (
	"context"
	"sync"

	"github.com/bankdesk/bankdesk/internal/domain/model"
)

// Store is the volatile per-customer context cache. It is an optimization,
// never an authority: callers must reconstruct from the order ledger on a
// miss.
type Store interface {
	Get(ctx context.Context, customerID int64) (*model.Session, bool, error)
	Put(ctx context.Context, s *model.Session) error
	Delete(ctx context.Context, customerID int64) error
}

// MemoryStore keeps sessions in a mutex-guarded map. Used when no Redis is
// configured and throughout tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]model.Session
}

// NewMemoryStore constructs an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]model.Session)}
}

func (m *MemoryStore) Get(_ context.Context, customerID int64) (*model.Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[customerID]
	if !ok {
		return nil, false, nil
	}
	copied := s
	return &copied, true, nil
}

func (m *MemoryStore) Put(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.CustomerID] = *s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, customerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, customerID)
	return nil
}
