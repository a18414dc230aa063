package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
)

// Persister saves and restores cart snapshots across process restarts.
// Implementations live in the storage layer; the manager treats persistence
// as best-effort and never lets it block a cart operation.
type Persister interface {
	Load(ctx context.Context, sessionID string) ([]LineItem, error)
	Save(ctx context.Context, sessionID string, items []LineItem) error
	Delete(ctx context.Context, sessionID string) error
}

// ErrSnapshotNotFound is returned by a Persister when no snapshot exists
// for the session.
var ErrSnapshotNotFound = errors.New("cart snapshot not found")

// Manager hands out one Store per session and writes snapshots through to
// the persister after mutations.
type Manager struct {
	mu      sync.Mutex
	carts   map[string]*Store
	persist Persister
}

// NewManager creates a Manager. persist may be nil, in which case carts
// live only in process memory.
func NewManager(persist Persister) *Manager {
	return &Manager{
		carts:   make(map[string]*Store),
		persist: persist,
	}
}

// Get returns the cart for sessionID, hydrating it from the persister on
// first access. A failed hydration yields an empty cart; the session can
// still shop.
func (m *Manager) Get(ctx context.Context, sessionID string) *Store {
	m.mu.Lock()
	if s, ok := m.carts[sessionID]; ok {
		m.mu.Unlock()
		return s
	}
	s := NewStore()
	m.carts[sessionID] = s
	m.mu.Unlock()

	if m.persist != nil {
		if items, err := m.persist.Load(ctx, sessionID); err == nil {
			s.Replace(items)
		}
	}
	return s
}

// Flush writes the session's current snapshot through to the persister.
func (m *Manager) Flush(ctx context.Context, sessionID string) error {
	if m.persist == nil {
		return nil
	}
	s := m.Get(ctx, sessionID)

	items := s.Items()
	if len(items) == 0 {
		if err := m.persist.Delete(ctx, sessionID); err != nil {
			return errors.Wrap(err, "delete cart snapshot")
		}
		return nil
	}
	if err := m.persist.Save(ctx, sessionID, items); err != nil {
		return errors.Wrap(err, "save cart snapshot")
	}
	return nil
}
