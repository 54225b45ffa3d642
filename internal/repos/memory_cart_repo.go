package repos

import (
	"context"
	"sync"
	"time"

	"maisonaurore/internal/domain"
)

// MemoryCartRepo keeps cart blobs and markers in process memory.
// Contents are lost on restart.
type MemoryCartRepo struct {
	mu      sync.Mutex
	carts   map[string][]byte
	markers map[string]memoryMarker
	now     func() time.Time
}

type memoryMarker struct {
	blob    []byte
	expires time.Time // zero: no expiry
}

func NewMemoryCartRepo() *MemoryCartRepo {
	return &MemoryCartRepo{
		carts:   map[string][]byte{},
		markers: map[string]memoryMarker{},
		now:     time.Now,
	}
}

func (m *MemoryCartRepo) Read(_ context.Context, sessionID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.carts[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (m *MemoryCartRepo) Write(_ context.Context, sessionID string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sessionID] = append([]byte(nil), blob...)
	return nil
}

func (m *MemoryCartRepo) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

func (m *MemoryCartRepo) ReadMarker(_ context.Context, sessionID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk, ok := m.markers[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !mk.expires.IsZero() && !m.now().Before(mk.expires) {
		delete(m.markers, sessionID)
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), mk.blob...), nil
}

func (m *MemoryCartRepo) WriteMarker(_ context.Context, sessionID string, blob []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk := memoryMarker{blob: append([]byte(nil), blob...)}
	if ttl > 0 {
		mk.expires = m.now().Add(ttl)
	}
	m.markers[sessionID] = mk
	return nil
}

func (m *MemoryCartRepo) ClearMarker(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.markers, sessionID)
	return nil
}
