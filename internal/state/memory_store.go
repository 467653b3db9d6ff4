package state

import (
	"context"
	"sync"

	"github.com/bassista/go_pagewatch/internal/fingerprint"
	"github.com/bassista/go_pagewatch/internal/logger"
)

// MemoryStore keeps the baseline in process memory. It is lost on restart and
// is meant for dry runs and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	value fingerprint.Hash
	ok    bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith returns a store that already holds h.
func NewMemoryStoreWith(h fingerprint.Hash) *MemoryStore {
	return &MemoryStore{value: h, ok: true}
}

func (m *MemoryStore) Load(_ context.Context) (fingerprint.Hash, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value, m.ok, nil
}

func (m *MemoryStore) Save(_ context.Context, h fingerprint.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	logger.WithComponent("memory-state").Debugf("storing baseline %s", h)
	m.value = h
	m.ok = true
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
