package checkpoint

import (
	"context"
	"sync"
)

// In-memory cursor for tests and single-run backfills
type MemoryCheckpoint struct {
	mu     sync.Mutex
	height uint64
}

func NewMemoryCheckpoint() *MemoryCheckpoint {
	return &MemoryCheckpoint{}
}

func (m *MemoryCheckpoint) Load(context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.height, nil
}

func (m *MemoryCheckpoint) Commit(_ context.Context, height uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.height = height
	return nil
}
