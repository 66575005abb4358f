package store

import (
	"context"
	"fmt"
	"sync"

	"gitlab.com/nevasik7/alerting/logger"
)

// One named collection; order holds ids by first insertion
type collection struct {
	byID  map[string]Entity
	order []string
}

// In-memory store with insertion-ordered scans and trivial read-your-writes.
// The single-writer batch model means the RWMutex only guards against
// concurrent API reads, not handler races.
type Memory struct {
	log logger.Logger

	mu          sync.RWMutex
	collections map[string]*collection
}

func NewMemory(log logger.Logger) *Memory {
	return &Memory{
		log:         log,
		collections: make(map[string]*collection, 16),
	}
}

func (m *Memory) Get(_ context.Context, kind, id string) (Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[kind]
	if !ok {
		return nil, ErrNotFound
	}

	e, ok := c.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *Memory) Find(_ context.Context, kind string) ([]Entity, error) {
	return m.scan(kind, nil)
}

func (m *Memory) FindBy(_ context.Context, kind string, match Filter) ([]Entity, error) {
	return m.scan(kind, match)
}

func (m *Memory) scan(kind string, match Filter) ([]Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[kind]
	if !ok {
		return nil, nil
	}

	out := make([]Entity, 0, len(c.order))
	for _, id := range c.order {
		e := c.byID[id]
		if match == nil || match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Insert fails on a duplicate id; creation handlers check first, so a
// collision here means a bug, not redelivery
func (m *Memory) Insert(_ context.Context, kind string, rows ...Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.ensure(kind)
	for _, e := range rows {
		id := e.EntityID()
		if _, exists := c.byID[id]; exists {
			return fmt.Errorf("%w: %s/%s", ErrDuplicate, kind, id)
		}
		c.byID[id] = e
		c.order = append(c.order, id)
	}
	return nil
}

// Save upserts; a new id is appended, an existing id keeps its position
func (m *Memory) Save(_ context.Context, kind string, rows ...Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.ensure(kind)
	for _, e := range rows {
		id := e.EntityID()
		if _, exists := c.byID[id]; !exists {
			c.order = append(c.order, id)
		}
		c.byID[id] = e
	}
	return nil
}

func (m *Memory) ensure(kind string) *collection {
	c, ok := m.collections[kind]
	if !ok {
		c = &collection{byID: make(map[string]Entity, 64)}
		m.collections[kind] = c
	}
	return c
}
