package dedupe

import (
	"context"
	"sync"
	"time"

	"gitlab.com/nevasik7/alerting/logger"
)

type entry struct {
	expireAt int64 // unix nano
}

// TTL'd in-memory seen-set keyed by "{txHash}-{logIndex}". One instance per
// process; the store-level pre-existence checks remain the real idempotence
// guarantee.
type MemoryDedupe struct {
	log     logger.Logger
	ttl     time.Duration
	mu      sync.Mutex
	items   map[string]entry
	stopCh  chan struct{}
	stopped bool
}

// ttl - how long a log id is remembered;
// janitorEvery - expired key sweep interval, 0 disables the sweeper
func NewMemoryDedupe(log logger.Logger, ttl, janitorEvery time.Duration) *MemoryDedupe {
	m := &MemoryDedupe{
		log:    log,
		ttl:    ttl,
		items:  make(map[string]entry, 4096),
		stopCh: make(chan struct{}),
	}

	if janitorEvery > 0 {
		go m.janitor(janitorEvery)
	}
	return m
}

func (m *MemoryDedupe) Seen(_ context.Context, id string) (bool, error) {
	now := time.Now().UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[id]
	return ok && e.expireAt > now, nil
}

func (m *MemoryDedupe) Mark(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[id] = entry{expireAt: time.Now().UnixNano() + m.ttl.Nanoseconds()}
	return nil
}

func (m *MemoryDedupe) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			now := time.Now().UnixNano()
			m.mu.Lock()
			for k, e := range m.items {
				if e.expireAt <= now {
					delete(m.items, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *MemoryDedupe) Close() {
	m.mu.Lock()
	if !m.stopped {
		close(m.stopCh)
		m.stopped = true
	}
	m.mu.Unlock()
}
