package dedupe

import (
	"context"
	"sync"
	"testing"
	"time"

	loggerCfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"
)

func newTestLogger() logger.Logger {
	return logger.New(loggerCfg.LoggerCfg{
		Level:  "error",
		Format: "json",
	})
}

func TestMemoryDedupe_MarkThenSeen(t *testing.T) {
	t.Parallel()

	m := NewMemoryDedupe(newTestLogger(), 200*time.Millisecond, 0)
	defer m.Close()

	ctx := context.Background()
	const id = "0xabc-1"

	seen, err := m.Seen(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen {
		t.Fatalf("expected Seen=false before Mark")
	}

	// Seen must not record; only Mark does
	seen, _ = m.Seen(ctx, id)
	if seen {
		t.Fatalf("expected repeated Seen=false before Mark")
	}

	if err := m.Mark(ctx, id); err != nil {
		t.Fatalf("mark: %v", err)
	}
	seen, _ = m.Seen(ctx, id)
	if !seen {
		t.Fatalf("expected Seen=true after Mark")
	}
}

func TestMemoryDedupe_Expiration(t *testing.T) {
	t.Parallel()

	ttl := 50 * time.Millisecond
	m := NewMemoryDedupe(newTestLogger(), ttl, 0)
	defer m.Close()

	ctx := context.Background()
	const id = "0xdef-2"

	_ = m.Mark(ctx, id)
	time.Sleep(ttl + 20*time.Millisecond)

	seen, _ := m.Seen(ctx, id)
	if seen {
		t.Fatalf("expected Seen=false after TTL expiry")
	}
}

func TestMemoryDedupe_JanitorCleansUp(t *testing.T) {
	t.Parallel()

	ttl := 20 * time.Millisecond
	m := NewMemoryDedupe(newTestLogger(), ttl, 15*time.Millisecond)
	defer m.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = m.Mark(ctx, "k-"+time.Now().String())
	}

	time.Sleep(ttl + 40*time.Millisecond)

	m.mu.Lock()
	size := len(m.items)
	m.mu.Unlock()

	if size != 0 {
		t.Fatalf("expected janitor to clear expired items, map size=%d", size)
	}
}

func TestMemoryDedupe_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	m := NewMemoryDedupe(newTestLogger(), 50*time.Millisecond, 10*time.Millisecond)
	m.Close()
	m.Close()
}

func TestMemoryDedupe_ConcurrentSameID(t *testing.T) {
	t.Parallel()

	m := NewMemoryDedupe(newTestLogger(), 500*time.Millisecond, 0)
	defer m.Close()

	ctx := context.Background()
	const workers = 64

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if err := m.Mark(ctx, "same-id"); err != nil {
				t.Errorf("mark: %v", err)
				return
			}
			if _, err := m.Seen(ctx, "same-id"); err != nil {
				t.Errorf("seen: %v", err)
			}
		}()
	}
	wg.Wait()

	seen, err := m.Seen(ctx, "same-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen {
		t.Fatal("expected Seen=true after concurrent marks")
	}
}
