package clickhouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"gitlab.com/nevasik7/alerting/logger"

	"personastats/internal/chain"
	"personastats/internal/config"
)

// Append-only journal row, one per decoded contract event. The aggregated
// entities live in the primary store; this table is the audit/backfill trail.
type EventRow struct {
	EventTime   time.Time
	BlockNumber uint64
	TxHash      string
	LogIndex    uint32
	Role        string
	Name        string
	PersonaID   string // empty for events with no persona scope
	ArgsJSON    string
}

type Writer struct {
	log logger.Logger

	conn  ch.Conn
	cfg   config.ClickHouseConfig
	table string

	inCh      chan EventRow
	closedCh  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewWriter(log logger.Logger, conn ch.Conn, cfg config.ClickHouseConfig) *Writer {
	// sane defaults
	if cfg.Writer.BatchMaxRows <= 0 {
		cfg.Writer.BatchMaxRows = 1000
	}
	if cfg.Writer.BatchMaxInterval <= 0 {
		cfg.Writer.BatchMaxInterval = 200 * time.Millisecond
	}
	if cfg.Writer.MaxRetries < 0 {
		cfg.Writer.MaxRetries = 0
	}
	if cfg.Writer.RetryBackoff <= 0 {
		cfg.Writer.RetryBackoff = 200 * time.Millisecond
	}

	table := cfg.Table
	if table == "" {
		table = "persona_events"
	}

	w := &Writer{
		log:      log,
		conn:     conn,
		cfg:      cfg,
		table:    table,
		inCh:     make(chan EventRow, 8192),
		closedCh: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()

	return w
}

// Record satisfies the dispatcher journal: one decoded event becomes one row.
// Enqueue only; flushing happens on the writer loop.
func (w *Writer) Record(_ context.Context, ev *chain.Event) error {
	argsJSON, err := json.Marshal(ev.Args)
	if err != nil {
		return fmt.Errorf("failed to marshal args of %s: %w", ev.Name, err)
	}

	var personaID string
	if ev.Args.Has("tokenId") {
		personaID = ev.Args.BigInt("tokenId").String()
	}

	return w.Enqueue(EventRow{
		EventTime:   ev.BlockTime,
		BlockNumber: ev.BlockNumber,
		TxHash:      strings.ToLower(ev.TxHash.Hex()),
		LogIndex:    uint32(ev.LogIndex),
		Role:        string(ev.Role),
		Name:        ev.Name,
		PersonaID:   personaID,
		ArgsJSON:    string(argsJSON),
	})
}

func (w *Writer) Enqueue(row EventRow) error {
	select {
	case <-w.closedCh:
		return errors.New("clickhouse writer closed")
	default:
	}

	select {
	case w.inCh <- row:
		return nil
	case <-w.closedCh:
		return errors.New("clickhouse writer closed")
	}
}

func (w *Writer) Health(ctx context.Context) error {
	select {
	case <-w.closedCh:
		return errors.New("clickhouse writer closed")
	default:
	}
	return w.conn.Ping(ctx)
}

// Close is idempotent; inCh is never closed so a racing Enqueue cannot panic,
// the loop drains whatever was accepted before the close signal
func (w *Writer) Close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		close(w.closedCh)
	})

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) loop() {
	defer w.wg.Done()

	batch := make([]EventRow, 0, w.cfg.Writer.BatchMaxRows)
	ticker := time.NewTicker(w.cfg.Writer.BatchMaxInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		if err := w.insertBatch(context.Background(), batch); err != nil {
			w.log.Errorf("Failed insert [%d] rows by batch to clickhouse, error=%v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case row := <-w.inCh:
			batch = append(batch, row)
			if len(batch) >= w.cfg.Writer.BatchMaxRows {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.closedCh:
			for {
				select {
				case row := <-w.inCh:
					batch = append(batch, row)
					if len(batch) >= w.cfg.Writer.BatchMaxRows {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

func (w *Writer) insertBatch(ctx context.Context, rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}

	// repeat with exponential delay
	backoff := w.cfg.Writer.RetryBackoff

	var lastErr error

	for attempt := 0; attempt <= w.cfg.Writer.MaxRetries; attempt++ {
		batch, err := w.conn.PrepareBatch(ctx, fmt.Sprintf(`
			INSERT INTO %s (
				event_time,
				block_number,
				tx_hash,
				log_index,
				role,
				name,
				persona_id,
				args
			)
		`, w.table))
		if err != nil {
			lastErr = err
			goto retry
		}

		for i := range rows {
			r := &rows[i]
			if err = batch.Append(
				r.EventTime,
				r.BlockNumber,
				r.TxHash,
				r.LogIndex,
				r.Role,
				r.Name,
				r.PersonaID,
				r.ArgsJSON,
			); err != nil {
				lastErr = err
				_ = batch.Abort()
				goto retry
			}
		}

		if err = batch.Send(); err != nil {
			lastErr = err
			goto retry
		}
		// success
		return nil

	retry:
		if attempt == w.cfg.Writer.MaxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
	}

	return lastErr
}
