package dispatch

import (
	"context"
	"errors"

	"gitlab.com/nevasik7/alerting/logger"

	"personastats/internal/chain"
	"personastats/internal/dedupe"
	"personastats/internal/domain"
	"personastats/internal/ledger"
	"personastats/internal/store"
)

// Sink for the decoded-event journal (ClickHouse writer in production)
type Journal interface {
	Record(ctx context.Context, ev *chain.Event) error
}

type Deps struct {
	Log       logger.Logger
	Registry  *Registry
	Decoder   *chain.Decoder
	Contracts *chain.Contracts
	Store     store.Store
	Ledger    *ledger.Ledger
	Meta      chain.MetadataReader
	Deduper   dedupe.Deduper // optional
	Journal   Journal        // optional
}

// Walks a batch block by block, log by log, and routes each decoded log to
// its handler. Failures are isolated at log granularity: one bad event is
// logged and skipped, the batch keeps going.
type Dispatcher struct {
	deps Deps
}

func New(deps Deps) (*Dispatcher, error) {
	if deps.Registry == nil || deps.Decoder == nil || deps.Contracts == nil || deps.Store == nil {
		return nil, errors.New("registry, decoder, contracts and store are required")
	}
	return &Dispatcher{deps: deps}, nil
}

// ProcessBlocks applies one batch and returns the touched accumulator for the
// aggregation pass. Only context cancellation aborts mid-batch.
func (d *Dispatcher) ProcessBlocks(ctx context.Context, blocks []chain.Block) (*Touched, error) {
	touched := NewTouched()

	env := &Env{
		Store:   d.deps.Store,
		Ledger:  d.deps.Ledger,
		Log:     d.deps.Log,
		Meta:    d.deps.Meta,
		Touched: touched,
	}

	for i := range blocks {
		b := &blocks[i]
		touched.Blocks++

		for j := range b.Logs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			d.processLog(ctx, env, b, &b.Logs[j])
		}
	}

	return touched, nil
}

func (d *Dispatcher) processLog(ctx context.Context, env *Env, b *chain.Block, lg *chain.Log) {
	role, ok := d.deps.Contracts.RoleOf(lg.Address)
	if !ok {
		// logs from unwatched addresses carry no tracked events
		return
	}

	logID := domain.LogID(lg.TxHash.Hex(), lg.Index)

	if d.deps.Deduper != nil {
		seen, err := d.deps.Deduper.Seen(ctx, logID)
		if err != nil {
			d.deps.Log.Warnf("Dedupe check failed for %s: %v", logID, err)
		} else if seen {
			d.deps.Log.Debugf("Duplicate log skipped: %s", logID)
			return
		}
	}

	ev, err := d.deps.Decoder.Decode(role, b, lg)
	if err != nil {
		if errors.Is(err, chain.ErrUnknownEvent) {
			return
		}
		d.deps.Log.Errorf("Failed to decode log %s (%s): %v", logID, role, err)
		return
	}

	h, ok := d.deps.Registry.Resolve(role, ev.Name)
	if !ok {
		return
	}

	applied := d.invoke(ctx, env, h, ev, logID)

	// a failed handler stays unmarked so a redelivery gets another attempt
	if applied && d.deps.Deduper != nil {
		if err := d.deps.Deduper.Mark(ctx, logID); err != nil {
			d.deps.Log.Warnf("Dedupe mark failed for %s: %v", logID, err)
		}
	}

	if d.deps.Journal != nil {
		if err := d.deps.Journal.Record(ctx, ev); err != nil {
			d.deps.Log.Errorf("Failed to journal event %s: %v", logID, err)
		}
	}
}

// invoke shields the batch from a single handler failure, panics included
func (d *Dispatcher) invoke(ctx context.Context, env *Env, h HandlerFunc, ev *chain.Event, logID string) (applied bool) {
	defer func() {
		if r := recover(); r != nil {
			applied = false
			d.deps.Log.Errorf("Handler panic on %s %s (%s): %v", ev.Role, ev.Name, logID, r)
		}
	}()

	if err := h(ctx, env, ev); err != nil {
		d.deps.Log.Errorf("Handler %s %s failed on %s: %v", ev.Role, ev.Name, logID, err)
		return false
	}
	return true
}
