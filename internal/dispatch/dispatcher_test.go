package dispatch_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	loggerCfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"

	"personastats/internal/chain"
	"personastats/internal/dedupe"
	"personastats/internal/dispatch"
	"personastats/internal/domain"
	"personastats/internal/handlers"
	"personastats/internal/ledger"
	"personastats/internal/store"
)

var (
	factoryAddr = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	bondingAddr = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	strangerAddr = common.HexToAddress("0x00000000000000000000000000000000000000ee")

	blockTime = time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
)

type countingJournal struct {
	events []*chain.Event
}

func (j *countingJournal) Record(_ context.Context, ev *chain.Event) error {
	j.events = append(j.events, ev)
	return nil
}

func newDispatcher(t *testing.T, deduper dedupe.Deduper, journal dispatch.Journal) (*dispatch.Dispatcher, store.Store) {
	t.Helper()

	lg := logger.New(loggerCfg.LoggerCfg{Level: "error", Format: "json"})

	contracts, err := chain.NewContracts(map[string]string{
		string(chain.RoleFactory): factoryAddr.Hex(),
		string(chain.RoleBonding): bondingAddr.Hex(),
	})
	if err != nil {
		t.Fatalf("contracts: %v", err)
	}

	registry := dispatch.NewRegistry()
	handlers.Register(registry)

	st := store.NewMemory(lg)
	d, err := dispatch.New(dispatch.Deps{
		Log:       lg,
		Registry:  registry,
		Decoder:   chain.NewDecoder(lg),
		Contracts: contracts,
		Store:     st,
		Ledger:    ledger.New(lg),
		Deduper:   deduper,
		Journal:   journal,
	})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	return d, st
}

func packValues(t *testing.T, types []string, values ...any) []byte {
	t.Helper()

	args := make(abi.Arguments, 0, len(types))
	for _, typ := range types {
		at, err := abi.NewType(typ, "", nil)
		if err != nil {
			t.Fatalf("abi type %s: %v", typ, err)
		}
		args = append(args, abi.Argument{Type: at})
	}

	b, err := args.Pack(values...)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return b
}

func personaCreatedLog(t *testing.T, tokenID int64, tx common.Hash, index uint) chain.Log {
	t.Helper()
	topic0, _ := chain.TopicFor(chain.RoleFactory, chain.EvPersonaCreated)
	creator := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	return chain.Log{
		Address: factoryAddr,
		Topics: []common.Hash{
			topic0,
			common.BigToHash(big.NewInt(tokenID)),
			common.BytesToHash(creator.Bytes()),
		},
		Data: packValues(t, []string{"address", "address"},
			common.HexToAddress("0x00000000000000000000000000000000000000d1"),
			common.HexToAddress("0x00000000000000000000000000000000000000d2")),
		TxHash: tx,
		Index:  index,
	}
}

func purchaseLog(t *testing.T, tokenID, spent, received int64, tx common.Hash, index uint) chain.Log {
	t.Helper()
	topic0, _ := chain.TopicFor(chain.RoleBonding, chain.EvTokensPurchased)
	buyer := common.HexToAddress("0x00000000000000000000000000000000000000c2")
	return chain.Log{
		Address: bondingAddr,
		Topics: []common.Hash{
			topic0,
			common.BigToHash(big.NewInt(tokenID)),
			common.BytesToHash(buyer.Bytes()),
		},
		Data:   packValues(t, []string{"uint256", "uint256"}, big.NewInt(spent), big.NewInt(received)),
		TxHash: tx,
		Index:  index,
	}
}

func TestProcessBlocks_EndToEnd(t *testing.T) {
	ctx := context.Background()
	journal := &countingJournal{}
	d, st := newDispatcher(t, nil, journal)

	tx := common.HexToHash("0x0101")
	blocks := []chain.Block{{
		Height: 100,
		Time:   blockTime,
		Logs: []chain.Log{
			personaCreatedLog(t, 1, tx, 0),
			purchaseLog(t, 1, 1000, 500, tx, 1),
		},
	}}

	touched, err := d.ProcessBlocks(ctx, blocks)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if touched.Blocks != 1 {
		t.Fatalf("touched.Blocks = %d, want 1", touched.Blocks)
	}
	if days := touched.Days(); len(days) != 1 || days[0] != "2025-03-09" {
		t.Fatalf("unexpected touched days %v", days)
	}

	p, err := store.GetAs[*domain.Persona](ctx, st, domain.KindPersona, "1")
	if err != nil {
		t.Fatalf("persona: %v", err)
	}
	if p.TotalDeposited.Cmp(big.NewInt(1000)) != 0 || p.TokensSold.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("totals not applied: %s / %s", p.TotalDeposited, p.TokensSold)
	}

	if len(journal.events) != 2 {
		t.Fatalf("journal should record both decoded events, got %d", len(journal.events))
	}
}

func TestProcessBlocks_UnwatchedAddressIgnored(t *testing.T) {
	ctx := context.Background()
	d, st := newDispatcher(t, nil, nil)

	lg := personaCreatedLog(t, 1, common.HexToHash("0x0102"), 0)
	lg.Address = strangerAddr

	if _, err := d.ProcessBlocks(ctx, []chain.Block{{Height: 100, Time: blockTime, Logs: []chain.Log{lg}}}); err != nil {
		t.Fatalf("process: %v", err)
	}

	if _, err := st.Get(ctx, domain.KindPersona, "1"); err == nil {
		t.Fatal("log from unwatched address must not be processed")
	}
}

func TestProcessBlocks_BadLogDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	d, st := newDispatcher(t, nil, nil)

	tx := common.HexToHash("0x0103")
	corrupt := purchaseLog(t, 1, 1, 1, tx, 1)
	corrupt.Data = []byte{0x01, 0x02} // undecodable payload

	blocks := []chain.Block{{
		Height: 100,
		Time:   blockTime,
		Logs: []chain.Log{
			corrupt,
			personaCreatedLog(t, 1, tx, 2),
		},
	}}

	if _, err := d.ProcessBlocks(ctx, blocks); err != nil {
		t.Fatalf("batch must survive a bad log: %v", err)
	}

	if _, err := st.Get(ctx, domain.KindPersona, "1"); err != nil {
		t.Fatalf("later log in batch must still be applied: %v", err)
	}
}

func TestProcessBlocks_DedupeSkipsRedelivery(t *testing.T) {
	ctx := context.Background()
	lg := logger.New(loggerCfg.LoggerCfg{Level: "error", Format: "json"})
	deduper := dedupe.NewMemoryDedupe(lg, time.Minute, 0)
	defer deduper.Close()

	journal := &countingJournal{}
	d, _ := newDispatcher(t, deduper, journal)

	tx := common.HexToHash("0x0104")
	block := chain.Block{Height: 100, Time: blockTime, Logs: []chain.Log{personaCreatedLog(t, 1, tx, 0)}}

	if _, err := d.ProcessBlocks(ctx, []chain.Block{block}); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if _, err := d.ProcessBlocks(ctx, []chain.Block{block}); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	if len(journal.events) != 1 {
		t.Fatalf("redelivered log must be dropped before the handler, journal saw %d", len(journal.events))
	}
}

func TestProcessBlocks_FailedHandlerRetriedOnRedelivery(t *testing.T) {
	ctx := context.Background()
	lg := logger.New(loggerCfg.LoggerCfg{Level: "error", Format: "json"})
	deduper := dedupe.NewMemoryDedupe(lg, time.Minute, 0)
	defer deduper.Close()

	contracts, err := chain.NewContracts(map[string]string{
		string(chain.RoleFactory): factoryAddr.Hex(),
	})
	if err != nil {
		t.Fatalf("contracts: %v", err)
	}

	var calls int
	registry := dispatch.NewRegistry()
	registry.Register(chain.RoleFactory, chain.EvPersonaCreated, func(context.Context, *dispatch.Env, *chain.Event) error {
		calls++
		if calls == 1 {
			return errors.New("transient store failure")
		}
		return nil
	})

	d, err := dispatch.New(dispatch.Deps{
		Log:       lg,
		Registry:  registry,
		Decoder:   chain.NewDecoder(lg),
		Contracts: contracts,
		Store:     store.NewMemory(lg),
		Ledger:    ledger.New(lg),
		Deduper:   deduper,
	})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}

	block := chain.Block{Height: 100, Time: blockTime, Logs: []chain.Log{personaCreatedLog(t, 1, common.HexToHash("0x0106"), 0)}}

	if _, err := d.ProcessBlocks(ctx, []chain.Block{block}); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}

	// the failed attempt must not have marked the log id
	if _, err := d.ProcessBlocks(ctx, []chain.Block{block}); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if calls != 2 {
		t.Fatalf("failed event must be retried on redelivery, calls = %d", calls)
	}

	// the successful attempt marked it, a third delivery is dropped
	if _, err := d.ProcessBlocks(ctx, []chain.Block{block}); err != nil {
		t.Fatalf("third delivery: %v", err)
	}
	if calls != 2 {
		t.Fatalf("applied event must be dropped on redelivery, calls = %d", calls)
	}
}

func TestProcessBlocks_ContextCancellation(t *testing.T) {
	d, _ := newDispatcher(t, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocks := []chain.Block{{
		Height: 100,
		Time:   blockTime,
		Logs:   []chain.Log{personaCreatedLog(t, 1, common.HexToHash("0x0105"), 0)},
	}}
	if _, err := d.ProcessBlocks(ctx, blocks); err == nil {
		t.Fatal("cancelled context must abort the batch")
	}
}
