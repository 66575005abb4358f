package aggregate

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"gitlab.com/nevasik7/alerting/logger"

	"personastats/internal/dispatch"
	"personastats/internal/domain"
	"personastats/internal/store"
)

// Recomputes derived statistics by full rescan of the base collections.
// Global and daily scopes are never incremented in place; the rescan runs
// once per batch, which keeps the views equal to a recompute by construction
// and avoids silent drift from clamped operations.
type Engine struct {
	log   logger.Logger
	store store.Store
}

func New(log logger.Logger, s store.Store) *Engine {
	return &Engine{log: log, store: s}
}

// Everything one aggregation pass rewrote, in recompute order
type Result struct {
	Global         *domain.GlobalStats
	Dailies        []*domain.DailyStats
	PersonaDailies []*domain.PersonaDailyStats
}

// Run recomputes every scope the batch touched: global when any block was
// processed, one daily row per touched day, one persona-daily row per touched
// (persona, day) pair
func (e *Engine) Run(ctx context.Context, touched *dispatch.Touched) (*Result, error) {
	res := &Result{}

	if touched.Blocks == 0 {
		return res, nil
	}

	global, err := e.RecomputeGlobal(ctx)
	if err != nil {
		return nil, err
	}
	res.Global = global

	for _, day := range touched.Days() {
		daily, err := e.RecomputeDaily(ctx, day)
		if err != nil {
			return nil, err
		}
		res.Dailies = append(res.Dailies, daily)
	}

	for _, pd := range touched.PersonaDays() {
		row, err := e.RecomputePersonaDaily(ctx, pd.PersonaID, pd.Day)
		if err != nil {
			return nil, err
		}
		res.PersonaDailies = append(res.PersonaDailies, row)
	}

	return res, nil
}

func (e *Engine) RecomputeGlobal(ctx context.Context) (*domain.GlobalStats, error) {
	personas, err := e.store.Find(ctx, domain.KindPersona)
	if err != nil {
		return nil, fmt.Errorf("persona scan failed: %w", err)
	}

	trades, err := store.FindAs[*domain.Trade](ctx, e.store, domain.KindTrade)
	if err != nil {
		return nil, fmt.Errorf("trade scan failed: %w", err)
	}

	pools, err := store.FindAs[*domain.StakingPool](ctx, e.store, domain.KindStakingPool)
	if err != nil {
		return nil, fmt.Errorf("pool scan failed: %w", err)
	}

	activities, err := store.FindAs[*domain.BridgeActivity](ctx, e.store, domain.KindBridgeActivity)
	if err != nil {
		return nil, fmt.Errorf("bridge scan failed: %w", err)
	}

	g := &domain.GlobalStats{
		ID:               domain.GlobalStatsID,
		TotalPersonas:    int64(len(personas)),
		BuyVolume:        new(big.Int),
		SellVolume:       new(big.Int),
		TotalStaked:      new(big.Int),
		BridgeWrapVolume: new(big.Int),
		UpdatedAt:        time.Now().UTC(),
	}

	for _, t := range trades {
		g.TotalTrades++
		if t.IsBuy {
			g.BuyTrades++
			g.BuyVolume.Add(g.BuyVolume, t.AmountIn)
		} else {
			g.SellTrades++
			g.SellVolume.Add(g.SellVolume, t.AmountOut)
		}
	}
	g.TotalVolume = new(big.Int).Add(g.BuyVolume, g.SellVolume)

	g.StakingPools = int64(len(pools))
	for _, p := range pools {
		if p.TotalStaked != nil {
			g.TotalStaked.Add(g.TotalStaked, p.TotalStaked)
		}
	}

	for _, a := range activities {
		if a.Action == domain.BridgeWrap {
			g.BridgeWrapVolume.Add(g.BridgeWrapVolume, a.Amount)
		}
	}

	if err := e.store.Save(ctx, domain.KindGlobalStats, g); err != nil {
		return nil, fmt.Errorf("failed to save global stats: %w", err)
	}
	return g, nil
}

func (e *Engine) RecomputeDaily(ctx context.Context, day string) (*domain.DailyStats, error) {
	start, end, err := domain.DayWindow(day)
	if err != nil {
		return nil, err
	}

	trades, err := store.FindByAs(ctx, e.store, domain.KindTrade, func(t *domain.Trade) bool {
		return domain.InDay(t.Timestamp, start, end)
	})
	if err != nil {
		return nil, fmt.Errorf("trade scan failed: %w", err)
	}

	activities, err := store.FindByAs(ctx, e.store, domain.KindBridgeActivity, func(a *domain.BridgeActivity) bool {
		return a.Action == domain.BridgeWrap && domain.InDay(a.Timestamp, start, end)
	})
	if err != nil {
		return nil, fmt.Errorf("bridge scan failed: %w", err)
	}

	d := &domain.DailyStats{
		ID:               day,
		BuyVolume:        new(big.Int),
		SellVolume:       new(big.Int),
		BridgeWrapVolume: new(big.Int),
		UpdatedAt:        time.Now().UTC(),
	}

	traders := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		d.Trades++
		traders[t.Trader] = struct{}{}
		if t.IsBuy {
			d.BuyTrades++
			d.BuyVolume.Add(d.BuyVolume, t.AmountIn)
		} else {
			d.SellTrades++
			d.SellVolume.Add(d.SellVolume, t.AmountOut)
		}
	}
	d.Volume = new(big.Int).Add(d.BuyVolume, d.SellVolume)
	d.UniqueTraders = int64(len(traders))

	for _, a := range activities {
		d.BridgeWrapVolume.Add(d.BridgeWrapVolume, a.Amount)
	}

	if err := e.store.Save(ctx, domain.KindDailyStats, d); err != nil {
		return nil, fmt.Errorf("failed to save daily stats %s: %w", day, err)
	}
	return d, nil
}

// Fresh windowed requery, never an in-place counter bump
func (e *Engine) RecomputePersonaDaily(ctx context.Context, personaID, day string) (*domain.PersonaDailyStats, error) {
	start, end, err := domain.DayWindow(day)
	if err != nil {
		return nil, err
	}

	trades, err := store.FindByAs(ctx, e.store, domain.KindTrade, func(t *domain.Trade) bool {
		return t.PersonaID == personaID && domain.InDay(t.Timestamp, start, end)
	})
	if err != nil {
		return nil, fmt.Errorf("trade scan failed: %w", err)
	}

	row := &domain.PersonaDailyStats{
		ID:        domain.PersonaDayID(personaID, day),
		PersonaID: personaID,
		Date:      day,
		Volume:    new(big.Int),
		UpdatedAt: time.Now().UTC(),
	}

	traders := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		row.Trades++
		traders[t.Trader] = struct{}{}
		if t.IsBuy {
			row.Volume.Add(row.Volume, t.AmountIn)
		} else {
			row.Volume.Add(row.Volume, t.AmountOut)
		}
	}
	row.UniqueTraders = int64(len(traders))

	if err := e.store.Save(ctx, domain.KindPersonaDailyStats, row); err != nil {
		return nil, fmt.Errorf("failed to save persona daily stats %s: %w", row.ID, err)
	}
	return row, nil
}
