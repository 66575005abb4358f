package handlers

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"personastats/internal/chain"
	"personastats/internal/dispatch"
	"personastats/internal/domain"
	"personastats/internal/store"
)

func HandleTokensPurchased(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	tradeID := domain.LogID(ev.TxHash.Hex(), ev.LogIndex)

	if _, err := env.Store.Get(ctx, domain.KindTrade, tradeID); err == nil {
		env.Log.Warnf("Trade %s already exists, skipping (redelivery)", tradeID)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("trade lookup failed: %w", err)
	}

	personaID := ev.Args.BigInt("tokenId").String()
	p, err := store.GetAs[*domain.Persona](ctx, env.Store, domain.KindPersona, personaID)
	if err != nil {
		env.Log.Errorf("TokensPurchased: persona %s not found, skipping event", personaID)
		return nil
	}

	amountSpent := ev.Args.BigInt("amountSpent")
	tokensReceived := ev.Args.BigInt("tokensReceived")

	env.Ledger.ApplyPurchase(p, amountSpent, tokensReceived)
	if err := env.Store.Save(ctx, domain.KindPersona, p); err != nil {
		return fmt.Errorf("failed to save persona %s: %w", personaID, err)
	}

	trade := &domain.Trade{
		ID:        tradeID,
		PersonaID: personaID,
		Trader:    ev.Args.Address("buyer"),
		AmountIn:  new(big.Int).Set(amountSpent),
		AmountOut: new(big.Int).Set(tokensReceived),
		IsBuy:     true,
		TxHash:    strings.ToLower(ev.TxHash.Hex()),
		Timestamp: ev.BlockTime,
		Block:     ev.BlockNumber,
	}
	if err := env.Store.Insert(ctx, domain.KindTrade, trade); err != nil {
		return fmt.Errorf("failed to insert trade %s: %w", tradeID, err)
	}

	env.Touched.MarkTrade(personaID, ev.BlockTime)
	return nil
}

func HandleTokensSold(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	tradeID := domain.LogID(ev.TxHash.Hex(), ev.LogIndex)

	if _, err := env.Store.Get(ctx, domain.KindTrade, tradeID); err == nil {
		env.Log.Warnf("Trade %s already exists, skipping (redelivery)", tradeID)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("trade lookup failed: %w", err)
	}

	personaID := ev.Args.BigInt("tokenId").String()
	p, err := store.GetAs[*domain.Persona](ctx, env.Store, domain.KindPersona, personaID)
	if err != nil {
		env.Log.Errorf("TokensSold: persona %s not found, skipping event", personaID)
		return nil
	}

	tokensSold := ev.Args.BigInt("tokensSold")
	amountReceived := ev.Args.BigInt("amountReceived")

	env.Ledger.ApplySale(p, tokensSold, amountReceived)
	if err := env.Store.Save(ctx, domain.KindPersona, p); err != nil {
		return fmt.Errorf("failed to save persona %s: %w", personaID, err)
	}

	trade := &domain.Trade{
		ID:        tradeID,
		PersonaID: personaID,
		Trader:    ev.Args.Address("seller"),
		AmountIn:  new(big.Int).Set(tokensSold),
		AmountOut: new(big.Int).Set(amountReceived),
		IsBuy:     false,
		TxHash:    strings.ToLower(ev.TxHash.Hex()),
		Timestamp: ev.BlockTime,
		Block:     ev.BlockNumber,
	}
	if err := env.Store.Insert(ctx, domain.KindTrade, trade); err != nil {
		return fmt.Errorf("failed to insert trade %s: %w", tradeID, err)
	}

	env.Touched.MarkTrade(personaID, ev.BlockTime)
	return nil
}

// The fee event carries no trade key beyond its own transaction, so the fee
// is back-filled onto the oldest trade of that transaction that has none yet
func HandleFeesCollected(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	txHash := strings.ToLower(ev.TxHash.Hex())

	trades, err := store.FindByAs(ctx, env.Store, domain.KindTrade, func(t *domain.Trade) bool {
		return t.TxHash == txHash && t.Fee == nil
	})
	if err != nil {
		return fmt.Errorf("trade scan failed: %w", err)
	}
	if len(trades) == 0 {
		env.Log.Errorf("FeesCollected: no fee-less trade in tx %s, skipping event", txHash)
		return nil
	}

	trade := trades[0]
	trade.Fee = new(big.Int).Set(ev.Args.BigInt("fee"))
	if err := env.Store.Save(ctx, domain.KindTrade, trade); err != nil {
		return fmt.Errorf("failed to save trade %s: %w", trade.ID, err)
	}
	return nil
}
