package handlers

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"personastats/internal/chain"
	"personastats/internal/dispatch"
	"personastats/internal/domain"
	"personastats/internal/store"
)

func HandleWrapped(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	return recordBridgeActivity(ctx, env, ev, domain.BridgeWrap)
}

func HandleUnwrapped(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	return recordBridgeActivity(ctx, env, ev, domain.BridgeUnwrap)
}

func HandleEmergencyWithdrawn(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	return recordBridgeActivity(ctx, env, ev, domain.BridgeEmergencyWithdraw)
}

func recordBridgeActivity(ctx context.Context, env *dispatch.Env, ev *chain.Event, action domain.BridgeAction) error {
	activityID := domain.LogID(ev.TxHash.Hex(), ev.LogIndex)

	if _, err := env.Store.Get(ctx, domain.KindBridgeActivity, activityID); err == nil {
		env.Log.Warnf("Bridge activity %s already exists, skipping (redelivery)", activityID)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("activity lookup failed: %w", err)
	}

	activity := &domain.BridgeActivity{
		ID:        activityID,
		User:      ev.Args.Address("user"),
		Action:    action,
		Amount:    new(big.Int).Set(ev.Args.BigInt("amount")),
		Timestamp: ev.BlockTime,
		Block:     ev.BlockNumber,
	}
	if err := env.Store.Insert(ctx, domain.KindBridgeActivity, activity); err != nil {
		return fmt.Errorf("failed to insert bridge activity %s: %w", activityID, err)
	}

	env.Touched.MarkActivity(ev.BlockTime)
	return nil
}
