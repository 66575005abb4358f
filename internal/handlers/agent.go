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

func HandleAgentTokensDeposited(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	depositID := domain.LogID(ev.TxHash.Hex(), ev.LogIndex)

	if _, err := env.Store.Get(ctx, domain.KindAgentDeposit, depositID); err == nil {
		env.Log.Warnf("Agent deposit %s already exists, skipping (redelivery)", depositID)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("deposit lookup failed: %w", err)
	}

	personaID := ev.Args.BigInt("tokenId").String()
	p, err := store.GetAs[*domain.Persona](ctx, env.Store, domain.KindPersona, personaID)
	if err != nil {
		env.Log.Errorf("AgentTokensDeposited: persona %s not found, skipping event", personaID)
		return nil
	}

	amount := ev.Args.BigInt("amount")

	deposit := &domain.AgentDeposit{
		ID:        depositID,
		PersonaID: personaID,
		User:      ev.Args.Address("user"),
		Amount:    new(big.Int).Set(amount),
		Timestamp: ev.BlockTime,
		Block:     ev.BlockNumber,
	}
	if err := env.Store.Insert(ctx, domain.KindAgentDeposit, deposit); err != nil {
		return fmt.Errorf("failed to insert deposit %s: %w", depositID, err)
	}

	env.Ledger.ApplyAgentDeposit(p, amount)
	if err := env.Store.Save(ctx, domain.KindPersona, p); err != nil {
		return fmt.Errorf("failed to save persona %s: %w", personaID, err)
	}
	return nil
}

// The persona total moves by the full requested amount while the FIFO matcher
// may leave a nonzero remainder unmatched; both behaviors are deliberate.
// The receipt row keyed by log position is what keeps a replayed event from
// debiting the total twice.
func HandleAgentTokensWithdrawn(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	withdrawalID := domain.LogID(ev.TxHash.Hex(), ev.LogIndex)

	if _, err := env.Store.Get(ctx, domain.KindAgentWithdrawal, withdrawalID); err == nil {
		env.Log.Warnf("Agent withdrawal %s already applied, skipping (redelivery)", withdrawalID)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("withdrawal lookup failed: %w", err)
	}

	personaID := ev.Args.BigInt("tokenId").String()
	p, err := store.GetAs[*domain.Persona](ctx, env.Store, domain.KindPersona, personaID)
	if err != nil {
		env.Log.Errorf("AgentTokensWithdrawn: persona %s not found, skipping event", personaID)
		return nil
	}

	user := ev.Args.Address("user")
	amount := ev.Args.BigInt("amount")

	remaining, err := MatchAgentWithdrawal(ctx, env, personaID, user, amount)
	if err != nil {
		return err
	}
	if remaining.Sign() != 0 {
		env.Log.Debugf("Withdrawal of %s for %s/%s left remainder %s unmatched", amount, personaID, user, remaining)
	}

	withdrawal := &domain.AgentWithdrawal{
		ID:        withdrawalID,
		PersonaID: personaID,
		User:      user,
		Amount:    new(big.Int).Set(amount),
		Timestamp: ev.BlockTime,
		Block:     ev.BlockNumber,
	}
	if err := env.Store.Insert(ctx, domain.KindAgentWithdrawal, withdrawal); err != nil {
		return fmt.Errorf("failed to insert withdrawal %s: %w", withdrawalID, err)
	}

	env.Ledger.ApplyAgentWithdrawal(p, amount)
	if err := env.Store.Save(ctx, domain.KindPersona, p); err != nil {
		return fmt.Errorf("failed to save persona %s: %w", personaID, err)
	}
	return nil
}

func HandleAgentRewardsDistributed(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	rewardID := domain.LogID(ev.TxHash.Hex(), ev.LogIndex)

	if _, err := env.Store.Get(ctx, domain.KindAgentReward, rewardID); err == nil {
		env.Log.Warnf("Agent reward %s already exists, skipping (redelivery)", rewardID)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("reward lookup failed: %w", err)
	}

	personaID := ev.Args.BigInt("tokenId").String()
	if _, err := env.Store.Get(ctx, domain.KindPersona, personaID); err != nil {
		env.Log.Errorf("AgentRewardsDistributed: persona %s not found, skipping event", personaID)
		return nil
	}

	user := ev.Args.Address("user")

	reward := &domain.AgentReward{
		ID:        rewardID,
		PersonaID: personaID,
		User:      user,
		Amount:    new(big.Int).Set(ev.Args.BigInt("amount")),
		Timestamp: ev.BlockTime,
		Block:     ev.BlockNumber,
	}
	if err := env.Store.Insert(ctx, domain.KindAgentReward, reward); err != nil {
		return fmt.Errorf("failed to insert reward %s: %w", rewardID, err)
	}

	return ClaimAgentRewards(ctx, env, personaID, user)
}
