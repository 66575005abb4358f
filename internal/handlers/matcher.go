package handlers

import (
	"context"
	"fmt"
	"math/big"

	"personastats/internal/dispatch"
	"personastats/internal/domain"
	"personastats/internal/store"
)

// MatchAgentWithdrawal satisfies a withdrawal by consuming whole deposits in
// original insertion order, oldest first. A deposit larger than the current
// remainder is left untouched: splitting a deposit across a partial
// withdrawal is not supported, and a request that does not land on a deposit
// boundary silently under-withdraws. Returns the unmatched remainder.
func MatchAgentWithdrawal(ctx context.Context, env *dispatch.Env, personaID, user string, amount *big.Int) (*big.Int, error) {
	deposits, err := store.FindByAs(ctx, env.Store, domain.KindAgentDeposit, func(d *domain.AgentDeposit) bool {
		return d.PersonaID == personaID && d.User == user && !d.Withdrawn
	})
	if err != nil {
		return nil, fmt.Errorf("deposit scan failed: %w", err)
	}

	remaining := new(big.Int).Set(amount)
	for _, dep := range deposits {
		if remaining.Sign() == 0 {
			break
		}
		if dep.Amount.Cmp(remaining) > 0 {
			continue
		}

		dep.Withdrawn = true
		if err := env.Store.Save(ctx, domain.KindAgentDeposit, dep); err != nil {
			return nil, fmt.Errorf("failed to save deposit %s: %w", dep.ID, err)
		}
		remaining.Sub(remaining, dep.Amount)
	}

	return remaining, nil
}

// ClaimAgentRewards runs the same walk without amount bookkeeping: every
// un-claimed deposit of (persona, user) gets rewardsClaimed=true
func ClaimAgentRewards(ctx context.Context, env *dispatch.Env, personaID, user string) error {
	deposits, err := store.FindByAs(ctx, env.Store, domain.KindAgentDeposit, func(d *domain.AgentDeposit) bool {
		return d.PersonaID == personaID && d.User == user && !d.RewardsClaimed
	})
	if err != nil {
		return fmt.Errorf("deposit scan failed: %w", err)
	}

	for _, dep := range deposits {
		dep.RewardsClaimed = true
		if err := env.Store.Save(ctx, domain.KindAgentDeposit, dep); err != nil {
			return fmt.Errorf("failed to save deposit %s: %w", dep.ID, err)
		}
	}
	return nil
}

// MatchLockWithdrawal is the lock-entry variant of the FIFO walk, identical
// no-split semantics over StakeLock rows
func MatchLockWithdrawal(ctx context.Context, env *dispatch.Env, poolID, user string, amount *big.Int) (*big.Int, error) {
	locks, err := store.FindByAs(ctx, env.Store, domain.KindStakeLock, func(l *domain.StakeLock) bool {
		return l.PoolID == poolID && l.User == user && !l.Withdrawn
	})
	if err != nil {
		return nil, fmt.Errorf("lock scan failed: %w", err)
	}

	remaining := new(big.Int).Set(amount)
	for _, lock := range locks {
		if remaining.Sign() == 0 {
			break
		}
		if lock.Amount.Cmp(remaining) > 0 {
			continue
		}

		lock.Withdrawn = true
		if err := env.Store.Save(ctx, domain.KindStakeLock, lock); err != nil {
			return nil, fmt.Errorf("failed to save lock %s: %w", lock.ID, err)
		}
		remaining.Sub(remaining, lock.Amount)
	}

	return remaining, nil
}
