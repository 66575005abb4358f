package handlers

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"personastats/internal/chain"
	"personastats/internal/dispatch"
	"personastats/internal/domain"
	"personastats/internal/store"
)

func HandlePoolCreated(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	poolID := ev.Args.BigInt("poolId").String()

	if _, err := env.Store.Get(ctx, domain.KindStakingPool, poolID); err == nil {
		env.Log.Warnf("Staking pool %s already exists, skipping creation (redelivery)", poolID)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("pool lookup failed: %w", err)
	}

	pool := &domain.StakingPool{
		ID:           poolID,
		StakingToken: ev.Args.Address("stakingToken"),
		TotalStaked:  new(big.Int),
		CreatedAt:    ev.BlockTime,
		CreatedBlock: ev.BlockNumber,
	}
	if err := env.Store.Insert(ctx, domain.KindStakingPool, pool); err != nil {
		return fmt.Errorf("failed to insert pool %s: %w", poolID, err)
	}
	return nil
}

func HandleStaked(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	lockID := domain.LogID(ev.TxHash.Hex(), ev.LogIndex)

	if _, err := env.Store.Get(ctx, domain.KindStakeLock, lockID); err == nil {
		env.Log.Warnf("Stake lock %s already exists, skipping (redelivery)", lockID)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("lock lookup failed: %w", err)
	}

	poolID := ev.Args.BigInt("poolId").String()
	pool, err := store.GetAs[*domain.StakingPool](ctx, env.Store, domain.KindStakingPool, poolID)
	if err != nil {
		env.Log.Errorf("Staked: pool %s not found, skipping event", poolID)
		return nil
	}

	user := ev.Args.Address("user")
	amount := ev.Args.BigInt("amount")
	lockDuration := ev.Args.BigInt("lockDuration")

	env.Ledger.ApplyStake(pool, amount)
	if err := env.Store.Save(ctx, domain.KindStakingPool, pool); err != nil {
		return fmt.Errorf("failed to save pool %s: %w", poolID, err)
	}

	stakeID := domain.StakeID(poolID, user)
	userStake, err := store.GetAs[*domain.UserStake](ctx, env.Store, domain.KindUserStake, stakeID)
	if errors.Is(err, store.ErrNotFound) {
		userStake = &domain.UserStake{
			ID:          stakeID,
			PoolID:      poolID,
			User:        user,
			TotalStaked: new(big.Int),
		}
	} else if err != nil {
		return fmt.Errorf("user stake lookup failed: %w", err)
	}

	env.Ledger.ApplyUserStake(userStake, amount)
	userStake.UpdatedAt = ev.BlockTime
	if err := env.Store.Save(ctx, domain.KindUserStake, userStake); err != nil {
		return fmt.Errorf("failed to save user stake %s: %w", stakeID, err)
	}

	lock := &domain.StakeLock{
		ID:        lockID,
		PoolID:    poolID,
		User:      user,
		Amount:    new(big.Int).Set(amount),
		UnlocksAt: ev.BlockTime.Add(time.Duration(lockDuration.Int64()) * time.Second),
		Timestamp: ev.BlockTime,
		Block:     ev.BlockNumber,
	}
	if err := env.Store.Insert(ctx, domain.KindStakeLock, lock); err != nil {
		return fmt.Errorf("failed to insert lock %s: %w", lockID, err)
	}
	return nil
}

// Lock entries are consumed by the same FIFO walk as agent deposits; the
// contract enforces lock windows on-chain, so unlock times are not re-checked.
// The receipt row keyed by log position is what keeps a replayed event from
// debiting the pool and user totals twice.
func HandleStakeWithdrawn(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	withdrawalID := domain.LogID(ev.TxHash.Hex(), ev.LogIndex)

	if _, err := env.Store.Get(ctx, domain.KindStakeWithdrawal, withdrawalID); err == nil {
		env.Log.Warnf("Stake withdrawal %s already applied, skipping (redelivery)", withdrawalID)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("withdrawal lookup failed: %w", err)
	}

	poolID := ev.Args.BigInt("poolId").String()
	pool, err := store.GetAs[*domain.StakingPool](ctx, env.Store, domain.KindStakingPool, poolID)
	if err != nil {
		env.Log.Errorf("Withdrawn: pool %s not found, skipping event", poolID)
		return nil
	}

	user := ev.Args.Address("user")
	amount := ev.Args.BigInt("amount")

	remaining, err := MatchLockWithdrawal(ctx, env, poolID, user, amount)
	if err != nil {
		return err
	}
	if remaining.Sign() != 0 {
		env.Log.Debugf("Stake withdrawal of %s for %s/%s left remainder %s unmatched", amount, poolID, user, remaining)
	}

	withdrawal := &domain.StakeWithdrawal{
		ID:        withdrawalID,
		PoolID:    poolID,
		User:      user,
		Amount:    new(big.Int).Set(amount),
		Timestamp: ev.BlockTime,
		Block:     ev.BlockNumber,
	}
	if err := env.Store.Insert(ctx, domain.KindStakeWithdrawal, withdrawal); err != nil {
		return fmt.Errorf("failed to insert withdrawal %s: %w", withdrawalID, err)
	}

	env.Ledger.ApplyStakeWithdrawal(pool, amount)
	if err := env.Store.Save(ctx, domain.KindStakingPool, pool); err != nil {
		return fmt.Errorf("failed to save pool %s: %w", poolID, err)
	}

	stakeID := domain.StakeID(poolID, user)
	userStake, err := store.GetAs[*domain.UserStake](ctx, env.Store, domain.KindUserStake, stakeID)
	if err != nil {
		env.Log.Errorf("Withdrawn: user stake %s not found, pool total already adjusted", stakeID)
		return nil
	}

	env.Ledger.ApplyUserStakeWithdrawal(userStake, amount)
	userStake.UpdatedAt = ev.BlockTime
	if err := env.Store.Save(ctx, domain.KindUserStake, userStake); err != nil {
		return fmt.Errorf("failed to save user stake %s: %w", stakeID, err)
	}
	return nil
}
