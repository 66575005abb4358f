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

func HandlePersonaCreated(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	id := ev.Args.BigInt("tokenId").String()

	_, err := env.Store.Get(ctx, domain.KindPersona, id)
	if err == nil {
		env.Log.Warnf("Persona %s already exists, skipping creation (redelivery)", id)
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("persona lookup failed: %w", err)
	}

	creator := ev.Args.Address("creator")
	p := &domain.Persona{
		ID:                  id,
		Creator:             creator,
		Owner:               creator,
		Token:               ev.Args.Address("token"),
		AgentToken:          ev.Args.Address("agentToken"),
		TotalDeposited:      new(big.Int),
		TokensSold:          new(big.Int),
		TotalAgentDeposited: new(big.Int),
		MinAgentTokens:      new(big.Int),
		CreatedAt:           ev.BlockTime,
		CreatedBlock:        ev.BlockNumber,
	}

	if err := env.Store.Insert(ctx, domain.KindPersona, p); err != nil {
		return fmt.Errorf("failed to insert persona %s: %w", id, err)
	}

	env.Log.Infof("Persona %s created by %s at block %d", id, creator, ev.BlockNumber)
	return nil
}

// Graduation is terminal: pairCreated flips false->true exactly once.
// Replaying the event with the same pool is a no-op.
func HandleGraduated(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	id := ev.Args.BigInt("tokenId").String()

	p, err := store.GetAs[*domain.Persona](ctx, env.Store, domain.KindPersona, id)
	if err != nil {
		env.Log.Errorf("Graduated: persona %s not found, skipping event", id)
		return nil
	}

	pool := ev.Args.Address("pool")
	if p.PairCreated {
		if p.GraduationPool != pool {
			env.Log.Warnf("Persona %s already graduated to %s, ignoring pool %s", id, p.GraduationPool, pool)
		}
		return nil
	}

	p.PairCreated = true
	p.GraduationPool = pool

	if err := env.Store.Save(ctx, domain.KindPersona, p); err != nil {
		return fmt.Errorf("failed to save persona %s: %w", id, err)
	}

	env.Log.Infof("Persona %s graduated to pool %s", id, pool)
	return nil
}

// The event payload is only a change signal; the current value comes from the
// authoritative read path. On read failure the previously stored value stays.
func HandleMetadataUpdated(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	id := ev.Args.BigInt("tokenId").String()
	key := ev.Args.String("key")

	if _, err := env.Store.Get(ctx, domain.KindPersona, id); err != nil {
		env.Log.Errorf("MetadataUpdated: persona %s not found, skipping event", id)
		return nil
	}

	if env.Meta == nil {
		env.Log.Warnf("No metadata read path configured, keeping stored value for %s/%s", id, key)
		return nil
	}

	value, err := env.Meta.Read(ctx, id, key)
	if err != nil {
		env.Log.Warnf("Metadata read failed for %s/%s, keeping stored value: %v", id, key, err)
		return nil
	}

	row := &domain.PersonaMetadata{
		ID:        domain.MetadataID(id, key),
		PersonaID: id,
		Key:       key,
		Value:     value,
		UpdatedAt: ev.BlockTime,
	}
	if err := env.Store.Save(ctx, domain.KindPersonaMetadata, row); err != nil {
		return fmt.Errorf("failed to save metadata %s: %w", row.ID, err)
	}
	return nil
}

// MinAgentTokensSet carries the threshold directly; no external read needed
func HandleMinAgentTokensSet(ctx context.Context, env *dispatch.Env, ev *chain.Event) error {
	id := ev.Args.BigInt("tokenId").String()

	p, err := store.GetAs[*domain.Persona](ctx, env.Store, domain.KindPersona, id)
	if err != nil {
		env.Log.Errorf("MinAgentTokensSet: persona %s not found, skipping event", id)
		return nil
	}

	p.MinAgentTokens = new(big.Int).Set(ev.Args.BigInt("amount"))
	if err := env.Store.Save(ctx, domain.KindPersona, p); err != nil {
		return fmt.Errorf("failed to save persona %s: %w", id, err)
	}
	return nil
}
