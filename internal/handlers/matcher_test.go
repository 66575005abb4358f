package handlers

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"personastats/internal/domain"
	"personastats/internal/store"
)

func TestMatchAgentWithdrawal_ConsumesOldestFirst(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	createPersona(ctx, env, 1)

	user := addr(9)
	for i, amount := range []int64{500, 300, 200} {
		if err := depositAgentTokens(ctx, env, 1, user, amount, uint(i+10)); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
	}

	remaining, err := MatchAgentWithdrawal(ctx, env, "1", strings.ToLower(user.Hex()), big.NewInt(800))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if remaining.Sign() != 0 {
		t.Fatalf("expected zero remainder, got %s", remaining)
	}

	deposits, err := store.FindAs[*domain.AgentDeposit](ctx, env.Store, domain.KindAgentDeposit)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(deposits) != 3 {
		t.Fatalf("expected 3 deposits, got %d", len(deposits))
	}
	if !deposits[0].Withdrawn || !deposits[1].Withdrawn {
		t.Fatalf("expected first two deposits withdrawn, got %v %v", deposits[0].Withdrawn, deposits[1].Withdrawn)
	}
	if deposits[2].Withdrawn {
		t.Fatal("third deposit should remain open")
	}
}

func TestMatchAgentWithdrawal_SkipsTooLargeDeposit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	createPersona(ctx, env, 1)

	user := addr(9)
	for i, amount := range []int64{1000, 2000} {
		if err := depositAgentTokens(ctx, env, 1, user, amount, uint(i+10)); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
	}

	remaining, err := MatchAgentWithdrawal(ctx, env, "1", strings.ToLower(user.Hex()), big.NewInt(1500))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if remaining.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected remainder 500, got %s", remaining)
	}

	deposits, err := store.FindAs[*domain.AgentDeposit](ctx, env.Store, domain.KindAgentDeposit)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !deposits[0].Withdrawn {
		t.Fatal("first deposit should be withdrawn")
	}
	if deposits[1].Withdrawn {
		t.Fatal("second deposit should not be split")
	}
}

func TestMatchAgentWithdrawal_IgnoresOtherUsers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	createPersona(ctx, env, 1)

	if err := depositAgentTokens(ctx, env, 1, addr(9), 500, 10); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := depositAgentTokens(ctx, env, 1, addr(8), 500, 11); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	remaining, err := MatchAgentWithdrawal(ctx, env, "1", strings.ToLower(addr(9).Hex()), big.NewInt(1000))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if remaining.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected remainder 500, got %s", remaining)
	}

	other, err := store.FindByAs(ctx, env.Store, domain.KindAgentDeposit, func(d *domain.AgentDeposit) bool {
		return d.User == strings.ToLower(addr(8).Hex())
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if other[0].Withdrawn {
		t.Fatal("deposit of another user must stay untouched")
	}
}

func TestClaimAgentRewards_MarksAllOpenDeposits(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	createPersona(ctx, env, 1)

	user := addr(9)
	for i, amount := range []int64{100, 200, 300} {
		if err := depositAgentTokens(ctx, env, 1, user, amount, uint(i+10)); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
	}

	if err := ClaimAgentRewards(ctx, env, "1", strings.ToLower(user.Hex())); err != nil {
		t.Fatalf("claim: %v", err)
	}

	deposits, err := store.FindAs[*domain.AgentDeposit](ctx, env.Store, domain.KindAgentDeposit)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	for _, d := range deposits {
		if !d.RewardsClaimed {
			t.Fatalf("deposit %s not marked claimed", d.ID)
		}
		if d.Withdrawn {
			t.Fatalf("claiming must not withdraw deposit %s", d.ID)
		}
	}
}
