package handlers

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	loggerCfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"

	"personastats/internal/chain"
	"personastats/internal/dispatch"
	"personastats/internal/domain"
	"personastats/internal/ledger"
	"personastats/internal/store"
)

var testTime = time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)

func newTestEnv() *dispatch.Env {
	lg := logger.New(loggerCfg.LoggerCfg{Level: "error", Format: "json"})
	return &dispatch.Env{
		Store:   store.NewMemory(lg),
		Ledger:  ledger.New(lg),
		Log:     lg,
		Touched: dispatch.NewTouched(),
	}
}

// makeEvent builds an already-decoded event; tx hash is derived from logIndex
// so fixtures get distinct log ids by default
func makeEvent(role chain.Role, name string, logIndex uint, args chain.Args) *chain.Event {
	return &chain.Event{
		Role:        role,
		Name:        name,
		Args:        args,
		TxHash:      common.HexToHash(fmt.Sprintf("0x%064x", logIndex+1)),
		LogIndex:    logIndex,
		BlockNumber: 100,
		BlockTime:   testTime,
	}
}

func addr(suffix byte) common.Address {
	return common.BytesToAddress([]byte{0xaa, suffix})
}

func createPersona(ctx context.Context, env *dispatch.Env, tokenID int64) {
	ev := makeEvent(chain.RoleFactory, chain.EvPersonaCreated, 0, chain.Args{
		"tokenId":    big.NewInt(tokenID),
		"creator":    addr(1),
		"token":      addr(2),
		"agentToken": addr(3),
	})
	if err := HandlePersonaCreated(ctx, env, ev); err != nil {
		panic(err)
	}
}

func getPersona(ctx context.Context, env *dispatch.Env, tokenID int64) *domain.Persona {
	p, err := store.GetAs[*domain.Persona](ctx, env.Store, domain.KindPersona, big.NewInt(tokenID).String())
	if err != nil {
		panic(err)
	}
	return p
}

func depositAgentTokens(ctx context.Context, env *dispatch.Env, tokenID int64, user common.Address, amount int64, logIndex uint) error {
	return HandleAgentTokensDeposited(ctx, env, makeEvent(chain.RoleAgent, chain.EvAgentTokensDeposited, logIndex, chain.Args{
		"tokenId": big.NewInt(tokenID),
		"user":    user,
		"amount":  big.NewInt(amount),
	}))
}
