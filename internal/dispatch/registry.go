package dispatch

import (
	"context"
	"fmt"

	"gitlab.com/nevasik7/alerting/logger"

	"personastats/internal/chain"
	"personastats/internal/ledger"
	"personastats/internal/store"
)

// Batch-scoped environment threaded through every handler invocation
type Env struct {
	Store   store.Store
	Ledger  *ledger.Ledger
	Log     logger.Logger
	Meta    chain.MetadataReader // may be nil; metadata handler degrades to warn+keep
	Touched *Touched
}

type HandlerFunc func(ctx context.Context, env *Env, ev *chain.Event) error

type handlerKey struct {
	role  chain.Role
	event string
}

// Handler registry keyed by (contract role, event name), built once at
// startup; each handler stays independently unit-testable
type Registry struct {
	m map[handlerKey]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[handlerKey]HandlerFunc, 32)}
}

func (r *Registry) Register(role chain.Role, event string, h HandlerFunc) {
	k := handlerKey{role: role, event: event}
	if _, exists := r.m[k]; exists {
		panic(fmt.Sprintf("duplicate handler registration for %s/%s", role, event))
	}
	r.m[k] = h
}

func (r *Registry) Resolve(role chain.Role, event string) (HandlerFunc, bool) {
	h, ok := r.m[handlerKey{role: role, event: event}]
	return h, ok
}
