package ledger

import (
	"math/big"

	"gitlab.com/nevasik7/alerting/logger"

	"personastats/internal/domain"
)

// Running-total bookkeeping for personas and staking pools. Every subtraction
// goes through here so the non-negativity invariant is enforced in one place:
// an underflow clamps to zero with a warning, never fails and never goes
// negative.
type Ledger struct {
	log logger.Logger
}

func New(log logger.Logger) *Ledger {
	return &Ledger{log: log}
}

// ApplyPurchase credits a buy: pair tokens in, persona tokens out of the curve
func (l *Ledger) ApplyPurchase(p *domain.Persona, amountSpent, tokensReceived *big.Int) {
	p.TotalDeposited = add(p.TotalDeposited, amountSpent)
	p.TokensSold = add(p.TokensSold, tokensReceived)
}

// ApplySale debits a sell; both totals clamp at zero
func (l *Ledger) ApplySale(p *domain.Persona, tokensSold, amountReceived *big.Int) {
	p.TokensSold = l.sub(p.TokensSold, tokensSold, "persona", p.ID, "tokensSold")
	p.TotalDeposited = l.sub(p.TotalDeposited, amountReceived, "persona", p.ID, "totalDeposited")
}

func (l *Ledger) ApplyAgentDeposit(p *domain.Persona, amount *big.Int) {
	p.TotalAgentDeposited = add(p.TotalAgentDeposited, amount)
}

// ApplyAgentWithdrawal debits the requested amount, not the matched amount;
// the FIFO matcher may under-withdraw deposits while the total still moves by
// the full request
func (l *Ledger) ApplyAgentWithdrawal(p *domain.Persona, amount *big.Int) {
	p.TotalAgentDeposited = l.sub(p.TotalAgentDeposited, amount, "persona", p.ID, "totalAgentDeposited")
}

func (l *Ledger) ApplyStake(pool *domain.StakingPool, amount *big.Int) {
	pool.TotalStaked = add(pool.TotalStaked, amount)
}

func (l *Ledger) ApplyStakeWithdrawal(pool *domain.StakingPool, amount *big.Int) {
	pool.TotalStaked = l.sub(pool.TotalStaked, amount, "pool", pool.ID, "totalStaked")
}

func (l *Ledger) ApplyUserStake(s *domain.UserStake, amount *big.Int) {
	s.TotalStaked = add(s.TotalStaked, amount)
}

func (l *Ledger) ApplyUserStakeWithdrawal(s *domain.UserStake, amount *big.Int) {
	s.TotalStaked = l.sub(s.TotalStaked, amount, "user_stake", s.ID, "totalStaked")
}

func add(cur, delta *big.Int) *big.Int {
	if cur == nil {
		cur = new(big.Int)
	}
	return new(big.Int).Add(cur, delta)
}

func (l *Ledger) sub(cur, delta *big.Int, kind, id, field string) *big.Int {
	if cur == nil {
		cur = new(big.Int)
	}

	next := new(big.Int).Sub(cur, delta)
	if next.Sign() < 0 {
		l.log.Warnf("Underflow on %s %s field %s: %s - %s, clamping to zero", kind, id, field, cur, delta)
		return new(big.Int)
	}
	return next
}
