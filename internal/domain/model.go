package domain

import (
	"math/big"
	"time"
)

// Collection names used by the entity store
const (
	KindPersona           = "personas"
	KindPersonaMetadata   = "persona_metadata"
	KindTrade             = "trades"
	KindAgentDeposit      = "agent_deposits"
	KindAgentWithdrawal   = "agent_withdrawals"
	KindAgentReward       = "agent_rewards"
	KindStakingPool       = "staking_pools"
	KindUserStake         = "user_stakes"
	KindStakeLock         = "stake_locks"
	KindStakeWithdrawal   = "stake_withdrawals"
	KindBridgeActivity    = "bridge_activities"
	KindGlobalStats       = "global_stats"
	KindDailyStats        = "daily_stats"
	KindPersonaDailyStats = "persona_daily_stats"
)

// Tradable entity created by the factory contract; mutated by trading,
// graduation, agent and metadata events, never deleted
type Persona struct {
	ID                  string    `json:"id"` // decimal tokenId
	Creator             string    `json:"creator"`
	Owner               string    `json:"owner"`
	Token               string    `json:"token"`
	AgentToken          string    `json:"agent_token"`
	PairCreated         bool      `json:"pair_created"` // graduation is terminal
	GraduationPool      string    `json:"graduation_pool"`
	TotalDeposited      *big.Int  `json:"total_deposited"`       // never negative
	TokensSold          *big.Int  `json:"tokens_sold"`           // never negative
	TotalAgentDeposited *big.Int  `json:"total_agent_deposited"` // never negative
	MinAgentTokens      *big.Int  `json:"min_agent_tokens"`
	CreatedAt           time.Time `json:"created_at"`
	CreatedBlock        uint64    `json:"created_block"`
}

func (p *Persona) EntityID() string { return p.ID }

// Key/value metadata row, id = "{personaId}-{key}"; the stored value is always
// re-read from the authoritative read path, never taken from the event payload
type PersonaMetadata struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"persona_id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *PersonaMetadata) EntityID() string { return m.ID }

// Immutable trade row, id = "{txHash}-{logIndex}"; Fee may be back-filled by a
// later fee event in the same transaction
type Trade struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"persona_id"`
	Trader    string    `json:"trader"`
	AmountIn  *big.Int  `json:"amount_in"`
	AmountOut *big.Int  `json:"amount_out"`
	IsBuy     bool      `json:"is_buy"`
	Fee       *big.Int  `json:"fee"`
	TxHash    string    `json:"tx_hash"`
	Timestamp time.Time `json:"timestamp"`
	Block     uint64    `json:"block"`
}

func (t *Trade) EntityID() string { return t.ID }

// Agent token deposit; Withdrawn and RewardsClaimed flip false->true once and
// are never reversed
type AgentDeposit struct {
	ID             string    `json:"id"`
	PersonaID      string    `json:"persona_id"`
	User           string    `json:"user"`
	Amount         *big.Int  `json:"amount"`
	Withdrawn      bool      `json:"withdrawn"`
	RewardsClaimed bool      `json:"rewards_claimed"`
	Timestamp      time.Time `json:"timestamp"`
	Block          uint64    `json:"block"`
}

func (d *AgentDeposit) EntityID() string { return d.ID }

// Withdrawal receipt, id = "{txHash}-{logIndex}"; its presence makes replaying
// the same withdrawal event a no-op
type AgentWithdrawal struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"persona_id"`
	User      string    `json:"user"`
	Amount    *big.Int  `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	Block     uint64    `json:"block"`
}

func (w *AgentWithdrawal) EntityID() string { return w.ID }

type AgentReward struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"persona_id"`
	User      string    `json:"user"`
	Amount    *big.Int  `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	Block     uint64    `json:"block"`
}

func (r *AgentReward) EntityID() string { return r.ID }

type StakingPool struct {
	ID           string    `json:"id"` // decimal poolId
	StakingToken string    `json:"staking_token"`
	TotalStaked  *big.Int  `json:"total_staked"` // never negative
	CreatedAt    time.Time `json:"created_at"`
	CreatedBlock uint64    `json:"created_block"`
}

func (p *StakingPool) EntityID() string { return p.ID }

// Per-user running total in one pool, id = "{poolId}-{lowercased address}"
type UserStake struct {
	ID          string    `json:"id"`
	PoolID      string    `json:"pool_id"`
	User        string    `json:"user"`
	TotalStaked *big.Int  `json:"total_staked"` // never negative
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *UserStake) EntityID() string { return s.ID }

// Individual time-locked stake entry, consumed FIFO on withdrawal
type StakeLock struct {
	ID        string    `json:"id"`
	PoolID    string    `json:"pool_id"`
	User      string    `json:"user"`
	Amount    *big.Int  `json:"amount"`
	UnlocksAt time.Time `json:"unlocks_at"`
	Withdrawn bool      `json:"withdrawn"`
	Timestamp time.Time `json:"timestamp"`
	Block     uint64    `json:"block"`
}

func (l *StakeLock) EntityID() string { return l.ID }

// Withdrawal receipt, same role as AgentWithdrawal but scoped to a pool
type StakeWithdrawal struct {
	ID        string    `json:"id"`
	PoolID    string    `json:"pool_id"`
	User      string    `json:"user"`
	Amount    *big.Int  `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	Block     uint64    `json:"block"`
}

func (w *StakeWithdrawal) EntityID() string { return w.ID }

type BridgeAction string

const (
	BridgeWrap              BridgeAction = "wrap"
	BridgeUnwrap            BridgeAction = "unwrap"
	BridgeEmergencyWithdraw BridgeAction = "emergency_withdraw"
)

type BridgeActivity struct {
	ID        string       `json:"id"`
	User      string       `json:"user"`
	Action    BridgeAction `json:"action"`
	Amount    *big.Int     `json:"amount"`
	Timestamp time.Time    `json:"timestamp"`
	Block     uint64       `json:"block"`
}

func (b *BridgeActivity) EntityID() string { return b.ID }

// Singleton derived view, id = "global"; always equals a full recompute over
// the base collections
type GlobalStats struct {
	ID               string    `json:"id"`
	TotalPersonas    int64     `json:"total_personas"`
	TotalTrades      int64     `json:"total_trades"`
	BuyTrades        int64     `json:"buy_trades"`
	SellTrades       int64     `json:"sell_trades"`
	TotalVolume      *big.Int  `json:"total_volume"`
	BuyVolume        *big.Int  `json:"buy_volume"`  // sum amountIn over buys
	SellVolume       *big.Int  `json:"sell_volume"` // sum amountOut over sells
	StakingPools     int64     `json:"staking_pools"`
	TotalStaked      *big.Int  `json:"total_staked"`
	BridgeWrapVolume *big.Int  `json:"bridge_wrap_volume"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (g *GlobalStats) EntityID() string { return g.ID }

// Derived view for one half-open UTC day, id = "YYYY-MM-DD"
type DailyStats struct {
	ID               string    `json:"id"`
	Trades           int64     `json:"trades"`
	BuyTrades        int64     `json:"buy_trades"`
	SellTrades       int64     `json:"sell_trades"`
	Volume           *big.Int  `json:"volume"`
	BuyVolume        *big.Int  `json:"buy_volume"`
	SellVolume       *big.Int  `json:"sell_volume"`
	UniqueTraders    int64     `json:"unique_traders"`
	BridgeWrapVolume *big.Int  `json:"bridge_wrap_volume"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (d *DailyStats) EntityID() string { return d.ID }

// Derived view for one persona on one day, id = "{personaId}-{YYYY-MM-DD}"
type PersonaDailyStats struct {
	ID            string    `json:"id"`
	PersonaID     string    `json:"persona_id"`
	Date          string    `json:"date"`
	Trades        int64     `json:"trades"`
	Volume        *big.Int  `json:"volume"`
	UniqueTraders int64     `json:"unique_traders"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (p *PersonaDailyStats) EntityID() string { return p.ID }
