package chain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Contract role, resolved from the log address via config
type Role string

const (
	RoleFactory Role = "factory"
	RoleBonding Role = "bonding"
	RoleAgent   Role = "agent"
	RoleStaking Role = "staking"
	RoleBridge  Role = "bridge"
)

// One block handed in by the external retrieval subsystem; logs are
// pre-filtered to relevant addresses and ordered by log index
type Block struct {
	Height uint64
	Time   time.Time
	Logs   []Log
}

type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
	TxHash  common.Hash
	Index   uint
}

// Decoded log, ready for dispatch
type Event struct {
	Role        Role
	Name        string
	Args        Args
	TxHash      common.Hash
	LogIndex    uint
	BlockNumber uint64
	BlockTime   time.Time
}
