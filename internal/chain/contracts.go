package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Address book mapping watched contract addresses to roles
type Contracts struct {
	byAddr map[common.Address]Role
}

// NewContracts builds the address book from config (role -> 0x address)
func NewContracts(contracts map[string]string) (*Contracts, error) {
	byAddr := make(map[common.Address]Role, len(contracts))

	for role, addr := range contracts {
		switch Role(role) {
		case RoleFactory, RoleBonding, RoleAgent, RoleStaking, RoleBridge:
		default:
			return nil, fmt.Errorf("unknown contract role %q", role)
		}

		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("role %s: invalid address %q", role, addr)
		}
		byAddr[common.HexToAddress(addr)] = Role(role)
	}

	return &Contracts{byAddr: byAddr}, nil
}

// RoleOf resolves a log address; ok=false means the log is not ours
func (c *Contracts) RoleOf(addr common.Address) (Role, bool) {
	role, ok := c.byAddr[addr]
	return role, ok
}
