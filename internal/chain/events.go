package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// Event names, shared with handler registration
const (
	EvPersonaCreated          = "PersonaCreated"
	EvMetadataUpdated         = "MetadataUpdated"
	EvGraduated               = "Graduated"
	EvTokensPurchased         = "TokensPurchased"
	EvTokensSold              = "TokensSold"
	EvFeesCollected           = "FeesCollected"
	EvAgentTokensDeposited    = "AgentTokensDeposited"
	EvAgentTokensWithdrawn    = "AgentTokensWithdrawn"
	EvAgentRewardsDistributed = "AgentRewardsDistributed"
	EvMinAgentTokensSet       = "MinAgentTokensSet"
	EvPoolCreated             = "PoolCreated"
	EvStaked                  = "Staked"
	EvWithdrawn               = "Withdrawn"
	EvWrapped                 = "Wrapped"
	EvUnwrapped               = "Unwrapped"
	EvEmergencyWithdrawn      = "EmergencyWithdrawn"
)

type argSpec struct {
	Name    string
	Type    string // solidity type
	Indexed bool
}

type eventSpec struct {
	Role Role
	Name string
	Args []argSpec

	id      [32]byte
	indexed []argSpec
	data    abi.Arguments
}

func mustType(solidity string) abi.Type {
	t, err := abi.NewType(solidity, "", nil)
	if err != nil {
		panic(fmt.Sprintf("bad abi type %q: %v", solidity, err))
	}
	return t
}

func newSpec(role Role, name string, args ...argSpec) *eventSpec {
	s := &eventSpec{Role: role, Name: name, Args: args}

	types := make([]string, 0, len(args))
	for _, a := range args {
		types = append(types, a.Type)
		if a.Indexed {
			s.indexed = append(s.indexed, a)
			continue
		}
		s.data = append(s.data, abi.Argument{Name: a.Name, Type: mustType(a.Type)})
	}

	sig := fmt.Sprintf("%s(%s)", name, strings.Join(types, ","))
	copy(s.id[:], crypto.Keccak256([]byte(sig)))
	return s
}

func idx(name, typ string) argSpec  { return argSpec{Name: name, Type: typ, Indexed: true} }
func data(name, typ string) argSpec { return argSpec{Name: name, Type: typ} }

// The full schema of the contract family; topic0 is the Keccak256 hash of the
// canonical signature
var eventSpecs = []*eventSpec{
	newSpec(RoleFactory, EvPersonaCreated,
		idx("tokenId", "uint256"), idx("creator", "address"),
		data("token", "address"), data("agentToken", "address")),
	newSpec(RoleFactory, EvMetadataUpdated,
		idx("tokenId", "uint256"), data("key", "string")),
	newSpec(RoleFactory, EvGraduated,
		idx("tokenId", "uint256"), data("pool", "address")),

	newSpec(RoleBonding, EvTokensPurchased,
		idx("tokenId", "uint256"), idx("buyer", "address"),
		data("amountSpent", "uint256"), data("tokensReceived", "uint256")),
	newSpec(RoleBonding, EvTokensSold,
		idx("tokenId", "uint256"), idx("seller", "address"),
		data("tokensSold", "uint256"), data("amountReceived", "uint256")),
	newSpec(RoleBonding, EvFeesCollected,
		idx("tokenId", "uint256"), data("fee", "uint256")),

	newSpec(RoleAgent, EvAgentTokensDeposited,
		idx("tokenId", "uint256"), idx("user", "address"), data("amount", "uint256")),
	newSpec(RoleAgent, EvAgentTokensWithdrawn,
		idx("tokenId", "uint256"), idx("user", "address"), data("amount", "uint256")),
	newSpec(RoleAgent, EvAgentRewardsDistributed,
		idx("tokenId", "uint256"), idx("user", "address"), data("amount", "uint256")),
	newSpec(RoleAgent, EvMinAgentTokensSet,
		idx("tokenId", "uint256"), data("amount", "uint256")),

	newSpec(RoleStaking, EvPoolCreated,
		idx("poolId", "uint256"), data("stakingToken", "address")),
	newSpec(RoleStaking, EvStaked,
		idx("poolId", "uint256"), idx("user", "address"),
		data("amount", "uint256"), data("lockDuration", "uint256")),
	newSpec(RoleStaking, EvWithdrawn,
		idx("poolId", "uint256"), idx("user", "address"), data("amount", "uint256")),

	newSpec(RoleBridge, EvWrapped,
		idx("user", "address"), data("amount", "uint256")),
	newSpec(RoleBridge, EvUnwrapped,
		idx("user", "address"), data("amount", "uint256")),
	newSpec(RoleBridge, EvEmergencyWithdrawn,
		idx("user", "address"), data("amount", "uint256")),
}
