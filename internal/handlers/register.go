// Package handlers holds one handler per contract event. Every handler
// follows the same contract: look up the referenced entity by primary key,
// skip the event with an error log when it is missing, mutate, persist.
// Creation handlers check for a pre-existing id first, which is what makes
// replay after a crash safe.
package handlers

import (
	"personastats/internal/chain"
	"personastats/internal/dispatch"
)

func Register(r *dispatch.Registry) {
	r.Register(chain.RoleFactory, chain.EvPersonaCreated, HandlePersonaCreated)
	r.Register(chain.RoleFactory, chain.EvMetadataUpdated, HandleMetadataUpdated)
	r.Register(chain.RoleFactory, chain.EvGraduated, HandleGraduated)

	r.Register(chain.RoleBonding, chain.EvTokensPurchased, HandleTokensPurchased)
	r.Register(chain.RoleBonding, chain.EvTokensSold, HandleTokensSold)
	r.Register(chain.RoleBonding, chain.EvFeesCollected, HandleFeesCollected)

	r.Register(chain.RoleAgent, chain.EvAgentTokensDeposited, HandleAgentTokensDeposited)
	r.Register(chain.RoleAgent, chain.EvAgentTokensWithdrawn, HandleAgentTokensWithdrawn)
	r.Register(chain.RoleAgent, chain.EvAgentRewardsDistributed, HandleAgentRewardsDistributed)
	r.Register(chain.RoleAgent, chain.EvMinAgentTokensSet, HandleMinAgentTokensSet)

	r.Register(chain.RoleStaking, chain.EvPoolCreated, HandlePoolCreated)
	r.Register(chain.RoleStaking, chain.EvStaked, HandleStaked)
	r.Register(chain.RoleStaking, chain.EvWithdrawn, HandleStakeWithdrawn)

	r.Register(chain.RoleBridge, chain.EvWrapped, HandleWrapped)
	r.Register(chain.RoleBridge, chain.EvUnwrapped, HandleUnwrapped)
	r.Register(chain.RoleBridge, chain.EvEmergencyWithdrawn, HandleEmergencyWithdrawn)
}
