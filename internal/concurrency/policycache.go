package concurrency

import (
	"github.com/j-raghavan/chronoguard-lite/internal/domain"
)

// PolicyCache is a thread-safe policy cache backed by two striped
// maps: policy ID -> Policy, and agent ID -> ordered policy IDs.
// Assignment updates are copy-on-write: Update's callback returns a
// new slice rather than mutating one in place, so a reader holding a
// previously-read slice never observes a partial mutation from a
// concurrent writer.
type PolicyCache struct {
	policies      *StripedMap
	agentPolicies *StripedMap
}

// NewPolicyCache creates a cache with numStripes shards per internal
// map (numStripes must be a positive power of two).
func NewPolicyCache(numStripes int) (*PolicyCache, error) {
	policies, err := NewStripedMap(numStripes)
	if err != nil {
		return nil, err
	}
	agentPolicies, err := NewStripedMap(numStripes)
	if err != nil {
		return nil, err
	}
	return &PolicyCache{policies: policies, agentPolicies: agentPolicies}, nil
}

// AddPolicy stores a policy, overwriting any existing entry with the
// same ID.
func (c *PolicyCache) AddPolicy(p *domain.Policy) {
	c.policies.Put(p.ID.String(), p)
}

// GetPolicy retrieves a policy by ID.
func (c *PolicyCache) GetPolicy(id domain.PolicyId) (*domain.Policy, bool) {
	v, ok := c.policies.Get(id.String())
	if !ok {
		return nil, false
	}
	return v.(*domain.Policy), true
}

// RemovePolicy removes a policy, reporting whether it existed.
func (c *PolicyCache) RemovePolicy(id domain.PolicyId) bool {
	return c.policies.Delete(id.String())
}

// AssignPolicyToAgent adds a policy to an agent's assignment list,
// idempotently (duplicates are ignored). The read-modify-write is
// atomic: the write lock on the agent's stripe is held for the
// entire sequence, so two concurrent assigns can't each read the
// same list and silently drop the other's append.
func (c *PolicyCache) AssignPolicyToAgent(agentID domain.AgentId, policyID domain.PolicyId) {
	c.agentPolicies.Update(agentID.String(), []domain.PolicyId{}, func(current any) any {
		ids := current.([]domain.PolicyId)
		for _, id := range ids {
			if id == policyID {
				return ids
			}
		}
		next := make([]domain.PolicyId, len(ids), len(ids)+1)
		copy(next, ids)
		return append(next, policyID)
	})
}

// RemovePolicyFromAgent removes a policy from an agent's assignment
// list, reporting whether it was actually assigned.
func (c *PolicyCache) RemovePolicyFromAgent(agentID domain.AgentId, policyID domain.PolicyId) bool {
	removed := false
	result := c.agentPolicies.Update(agentID.String(), []domain.PolicyId{}, func(current any) any {
		ids := current.([]domain.PolicyId)
		next := make([]domain.PolicyId, 0, len(ids))
		for _, id := range ids {
			if id == policyID {
				removed = true
				continue
			}
			next = append(next, id)
		}
		return next
	})
	if len(result.([]domain.PolicyId)) == 0 {
		c.agentPolicies.Delete(agentID.String())
	}
	return removed
}

// GetPoliciesForAgent returns every policy currently assigned to an
// agent. It snapshots the ID list immediately after Get returns, so
// combined with copy-on-write assignment it always iterates a stable
// list even under concurrent writers.
func (c *PolicyCache) GetPoliciesForAgent(agentID domain.AgentId) []*domain.Policy {
	v, ok := c.agentPolicies.Get(agentID.String())
	if !ok {
		return nil
	}
	ids := v.([]domain.PolicyId)
	result := make([]*domain.Policy, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.GetPolicy(id); ok {
			result = append(result, p)
		}
	}
	return result
}

// PolicyCount returns the total number of cached policies.
func (c *PolicyCache) PolicyCount() int { return c.policies.Size() }

// AgentCount returns the number of agents with policy assignments.
func (c *PolicyCache) AgentCount() int { return c.agentPolicies.Size() }
