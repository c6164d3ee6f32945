// Package domain holds the entity model shared by the evaluator, the
// DAG engine, the ledger, and the store: agents, policies, rules, and
// audit entries.
package domain

import "github.com/google/uuid"

// AgentId, PolicyId, RuleId, and EntryId are opaque 128-bit
// identifiers. They are comparable and usable as map keys.
type (
	AgentId    = uuid.UUID
	PolicyId   = uuid.UUID
	RuleId     = uuid.UUID
	EntryId    = uuid.UUID
	DomainName = string
	Timestamp  = float64
)

// NewID generates a new random (v4) identifier. Agent, Policy, Rule,
// and AuditEntry identifiers are all drawn from this source.
func NewID() uuid.UUID {
	return uuid.New()
}
