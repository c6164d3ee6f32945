package domain

import (
	"fmt"
	"time"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
)

// AgentStatus is the lifecycle state of an Agent.
type AgentStatus uint8

const (
	AgentPending AgentStatus = iota
	AgentActive
	AgentSuspended
	AgentDeactivated
	AgentExpired
)

func (s AgentStatus) String() string {
	switch s {
	case AgentPending:
		return "PENDING"
	case AgentActive:
		return "ACTIVE"
	case AgentSuspended:
		return "SUSPENDED"
	case AgentDeactivated:
		return "DEACTIVATED"
	case AgentExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// agentTransitions enumerates every allowed lifecycle edge. Anything
// not listed here is rejected by transitionTo.
var agentTransitions = map[AgentStatus]map[AgentStatus]bool{
	AgentPending:     {AgentActive: true, AgentDeactivated: true},
	AgentActive:      {AgentSuspended: true, AgentDeactivated: true, AgentExpired: true},
	AgentSuspended:   {AgentActive: true, AgentDeactivated: true},
	AgentDeactivated: {},
	AgentExpired:     {},
}

// maxPoliciesPerAgent caps the assigned-policy list.
const maxPoliciesPerAgent = 50

// Agent is an autonomous caller whose outbound requests are mediated
// by the interceptor. Agent and policy catalogs are provided
// pre-populated; this package only manages lifecycle and assignment,
// never identity issuance.
type Agent struct {
	ID         AgentId
	Name       string
	Status     AgentStatus
	PolicyIDs  []PolicyId
	Attributes map[string]string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastSeenAt *time.Time
}

// NewAgent creates an agent in the PENDING state.
func NewAgent(name string) *Agent {
	now := time.Now().UTC()
	return &Agent{
		ID:         NewID(),
		Name:       name,
		Status:     AgentPending,
		PolicyIDs:  nil,
		Attributes: map[string]string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (a *Agent) transitionTo(next AgentStatus) error {
	allowed := agentTransitions[a.Status]
	if !allowed[next] {
		return apperrors.InvalidTransition(a.Status.String(), next.String(), "agent")
	}
	a.Status = next
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (a *Agent) Activate() error    { return a.transitionTo(AgentActive) }
func (a *Agent) Suspend() error     { return a.transitionTo(AgentSuspended) }
func (a *Agent) Deactivate() error  { return a.transitionTo(AgentDeactivated) }
func (a *Agent) MarkExpired() error { return a.transitionTo(AgentExpired) }

// CanMakeRequests reports whether the agent is request-eligible.
func (a *Agent) CanMakeRequests() bool {
	return a.Status == AgentActive
}

// AssignPolicy adds a policy id to the agent's set, rejecting
// duplicates and enforcing the per-agent cap.
func (a *Agent) AssignPolicy(id PolicyId) error {
	for _, existing := range a.PolicyIDs {
		if existing == id {
			return apperrors.InvalidArgument(fmt.Sprintf("policy %s already assigned", id))
		}
	}
	if len(a.PolicyIDs) >= maxPoliciesPerAgent {
		return apperrors.InvalidArgument(fmt.Sprintf("maximum %d policies per agent", maxPoliciesPerAgent))
	}
	a.PolicyIDs = append(a.PolicyIDs, id)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// RemovePolicy removes a previously assigned policy id.
func (a *Agent) RemovePolicy(id PolicyId) error {
	for i, existing := range a.PolicyIDs {
		if existing == id {
			a.PolicyIDs = append(a.PolicyIDs[:i], a.PolicyIDs[i+1:]...)
			a.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return apperrors.InvalidArgument(fmt.Sprintf("policy %s not assigned", id))
}

// Touch records a liveness observation.
func (a *Agent) Touch() {
	now := time.Now().UTC()
	a.LastSeenAt = &now
}
