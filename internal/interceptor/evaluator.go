package interceptor

import (
	"fmt"
	"sort"
	"time"

	"github.com/j-raghavan/chronoguard-lite/internal/domain"
)

// EvaluationResult is the outcome of evaluating one request against
// an agent's assigned policies.
type EvaluationResult struct {
	Decision domain.AccessDecision
	Reason   string
	PolicyID *domain.PolicyId
	RuleID   *domain.RuleId
}

// PolicyEvaluator is a stateless evaluator: Evaluate is a pure
// function of its arguments, so one instance is safe to share across
// every connection handler.
type PolicyEvaluator struct{}

// NewPolicyEvaluator creates an evaluator.
func NewPolicyEvaluator() *PolicyEvaluator { return &PolicyEvaluator{} }

// Evaluate runs the flat evaluation algorithm:
//  1. If the agent cannot make requests, DENY.
//  2. Sort the agent's policies by priority (lowest number first).
//  3. For each ACTIVE policy, evaluate domain against it at now.
//  4. Map the first matching rule's action to an AccessDecision.
//  5. If nothing matched, NO_MATCHING_POLICY.
func (e *PolicyEvaluator) Evaluate(req InterceptRequest, agent *domain.Agent, policies []*domain.Policy) EvaluationResult {
	if !agent.CanMakeRequests() {
		return EvaluationResult{
			Decision: domain.Deny,
			Reason:   fmt.Sprintf("Agent %s is %s, not ACTIVE", agent.Name, agent.Status),
		}
	}

	now := time.Now().UTC()
	sorted := make([]*domain.Policy, len(policies))
	copy(sorted, policies)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	for _, p := range sorted {
		if p.Status != domain.PolicyActive {
			continue
		}
		action, ruleID, matched := p.Evaluate(req.Domain, now)
		if !matched {
			continue
		}

		decision := domain.Deny
		if action == domain.RuleAllow {
			decision = domain.Allow
		}
		policyID := p.ID
		matchedRuleID := ruleID
		return EvaluationResult{
			Decision: decision,
			Reason:   fmt.Sprintf("Matched policy: %s", p.Name),
			PolicyID: &policyID,
			RuleID:   &matchedRuleID,
		}
	}

	return EvaluationResult{
		Decision: domain.NoMatchingPolicy,
		Reason:   fmt.Sprintf("No policy matched domain %s", req.Domain),
	}
}
