// Package policyengine wires the domain policy model into a
// dependency graph, giving both a DAG-aware evaluator with
// short-circuit semantics and a flat baseline evaluator.
package policyengine

import (
	"time"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
	"github.com/j-raghavan/chronoguard-lite/internal/domain"
	"github.com/j-raghavan/chronoguard-lite/internal/graph"
)

// EvalResult is the outcome of evaluating one policy node.
type EvalResult struct {
	PolicyID       domain.PolicyId
	Decision       domain.AccessDecision
	EvalTimeMs     float64
	ShortCircuited bool
}

// EvalReport is the outcome of evaluating the whole engine for one
// request.
type EvalReport struct {
	Results           []EvalResult
	FinalDecision     domain.AccessDecision
	TotalTimeMs       float64
	PoliciesEvaluated int
	PoliciesSkipped   int
}

// denyDecisions are the decisions that trigger a downstream
// short-circuit; NoMatchingPolicy deliberately does not.
var denyDecisions = map[domain.AccessDecision]bool{
	domain.Deny:        true,
	domain.RateLimited: true,
}

// PolicyEngine registers policies, records dependency edges between
// them, and evaluates either in dependency order (with short-circuit)
// or ignoring edges entirely (flat baseline).
type PolicyEngine struct {
	policies map[domain.PolicyId]*domain.Policy
	g        *graph.Graph[domain.PolicyId]
	order    []domain.PolicyId
	built    bool
}

// New creates an empty engine.
func New() *PolicyEngine {
	return &PolicyEngine{
		policies: map[domain.PolicyId]*domain.Policy{},
		g:        graph.New[domain.PolicyId](),
	}
}

// Register adds a policy as a node, unbuilt.
func (e *PolicyEngine) Register(p *domain.Policy) {
	e.policies[p.ID] = p
	e.g.AddNode(p.ID)
	e.built = false
}

// AddDependency records that policyID depends on dependsOn, i.e. the
// edge dependsOn -> policyID (prerequisite points to dependent).
func (e *PolicyEngine) AddDependency(policyID, dependsOn domain.PolicyId) {
	e.g.AddEdge(dependsOn, policyID)
	e.built = false
}

// Validate runs the cycle detector without mutating engine state.
func (e *PolicyEngine) Validate() error {
	result := graph.DetectCycle(e.g)
	if result.HasCycle {
		nodes := make([]string, 0, len(result.CyclePath))
		for _, n := range result.CyclePath {
			nodes = append(nodes, n.String())
		}
		return apperrors.CyclicDependency(nodes)
	}
	return nil
}

// Build computes the evaluation order via topological sort.
func (e *PolicyEngine) Build() error {
	order, err := graph.TopologicalSort(e.g)
	if err != nil {
		return err
	}
	e.order = order
	e.built = true
	return nil
}

// Evaluate walks the built order, short-circuiting any node whose
// predecessor decided Deny or RateLimited.
func (e *PolicyEngine) Evaluate(domainName string, requestTime time.Time) (EvalReport, error) {
	if !e.built {
		return EvalReport{}, apperrors.InvalidArgument("policy engine not built: call Build() first")
	}

	decisions := make(map[domain.PolicyId]domain.AccessDecision, len(e.order))
	results := make([]EvalResult, 0, len(e.order))
	var total float64
	skipped := 0
	evaluated := 0

	for _, pid := range e.order {
		shortCircuit := false
		for _, predID := range e.g.Predecessors(pid) {
			if predDecision, ok := decisions[predID]; ok && denyDecisions[predDecision] {
				shortCircuit = true
				break
			}
		}

		if shortCircuit {
			decisions[pid] = domain.Deny
			results = append(results, EvalResult{PolicyID: pid, Decision: domain.Deny, EvalTimeMs: 0, ShortCircuited: true})
			skipped++
			continue
		}

		start := time.Now()
		decision := e.evaluateOne(pid, domainName, requestTime)
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0

		decisions[pid] = decision
		results = append(results, EvalResult{PolicyID: pid, Decision: decision, EvalTimeMs: elapsed})
		total += elapsed
		evaluated++
	}

	return EvalReport{
		Results:           results,
		FinalDecision:     reduce(decisions),
		TotalTimeMs:       total,
		PoliciesEvaluated: evaluated,
		PoliciesSkipped:   skipped,
	}, nil
}

// EvaluateFlat evaluates every registered policy ignoring dependency
// edges entirely. Included for benchmarking against the DAG-aware
// path; uses the same final-decision reduction rule.
func (e *PolicyEngine) EvaluateFlat(domainName string, requestTime time.Time) EvalReport {
	decisions := make(map[domain.PolicyId]domain.AccessDecision, len(e.policies))
	results := make([]EvalResult, 0, len(e.policies))
	var total float64

	for pid := range e.policies {
		start := time.Now()
		decision := e.evaluateOne(pid, domainName, requestTime)
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0

		decisions[pid] = decision
		results = append(results, EvalResult{PolicyID: pid, Decision: decision, EvalTimeMs: elapsed})
		total += elapsed
	}

	return EvalReport{
		Results:           results,
		FinalDecision:     reduce(decisions),
		TotalTimeMs:       total,
		PoliciesEvaluated: len(e.policies),
		PoliciesSkipped:   0,
	}
}

func (e *PolicyEngine) evaluateOne(pid domain.PolicyId, domainName string, requestTime time.Time) domain.AccessDecision {
	p, ok := e.policies[pid]
	if !ok {
		return domain.NoMatchingPolicy
	}
	if p.Status != domain.PolicyActive {
		return domain.NoMatchingPolicy
	}
	action, _, matched := p.Evaluate(domainName, requestTime)
	if !matched {
		return domain.NoMatchingPolicy
	}
	if action == domain.RuleAllow {
		return domain.Allow
	}
	return domain.Deny
}

func reduce(decisions map[domain.PolicyId]domain.AccessDecision) domain.AccessDecision {
	hasAllow := false
	for _, d := range decisions {
		if d == domain.Deny {
			return domain.Deny
		}
		if d == domain.Allow {
			hasAllow = true
		}
	}
	if hasAllow {
		return domain.Allow
	}
	return domain.NoMatchingPolicy
}
