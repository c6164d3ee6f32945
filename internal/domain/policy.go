package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
)

// PolicyStatus is the lifecycle state of a Policy.
type PolicyStatus uint8

const (
	PolicyDraft PolicyStatus = iota
	PolicyActive
	PolicySuspended
	PolicyArchived
)

func (s PolicyStatus) String() string {
	switch s {
	case PolicyDraft:
		return "DRAFT"
	case PolicyActive:
		return "ACTIVE"
	case PolicySuspended:
		return "SUSPENDED"
	case PolicyArchived:
		return "ARCHIVED"
	default:
		return "UNKNOWN"
	}
}

// RuleAction is the decision a single matched rule contributes.
type RuleAction uint8

const (
	RuleAllow RuleAction = iota
	RuleDeny
)

func (a RuleAction) String() string {
	if a == RuleAllow {
		return "ALLOW"
	}
	return "DENY"
}

// PolicyRule matches a domain pattern against a request domain.
// A "*" segment matches exactly one domain segment; the pattern and
// the domain must have the same number of segments to match at all.
type PolicyRule struct {
	ID            RuleId
	DomainPattern string
	Action        RuleAction
	Priority      int
}

// AllowRule constructs a rule that permits matching domains.
func AllowRule(pattern string, priority int) PolicyRule {
	return PolicyRule{ID: NewID(), DomainPattern: pattern, Action: RuleAllow, Priority: priority}
}

// DenyRule constructs a rule that denies matching domains.
func DenyRule(pattern string, priority int) PolicyRule {
	return PolicyRule{ID: NewID(), DomainPattern: pattern, Action: RuleDeny, Priority: priority}
}

// Matches reports whether domain satisfies the rule's pattern.
func (r PolicyRule) Matches(domain string) bool {
	patternSegs := strings.Split(r.DomainPattern, ".")
	domainSegs := strings.Split(domain, ".")
	if len(patternSegs) != len(domainSegs) {
		return false
	}
	for i, p := range patternSegs {
		if p != "*" && p != domainSegs[i] {
			return false
		}
	}
	return true
}

// TimeWindow is a daily recurring interval plus a weekday mask.
// If Start <= End the interval is within a single day; otherwise it
// crosses midnight.
type TimeWindow struct {
	Start      time.Duration // offset since 00:00
	End        time.Duration
	DaysOfWeek map[time.Weekday]bool // empty means "every day"
}

// Contains reports whether t falls inside the window, in UTC.
func (w TimeWindow) Contains(t time.Time) bool {
	t = t.UTC()
	if len(w.DaysOfWeek) > 0 && !w.DaysOfWeek[t.Weekday()] {
		return false
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := t.Sub(midnight)
	if w.Start <= w.End {
		return offset >= w.Start && offset <= w.End
	}
	// crosses midnight
	return offset >= w.Start || offset <= w.End
}

// RateLimit is a capability check with caller-supplied counts; no
// time-windowed counting lives in this package (see SPEC_FULL.md §9).
type RateLimit struct {
	PerMinute  int
	PerHour    int
	PerDay     int
	BurstLimit int
}

// NewRateLimit validates 0 < minute <= hour <= day and
// 1 <= burst <= 1000.
func NewRateLimit(perMinute, perHour, perDay, burst int) (RateLimit, error) {
	if perMinute <= 0 || perMinute > perHour || perHour > perDay {
		return RateLimit{}, apperrors.InvalidArgument(
			fmt.Sprintf("rate limit must satisfy 0 < minute(%d) <= hour(%d) <= day(%d)", perMinute, perHour, perDay))
	}
	if burst < 1 || burst > 1000 {
		return RateLimit{}, apperrors.InvalidArgument(
			fmt.Sprintf("burst limit %d must be in [1, 1000]", burst))
	}
	return RateLimit{PerMinute: perMinute, PerHour: perHour, PerDay: perDay, BurstLimit: burst}, nil
}

// CheckCapacity reports whether currentCount is still within the
// named window's limit ("minute", "hour", or "day").
func (r RateLimit) CheckCapacity(currentCount int, window string) (bool, error) {
	var limit int
	switch window {
	case "minute":
		limit = r.PerMinute
	case "hour":
		limit = r.PerHour
	case "day":
		limit = r.PerDay
	default:
		return false, apperrors.InvalidArgument(fmt.Sprintf("unknown rate limit window %q", window))
	}
	return currentCount <= limit, nil
}

const maxRulesPerPolicy = 100

// Policy groups rules under a priority, an optional time window, and
// an optional rate limit.
type Policy struct {
	ID          PolicyId
	Name        string
	Description string
	Rules       []PolicyRule
	Status      PolicyStatus
	Priority    int
	TimeWindow  *TimeWindow
	RateLimit   *RateLimit
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPolicy creates a policy in the DRAFT state.
func NewPolicy(name, description string, priority int) *Policy {
	now := time.Now().UTC()
	return &Policy{
		ID:          NewID(),
		Name:        name,
		Description: description,
		Status:      PolicyDraft,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Activate transitions DRAFT -> ACTIVE, requiring at least one rule.
func (p *Policy) Activate() error {
	if p.Status != PolicyDraft {
		return apperrors.InvalidTransition(p.Status.String(), PolicyActive.String(), "policy")
	}
	if len(p.Rules) == 0 {
		return apperrors.InvalidArgument("policy must have at least one rule to activate")
	}
	p.Status = PolicyActive
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Suspend transitions ACTIVE -> SUSPENDED.
func (p *Policy) Suspend() error {
	if p.Status != PolicyActive {
		return apperrors.InvalidTransition(p.Status.String(), PolicySuspended.String(), "policy")
	}
	p.Status = PolicySuspended
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Reactivate transitions SUSPENDED -> ACTIVE.
func (p *Policy) Reactivate() error {
	if p.Status != PolicySuspended {
		return apperrors.InvalidTransition(p.Status.String(), PolicyActive.String(), "policy")
	}
	p.Status = PolicyActive
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Archive transitions any non-ARCHIVED status to ARCHIVED (terminal).
func (p *Policy) Archive() error {
	if p.Status == PolicyArchived {
		return apperrors.InvalidTransition(p.Status.String(), PolicyArchived.String(), "policy")
	}
	p.Status = PolicyArchived
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// AddRule appends a rule, enforcing the per-policy cap.
func (p *Policy) AddRule(rule PolicyRule) error {
	if len(p.Rules) >= maxRulesPerPolicy {
		return apperrors.InvalidArgument(fmt.Sprintf("maximum %d rules per policy", maxRulesPerPolicy))
	}
	p.Rules = append(p.Rules, rule)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// RemoveRule removes a rule by id.
func (p *Policy) RemoveRule(id RuleId) error {
	for i, r := range p.Rules {
		if r.ID == id {
			p.Rules = append(p.Rules[:i], p.Rules[i+1:]...)
			p.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return apperrors.InvalidArgument(fmt.Sprintf("rule %s not found", id))
}

// Evaluate checks the time window (if any), then the policy's rules
// in priority order (ties preserve insertion order, since sort.SliceStable
// is used), returning the first matching rule's action and id. matched
// is false if the time window excludes now or no rule matches.
func (p *Policy) Evaluate(domain string, now time.Time) (action RuleAction, ruleID RuleId, matched bool) {
	if p.TimeWindow != nil && !p.TimeWindow.Contains(now) {
		return 0, RuleId{}, false
	}
	ordered := make([]PolicyRule, len(p.Rules))
	copy(ordered, p.Rules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })
	for _, r := range ordered {
		if r.Matches(domain) {
			return r.Action, r.ID, true
		}
	}
	return 0, RuleId{}, false
}
