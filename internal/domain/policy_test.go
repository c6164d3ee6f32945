package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyRuleMatchesSegmentWildcard(t *testing.T) {
	rule := AllowRule("*.example.com", 1)
	assert.True(t, rule.Matches("api.example.com"))
	assert.False(t, rule.Matches("example.com"))
	assert.False(t, rule.Matches("api.sub.example.com"))
}

func TestPolicyLifecycleRequiresRuleToActivate(t *testing.T) {
	p := NewPolicy("deny-all", "baseline", 10)
	err := p.Activate()
	require.Error(t, err)

	require.NoError(t, p.AddRule(DenyRule("*", 0)))
	require.NoError(t, p.Activate())
	assert.Equal(t, PolicyActive, p.Status)
}

func TestPolicySuspendAndReactivate(t *testing.T) {
	p := NewPolicy("p", "d", 1)
	require.NoError(t, p.AddRule(AllowRule("a.com", 0)))
	require.NoError(t, p.Activate())

	require.NoError(t, p.Suspend())
	assert.Equal(t, PolicySuspended, p.Status)

	require.NoError(t, p.Reactivate())
	assert.Equal(t, PolicyActive, p.Status)
}

func TestPolicyArchiveIsTerminal(t *testing.T) {
	p := NewPolicy("p", "d", 1)
	require.NoError(t, p.Archive())
	assert.Equal(t, PolicyArchived, p.Status)
	err := p.Archive()
	require.Error(t, err)
}

func TestPolicyRuleCap(t *testing.T) {
	p := NewPolicy("p", "d", 1)
	for i := 0; i < maxRulesPerPolicy; i++ {
		require.NoError(t, p.AddRule(AllowRule("a.com", i)))
	}
	err := p.AddRule(AllowRule("b.com", 999))
	require.Error(t, err)
}

func TestPolicyEvaluatePriorityOrder(t *testing.T) {
	p := NewPolicy("p", "d", 1)
	lowPriorityAllow := AllowRule("*.example.com", 10)
	highPriorityDeny := DenyRule("api.example.com", 0)
	require.NoError(t, p.AddRule(lowPriorityAllow))
	require.NoError(t, p.AddRule(highPriorityDeny))

	action, ruleID, matched := p.Evaluate("api.example.com", time.Now())
	require.True(t, matched)
	assert.Equal(t, RuleDeny, action)
	assert.Equal(t, highPriorityDeny.ID, ruleID)
}

func TestPolicyEvaluateNoMatch(t *testing.T) {
	p := NewPolicy("p", "d", 1)
	require.NoError(t, p.AddRule(AllowRule("api.example.com", 0)))
	_, _, matched := p.Evaluate("other.com", time.Now())
	assert.False(t, matched)
}

func TestPolicyEvaluateRespectsTimeWindow(t *testing.T) {
	p := NewPolicy("p", "d", 1)
	require.NoError(t, p.AddRule(AllowRule("*", 0)))
	p.TimeWindow = &TimeWindow{Start: 9 * time.Hour, End: 17 * time.Hour}

	inside := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	outside := time.Date(2026, 1, 5, 20, 0, 0, 0, time.UTC)

	_, _, matched := p.Evaluate("x.com", inside)
	assert.True(t, matched)

	_, _, matched = p.Evaluate("x.com", outside)
	assert.False(t, matched)
}

func TestTimeWindowCrossesMidnight(t *testing.T) {
	w := TimeWindow{Start: 22 * time.Hour, End: 2 * time.Hour}
	late := time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC)
	early := time.Date(2026, 1, 5, 1, 0, 0, 0, time.UTC)
	midday := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	assert.True(t, w.Contains(late))
	assert.True(t, w.Contains(early))
	assert.False(t, w.Contains(midday))
}

func TestNewRateLimitValidation(t *testing.T) {
	_, err := NewRateLimit(10, 5, 100, 1)
	require.Error(t, err)

	rl, err := NewRateLimit(10, 100, 1000, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, rl.PerMinute)

	_, err = NewRateLimit(10, 100, 1000, 0)
	require.Error(t, err)
}

func TestRateLimitCheckCapacity(t *testing.T) {
	rl, err := NewRateLimit(10, 100, 1000, 5)
	require.NoError(t, err)

	ok, err := rl.CheckCapacity(5, "minute")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rl.CheckCapacity(11, "minute")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = rl.CheckCapacity(1, "fortnight")
	require.Error(t, err)
}
