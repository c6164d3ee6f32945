package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessDecisionStringRoundTrip(t *testing.T) {
	for _, d := range []AccessDecision{Allow, Deny, RateLimited, NoMatchingPolicy} {
		parsed, ok := ParseAccessDecision(d.String())
		assert.True(t, ok)
		assert.Equal(t, d, parsed)
	}
}

func TestAccessDecisionIsPermitted(t *testing.T) {
	assert.True(t, Allow.IsPermitted())
	assert.False(t, Deny.IsPermitted())
	assert.False(t, RateLimited.IsPermitted())
	assert.False(t, NoMatchingPolicy.IsPermitted())
}

func TestParseAccessDecisionUnknown(t *testing.T) {
	_, ok := ParseAccessDecision("SOMETHING_ELSE")
	assert.False(t, ok)
}
