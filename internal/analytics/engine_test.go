package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-raghavan/chronoguard-lite/internal/domain"
)

func entry(agentID domain.AgentId, domainName string) domain.AuditEntry {
	return domain.NewAuditEntry(agentID, domainName, domain.Allow, domain.Timestamp(1000), "matched rule")
}

func TestNewEngineDefaults(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)
	assert.Equal(t, 0, e.EntriesProcessed())
	assert.Empty(t, e.DomainNames())
}

func TestNewEngineRejectsInvalidOptions(t *testing.T) {
	_, err := NewEngine(WithCountMinDimensions(0, 0))
	require.Error(t, err)
	_, err = NewEngine(WithBloomSizing(0, 0.01))
	require.Error(t, err)
}

func TestProcessEntryUpdatesAllThreeStructures(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	agentA := domain.NewID()
	e.ProcessEntry(entry(agentA, "api.openai.com"))
	e.ProcessEntry(entry(agentA, "api.openai.com"))

	assert.Equal(t, 2, e.EntriesProcessed())
	assert.InDelta(t, 1, e.UniqueAgents("api.openai.com"), 1)
	assert.GreaterOrEqual(t, e.DomainFrequency("api.openai.com"), uint32(2))
	assert.True(t, e.HasAccessed(agentA.String(), "api.openai.com"))
	assert.False(t, e.HasAccessed(agentA.String(), "never-seen.com"))
}

func TestUniqueAgentsZeroForUnseenDomain(t *testing.T) {
	e, _ := NewEngine()
	assert.Equal(t, 0.0, e.UniqueAgents("unseen.com"))
}

func TestEngineDistinguishesMultipleAgentsPerDomain(t *testing.T) {
	e, _ := NewEngine()
	for i := 0; i < 20; i++ {
		e.ProcessEntry(entry(domain.NewID(), "shared.com"))
	}
	assert.InDelta(t, 20, e.UniqueAgents("shared.com"), 20*0.1)
}

func TestEngineMemoryReportAggregatesComponents(t *testing.T) {
	e, _ := NewEngine()
	e.ProcessEntry(entry(domain.NewID(), "a.com"))
	report := e.MemoryReport()
	assert.Equal(t, 1, report.HyperLogLogDomains)
	assert.Equal(t, report.HyperLogLogBytes+report.CountMinBytes+report.BloomBytes, report.TotalBytes)
}

func TestEngineDomainNamesAndHLLFor(t *testing.T) {
	e, _ := NewEngine()
	e.ProcessEntry(entry(domain.NewID(), "a.com"))
	names := e.DomainNames()
	assert.Equal(t, []string{"a.com"}, names)

	hll, ok := e.HLLFor("a.com")
	require.True(t, ok)
	assert.NotNil(t, hll)

	_, ok = e.HLLFor("missing.com")
	assert.False(t, ok)
}
