package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitializeFallsBackToInfoOnInvalidLevel(t *testing.T) {
	Initialize("not-a-real-level", false)
	assert.Equal(t, "info", Log.GetLevel().String())
}

func TestInitializeSetsServiceField(t *testing.T) {
	Initialize("debug", false)
	assert.Equal(t, "debug", Log.GetLevel().String())

	var buf bytes.Buffer
	l := Log.Output(&buf)
	l.Info().Msg("probe")
	assert.Contains(t, buf.String(), `"service":"chronoguard-lite"`)
}

func TestComponentLoggersAreDistinctFromGlobal(t *testing.T) {
	Initialize("info", false)
	assert.NotNil(t, Store())
	assert.NotNil(t, Ledger())
	assert.NotNil(t, Evaluator())
	assert.NotNil(t, PolicyEngine())
	assert.NotNil(t, Interceptor())
	assert.NotNil(t, Analytics())
	assert.NotNil(t, Search())
	assert.NotNil(t, Concurrency())
	assert.NotNil(t, Admin())
	assert.NotNil(t, Scheduler())
	assert.NotNil(t, EventBus())
}

func TestGetLoggerReturnsGlobalInstance(t *testing.T) {
	Initialize("info", false)
	assert.Equal(t, Log.GetLevel(), GetLogger().GetLevel())
}
