package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0:9000", cfg.InterceptAddress)
	assert.Equal(t, 11, cfg.HLLPrecision)
	assert.Equal(t, 2048, cfg.CountMinWidth)
	assert.False(t, cfg.KeyedChain)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().InterceptAddress, cfg.InterceptAddress)
}

func TestLoadOverlaysYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "intercept_address: \"127.0.0.1:9100\"\nhll_precision: 14\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.InterceptAddress)
	assert.Equal(t, 14, cfg.HLLPrecision)
	assert.Equal(t, Default().CountMinWidth, cfg.CountMinWidth)
}

func TestEnvOverrideWinsOverYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("intercept_address: \"127.0.0.1:9100\"\n"), 0o644))

	t.Setenv("CHRONOGUARD_INTERCEPT_ADDRESS", "0.0.0.0:9999")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.InterceptAddress)
}

func TestEnvBoolOverride(t *testing.T) {
	t.Setenv("CHRONOGUARD_REDIS_ENABLED", "true")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Redis.Enabled)
}
