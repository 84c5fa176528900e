package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_SetsDocumentedDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 25, cfg.MaxIterations)
	assert.Equal(t, 800, cfg.SettleDelayMs)
	assert.NotEmpty(t, cfg.AnthropicModel)
}

// isolateDataDir points the platform data directory at a fresh temp dir and
// clears the env overrides, so Load sees only what the test writes.
func isolateDataDir(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("APPDATA", home)
	t.Setenv("ANTHROPIC_MODEL", "")
	t.Setenv("AGENT_MAX_ITERATIONS", "")
	t.Setenv("WS_URL", "")
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	isolateDataDir(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverridesWinOverFile(t *testing.T) {
	isolateDataDir(t)
	file := Default()
	file.AnthropicModel = "claude-from-file"
	file.MaxIterations = 3
	file.TransportURL = "ws://file.test/agent"
	require.NoError(t, file.Save())

	t.Setenv("ANTHROPIC_MODEL", "claude-override")
	t.Setenv("AGENT_MAX_ITERATIONS", "7")
	t.Setenv("WS_URL", "ws://example.test/agent")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "claude-override", cfg.AnthropicModel)
	assert.Equal(t, 7, cfg.MaxIterations)
	assert.Equal(t, "ws://example.test/agent", cfg.TransportURL)
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	isolateDataDir(t)
	cfg := Default()
	cfg.AnthropicModel = "claude-custom"

	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	require.Equal(t, "claude-custom", loaded.AnthropicModel)
}
