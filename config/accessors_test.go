package config

import (
	"testing"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestConfig(t *testing.T, data map[string]any) *Config {
	t.Helper()
	k := koanf.New(".")
	require.NoError(t, k.Load(confmap.Provider(data, "."), nil))
	return &Config{k: k}
}

func TestGetString(t *testing.T) {
	cfg := setupTestConfig(t, map[string]any{"cli.statefile": "/tmp/state.json"})

	assert.Equal(t, "/tmp/state.json", cfg.GetString("cli.statefile"))
	assert.Equal(t, "fallback", cfg.GetString("cli.missing", "fallback"))
	assert.Empty(t, cfg.GetString("cli.missing"))
}

func TestGetInt(t *testing.T) {
	cfg := setupTestConfig(t, map[string]any{
		"cli.workers": 4,
		"cli.float":   3.0,
		"cli.str":     " 6 ",
		"cli.bad":     "many",
		"cli.frac":    1.5,
	})

	assert.Equal(t, 4, cfg.GetInt("cli.workers"))
	assert.Equal(t, 3, cfg.GetInt("cli.float"))
	assert.Equal(t, 6, cfg.GetInt("cli.str"))
	assert.Equal(t, 2, cfg.GetInt("cli.bad", 2))
	assert.Equal(t, 0, cfg.GetInt("cli.frac"))
	assert.Equal(t, 9, cfg.GetInt("cli.missing", 9))
}

func TestGetDuration(t *testing.T) {
	cfg := setupTestConfig(t, map[string]any{
		"cli.wait":    "1500ms",
		"cli.seconds": 3,
		"cli.bad":     "soon",
	})

	assert.Equal(t, 1500*time.Millisecond, cfg.GetDuration("cli.wait"))
	assert.Equal(t, 3*time.Second, cfg.GetDuration("cli.seconds"))
	assert.Equal(t, time.Minute, cfg.GetDuration("cli.bad", time.Minute))
	assert.Equal(t, time.Duration(0), cfg.GetDuration("cli.missing"))
}

func TestNilConfigAccessors(t *testing.T) {
	var cfg *Config
	assert.Equal(t, "d", cfg.GetString("x", "d"))
	assert.Equal(t, 1, cfg.GetInt("x", 1))
	assert.False(t, cfg.Exists("x"))
	assert.Nil(t, cfg.All())
}

func TestAllAndExists(t *testing.T) {
	cfg := setupTestConfig(t, map[string]any{"api.version": "v2"})
	assert.True(t, cfg.Exists("api.version"))
	assert.False(t, cfg.Exists("api.missing"))
	assert.Equal(t, "v2", cfg.All()["api.version"])
}
