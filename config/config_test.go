package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBaseURL = "https://api.myob.com/accountright/"
	testConsumer   = "consumer-key"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, defaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, "v2", cfg.API.Version)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 400, cfg.API.PageSize)
	assert.False(t, cfg.API.RateLimit.Enabled)
	assert.InDelta(t, 8, cfg.API.RateLimit.PerSecond, 0)
	assert.Equal(t, 8, cfg.API.RateLimit.Burst)

	assert.Equal(t, "https://secure.myob.com/oauth2/", cfg.OAuth.PartnerURL)
	assert.Equal(t, "CompanyFile", cfg.OAuth.Scope)
	assert.Empty(t, cfg.OAuth.ConsumerKey)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.False(t, cfg.Log.Payloads)

	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "go-myob", cfg.Telemetry.ServiceName)
	assert.Equal(t, "stdout", cfg.Telemetry.Endpoint)
}

func TestLoadTelemetrySection(t *testing.T) {
	t.Setenv("MYOB_TELEMETRY_ENABLED", "true")

	cfg, err := LoadFromBytes([]byte(`
telemetry:
  endpoint: otel-collector:4317
  protocol: grpc
  insecure: true
  samplerate: 0.25
  metricinterval: 15s
`))
	require.NoError(t, err)

	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "otel-collector:4317", cfg.Telemetry.Endpoint)
	assert.Equal(t, "grpc", cfg.Telemetry.Protocol)
	assert.True(t, cfg.Telemetry.Insecure)
	require.NotNil(t, cfg.Telemetry.SampleRate)
	assert.InDelta(t, 0.25, *cfg.Telemetry.SampleRate, 0)
	assert.Equal(t, 15*time.Second, cfg.Telemetry.MetricInterval)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Setenv("MYOB_OAUTH_CONSUMERKEY", testConsumer)
	t.Setenv("MYOB_OAUTH_CONSUMERSECRET", "consumer-secret")
	t.Setenv("MYOB_API_PAGESIZE", "100")
	t.Setenv("MYOB_API_TIMEOUT", "5s")
	t.Setenv("MYOB_API_RATELIMIT_ENABLED", "true")
	t.Setenv("MYOB_LOG_LEVEL", "debug")
	t.Setenv("UNRELATED_LOG_LEVEL", "error")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, testConsumer, cfg.OAuth.ConsumerKey)
	assert.Equal(t, "consumer-secret", cfg.OAuth.ConsumerSecret)
	assert.Equal(t, 100, cfg.API.PageSize)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.API.RateLimit.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, defaultBaseURL, cfg.API.BaseURL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "myob.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  pagesize: 50
oauth:
  consumerkey: file-key
  callbackuri: http://localhost:8080/callback
log:
  pretty: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.API.PageSize)
	assert.Equal(t, "file-key", cfg.OAuth.ConsumerKey)
	assert.Equal(t, "http://localhost:8080/callback", cfg.OAuth.CallbackURI)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to load yaml")
}

func TestEnvironmentOverridesYAML(t *testing.T) {
	t.Setenv("MYOB_API_PAGESIZE", "25")

	cfg, err := LoadFromBytes([]byte("api:\n  pagesize: 50\n"))
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.API.PageSize)
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		category string
		field    string
	}{
		{name: "missing_base_url", yaml: "api:\n  baseurl: \"\"\n", category: "missing", field: "api.baseurl"},
		{name: "bad_base_url", yaml: "api:\n  baseurl: not a url\n", category: "invalid", field: "api.baseurl"},
		{name: "zero_page_size", yaml: "api:\n  pagesize: 0\n", category: "invalid", field: "api.pagesize"},
		{name: "bad_log_level", yaml: "log:\n  level: loud\n", category: "invalid", field: "log.level"},
		{name: "bad_callback", yaml: "oauth:\n  callbackuri: nope\n", category: "invalid", field: "oauth.callbackuri"},
		{name: "bad_telemetry_protocol", yaml: "telemetry:\n  enabled: true\n  endpoint: localhost:4317\n  protocol: udp\n", category: "invalid", field: "telemetry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "invalid configuration")

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.category, cfgErr.Category)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLogLevelOptionsInAction(t *testing.T) {
	_, err := LoadFromBytes([]byte("log:\n  level: loud\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of: debug, info, warn, error")
}

func TestRequireOAuth(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	err = cfg.RequireOAuth()
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "oauth.consumerkey", cfgErr.Field)
	assert.Contains(t, err.Error(), "MYOB_OAUTH_CONSUMERKEY")

	cfg.OAuth.ConsumerKey = testConsumer
	err = cfg.RequireOAuth()
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "oauth.consumersecret", cfgErr.Field)

	cfg.OAuth.ConsumerSecret = "s"
	assert.NoError(t, cfg.RequireOAuth())
}

func TestLoadDefaultsInternalFunction(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, loadDefaults(k))

	assert.Equal(t, defaultBaseURL, k.String("api.baseurl"))
	assert.Equal(t, "30s", k.String("api.timeout"))
	assert.Equal(t, 400, k.Int("api.pagesize"))
	assert.Equal(t, "CompanyFile", k.String("oauth.scope"))
}
