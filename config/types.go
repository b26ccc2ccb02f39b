package config

import (
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/gaborage/go-myob/observability"
)

// Config represents the SDK and CLI configuration. The embedded koanf
// instance allows access to keys not modelled by the struct.
type Config struct {
	API   APIConfig   `koanf:"api" json:"api" yaml:"api"`
	OAuth OAuthConfig `koanf:"oauth" json:"oauth" yaml:"oauth"`
	Log   LogConfig   `koanf:"log" json:"log" yaml:"log"`

	Telemetry observability.Config `koanf:"telemetry" json:"telemetry" yaml:"telemetry"`

	// k holds the underlying Koanf instance for flexible access to custom configurations
	k *koanf.Koanf `json:"-" yaml:"-"`
}

// APIConfig holds the AccountRight API endpoint settings.
type APIConfig struct {
	BaseURL   string          `koanf:"baseurl" json:"baseurl" yaml:"baseurl" validate:"required,url"`
	Version   string          `koanf:"version" json:"version" yaml:"version" validate:"required"`
	Timeout   time.Duration   `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`
	PageSize  int             `koanf:"pagesize" json:"pagesize" yaml:"pagesize" validate:"gt=0"`
	RateLimit RateLimitConfig `koanf:"ratelimit" json:"ratelimit" yaml:"ratelimit"`
}

// RateLimitConfig configures client-side throttling. Throttling only delays
// calls; it never retries them.
type RateLimitConfig struct {
	Enabled   bool    `koanf:"enabled" json:"enabled" yaml:"enabled"`
	PerSecond float64 `koanf:"persecond" json:"persecond" yaml:"persecond" validate:"gt=0"`
	Burst     int     `koanf:"burst" json:"burst" yaml:"burst" validate:"gt=0"`
}

// OAuthConfig holds the partner application's OAuth settings.
type OAuthConfig struct {
	PartnerURL     string `koanf:"partnerurl" json:"partnerurl" yaml:"partnerurl" validate:"required,url"`
	ConsumerKey    string `koanf:"consumerkey" json:"consumerkey" yaml:"consumerkey"`
	ConsumerSecret string `koanf:"consumersecret" json:"-" yaml:"consumersecret"`
	CallbackURI    string `koanf:"callbackuri" json:"callbackuri" yaml:"callbackuri" validate:"omitempty,url"`
	Scope          string `koanf:"scope" json:"scope" yaml:"scope" validate:"required"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
	// Payloads enables debug logging of request and response bodies
	Payloads bool `koanf:"payloads" json:"payloads" yaml:"payloads"`
}
