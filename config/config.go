package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before they are mapped
// onto configuration keys: MYOB_OAUTH_CONSUMERKEY -> oauth.consumerkey.
const EnvPrefix = "MYOB_"

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. The YAML file at path, when path is not empty
// 3. Default values (lowest priority)
func Load(path string) (*Config, error) {
	var source koanf.Provider
	if path != "" {
		source = file.Provider(path)
	}
	return load(source)
}

// LoadFromBytes is Load with the YAML document supplied inline.
func LoadFromBytes(data []byte) (*Config, error) {
	return load(rawbytes.Provider(data))
}

func load(source koanf.Provider) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if source != nil {
		if err := k.Load(source, yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load yaml: %w", err)
		}
	}

	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"api.baseurl":             "https://api.myob.com/accountright/",
		"api.version":             "v2",
		"api.timeout":             "30s",
		"api.pagesize":            400,
		"api.ratelimit.enabled":   false,
		"api.ratelimit.persecond": 8,
		"api.ratelimit.burst":     8,

		"oauth.partnerurl": "https://secure.myob.com/oauth2/",
		"oauth.scope":      "CompanyFile",

		"log.level":    "info",
		"log.pretty":   false,
		"log.payloads": false,

		"telemetry.enabled":     false,
		"telemetry.servicename": "go-myob",
		"telemetry.endpoint":    "stdout",
		"telemetry.protocol":    "http",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
