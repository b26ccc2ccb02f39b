package myob

import (
	"golang.org/x/time/rate"

	"github.com/gaborage/go-myob/config"
	"github.com/gaborage/go-myob/http"
	"github.com/gaborage/go-myob/logger"
)

// NewTransport builds the HTTP transport described by cfg: timeout,
// request ids, optional payload logging and optional client-side
// throttling.
func NewTransport(cfg *config.Config, log logger.Logger) http.Client {
	b := http.NewBuilder(log).
		WithTimeout(cfg.API.Timeout).
		WithPayloadLogging(cfg.Log.Payloads, 0).
		WithRequestInterceptor(http.NewRequestIDInterceptor())

	if rl := cfg.API.RateLimit; rl.Enabled {
		b = b.WithRequestInterceptor(http.NewRateLimitInterceptor(rate.NewLimiter(rate.Limit(rl.PerSecond), rl.Burst)))
	}
	return b.Build()
}

// NewFromConfig builds a client whose managers share the transport from
// NewTransport and the API settings from cfg.
func NewFromConfig(cfg *config.Config, creds Credentials, log logger.Logger) (*Myob, error) {
	return New(creds,
		WithClient(NewTransport(cfg, log)),
		WithLogger(log),
		WithBaseURL(cfg.API.BaseURL),
		WithAPIVersion(cfg.API.Version),
		WithPageSize(cfg.API.PageSize),
	)
}
