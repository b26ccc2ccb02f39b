package http

import (
	"context"
	nethttp "net/http"

	"golang.org/x/time/rate"

	"github.com/gaborage/go-myob/trace"
)

// NewRequestIDInterceptor stamps X-Request-ID on outgoing requests, reusing
// the context's request ID or generating one.
func NewRequestIDInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *nethttp.Request) error {
		if req.Header.Get(trace.HeaderXRequestID) == "" {
			_, id := trace.EnsureRequestID(ctx)
			req.Header.Set(trace.HeaderXRequestID, id)
		}
		return nil
	}
}

// NewRateLimitInterceptor blocks each request until the limiter grants a
// token. It throttles ahead of the vendor's per-second quota; it never
// retries. A nil limiter yields a no-op interceptor.
func NewRateLimitInterceptor(limiter *rate.Limiter) RequestInterceptor {
	return func(ctx context.Context, _ *nethttp.Request) error {
		if limiter == nil {
			return nil
		}
		return limiter.Wait(ctx)
	}
}
