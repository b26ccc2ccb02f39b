package http

import (
	"context"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"
)

// Client defines the transport used by resource managers
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)
}

// Request represents an HTTP request with all necessary data
type Request struct {
	URL     string
	Query   url.Values
	Headers map[string]string
	Body    []byte
	// Timeout replaces Config.Timeout for this request when positive
	Timeout time.Duration
}

// Response represents an HTTP response with tracking information
type Response struct {
	StatusCode int
	// Reason is the status line's reason phrase, e.g. "Forbidden"
	Reason  string
	Body    []byte
	Headers nethttp.Header
	Stats   Stats
}

// ContentType returns the response's Content-Type header
func (r *Response) ContentType() string {
	if r == nil || r.Headers == nil {
		return ""
	}
	return r.Headers.Get("Content-Type")
}

// IsJSON reports whether the response declares a JSON body
func (r *Response) IsJSON() bool {
	return strings.HasPrefix(r.ContentType(), "application/json")
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	CallCount   int64
}

// RequestInterceptor is called before sending the request
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving the response
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// Config holds the transport configuration
type Config struct {
	// Timeout bounds each exchange unless the request carries its own
	Timeout              time.Duration
	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	DefaultHeaders       map[string]string
	// LogPayloads enables debug-level logging of headers and body payloads
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
}
