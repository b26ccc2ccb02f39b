package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gaborage/go-myob/http"
	"github.com/gaborage/go-myob/internal/tracking"
)

// Call builds and sends one request for the named method. It makes exactly
// one round trip and never retries.
func (m *Manager) Call(ctx context.Context, name string, params Params) (*Result, error) {
	req, err := m.BuildRequest(name, params)
	if err != nil {
		return nil, err
	}
	return m.Do(ctx, req)
}

// Do sends a request built by BuildRequest.
func (m *Manager) Do(ctx context.Context, req *Request) (*Result, error) {
	method, ok := m.methods[req.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %sManager has no method %q", ErrUnknownMethod, m.name, req.Method)
	}

	call := tracking.Call{
		Resource:    m.name,
		Method:      method.Name,
		Verb:        string(method.Verb),
		HTTPMethod:  req.HTTPMethod,
		URLTemplate: m.prefix + method.Path,
		CompanyFile: m.companyID != "",
	}
	start := time.Now()
	ctx, span := tracking.Start(ctx, call)

	status := 0
	resp, err := m.client.Do(ctx, req.HTTPMethod, &http.Request{
		URL:     req.URL,
		Query:   req.Query,
		Headers: req.Headers,
		Body:    req.Body,
		Timeout: req.Timeout,
	})
	var result *Result
	if err == nil {
		status = resp.StatusCode
		result, err = classify(method.Verb, resp)
	} else {
		err = fmt.Errorf("%s.%s: %w", m.name, method.Name, err)
	}

	if err != nil {
		kind := errorType(err)
		tracking.End(ctx, span, call, start, status, err, kind)
		m.logFailure(call, status, kind, err)
		return nil, err
	}

	tracking.End(ctx, span, call, start, status, nil, "")
	m.log.Debug().
		Str("resource", m.name).
		Str("method", method.Name).
		Int("status", status).
		Dur("elapsed", time.Since(start)).
		Msg("MYOB call succeeded")
	return result, nil
}

func (m *Manager) logFailure(call tracking.Call, status int, kind string, err error) {
	event := m.log.Warn()
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		event = m.log.Error()
	}
	event.
		Str("resource", call.Resource).
		Str("method", call.Method).
		Int("status", status).
		Str("error_type", kind).
		Err(err).
		Msg("MYOB call failed")
}
