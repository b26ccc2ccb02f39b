// Package server runs the short-lived HTTP endpoint that receives the OAuth
// authorization redirect from the MYOB partner site.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-myob/logger"
)

var (
	// ErrAuthorizationDenied is delivered when the partner site redirects
	// with an error instead of a code.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrInvalidCallbackURI is returned for callback URIs the receiver cannot serve.
	ErrInvalidCallbackURI = errors.New("invalid callback uri")
)

// CallbackServer waits for a single authorization redirect on the host and
// path of the partner application's callback URI.
type CallbackServer struct {
	echo    *echo.Echo
	logger  logger.Logger
	state   string
	addr    string
	path    string
	results chan result
	once    sync.Once
}

type result struct {
	code string
	err  error
}

// NewCallbackServer prepares a receiver for callbackURI. Redirects whose
// state differs from state are rejected and do not complete the wait.
func NewCallbackServer(callbackURI, state string, log logger.Logger) (*CallbackServer, error) {
	if log == nil {
		log = logger.NewNop()
	}
	u, err := url.Parse(callbackURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCallbackURI, err)
	}
	if u.Scheme != "http" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q must be an http URI with a host", ErrInvalidCallbackURI, callbackURI)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "80")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &CallbackServer{
		echo:    e,
		logger:  log,
		state:   state,
		addr:    addr,
		path:    path,
		results: make(chan result, 1),
	}

	setupMiddlewares(e, log)
	e.GET(path, s.handleCallback)

	log.Debug().
		Str("address", addr).
		Str("path", path).
		Msg("Callback server configured")
	return s, nil
}

// Handler exposes the routing for tests and custom listeners.
func (s *CallbackServer) Handler() http.Handler {
	return s.echo
}

// Listen binds the callback address. Start calls it when needed.
func (s *CallbackServer) Listen() error {
	if s.echo.Listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.echo.Listener = l
	return nil
}

// Addr reports the bound address once Listen has succeeded, else the
// configured one.
func (s *CallbackServer) Addr() string {
	if s.echo.Listener != nil {
		return s.echo.Listener.Addr().String()
	}
	return s.addr
}

// Start serves until Shutdown. It returns nil after a graceful shutdown.
func (s *CallbackServer) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.logger.Info().
		Str("address", s.Addr()).
		Str("path", s.path).
		Msg("Waiting for authorization callback")

	err := s.echo.Start(s.addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Wait blocks until a valid redirect arrives or ctx is done, and returns
// the authorization code.
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case r := <-s.results:
		return r.code, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Shutdown stops the receiver, letting in-flight responses finish.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *CallbackServer) deliver(r result) {
	s.once.Do(func() {
		s.results <- r
	})
}

func (s *CallbackServer) handleCallback(c echo.Context) error {
	if c.QueryParam("state") != s.state {
		s.logger.Warn().
			Str("remote_ip", c.RealIP()).
			Msg("Rejected callback with mismatched state")
		return echo.NewHTTPError(http.StatusBadRequest, "state mismatch")
	}

	if reason := c.QueryParam("error"); reason != "" {
		err := fmt.Errorf("%w: %s", ErrAuthorizationDenied, reason)
		if desc := c.QueryParam("error_description"); desc != "" {
			err = fmt.Errorf("%w: %s: %s", ErrAuthorizationDenied, reason, desc)
		}
		s.deliver(result{err: err})
		return c.String(http.StatusBadRequest, "Authorization was not granted. You can close this window.")
	}

	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing code")
	}

	s.deliver(result{code: code})
	return c.String(http.StatusOK, "Authorization complete. You can close this window.")
}
