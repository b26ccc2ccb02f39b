package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-myob/config"
	"github.com/gaborage/go-myob/credentials"
	"github.com/gaborage/go-myob/logger"
	"github.com/gaborage/go-myob/myob"
	"github.com/gaborage/go-myob/observability"
	"github.com/gaborage/go-myob/trace"
)

// ErrNoState is returned by commands that need saved credentials when the
// state file does not exist.
var ErrNoState = errors.New(`no saved credentials, run "myob authorize" first`)

// app is the per-invocation environment: configuration, logger, telemetry
// and the state file.
type app struct {
	opts      *GlobalOptions
	cfg       *config.Config
	log       logger.Logger
	telemetry observability.Provider
	out       io.Writer
}

func newApp(cmd *cobra.Command, g *GlobalOptions) (*app, error) {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if g.LogLevel != "" {
		level = g.LogLevel
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), level, cfg.Log.Pretty)

	tcfg := cfg.Telemetry
	if g.Telemetry {
		tcfg.Enabled = true
	}
	provider, err := observability.NewProvider(tcfg,
		observability.WithWriter(cmd.ErrOrStderr()),
		observability.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	return &app{
		opts:      g,
		cfg:       cfg,
		log:       log,
		telemetry: provider,
		out:       cmd.OutOrStdout(),
	}, nil
}

// Close flushes telemetry.
func (a *app) Close() {
	if err := observability.Shutdown(a.telemetry, 0); err != nil {
		a.log.Warn().Err(err).Msg("Telemetry shutdown failed")
	}
}

// context tags ctx with one request id for the whole invocation.
func (a *app) context(ctx context.Context) context.Context {
	ctx, id := trace.EnsureRequestID(ctx)
	a.log.Debug().Str("request_id", id).Msg("Command started")
	return ctx
}

func (a *app) credentialOptions() []credentials.Option {
	return []credentials.Option{
		credentials.WithPartnerURL(a.cfg.OAuth.PartnerURL),
		credentials.WithScope(a.cfg.OAuth.Scope),
		credentials.WithLogger(a.log),
	}
}

// newCredentials starts from the partner application in the configuration.
func (a *app) newCredentials() (*credentials.PartnerCredentials, error) {
	if err := a.cfg.RequireOAuth(); err != nil {
		return nil, err
	}
	return credentials.New(
		a.cfg.OAuth.ConsumerKey,
		a.cfg.OAuth.ConsumerSecret,
		a.cfg.OAuth.CallbackURI,
		a.credentialOptions()...,
	)
}

func (a *app) loadCredentials() (*credentials.PartnerCredentials, error) {
	f, err := os.Open(a.opts.StatePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w (looked in %s)", ErrNoState, a.opts.StatePath)
	}
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}
	defer f.Close()

	return credentials.ReadState(f, a.credentialOptions()...)
}

// saveCredentials replaces the state file atomically. The file holds
// secrets and is created with mode 0600.
func (a *app) saveCredentials(creds *credentials.PartnerCredentials) error {
	dir := filepath.Dir(a.opts.StatePath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.json")
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod state file: %w", err)
	}
	if err := creds.WriteState(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), a.opts.StatePath); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	a.log.Debug().Str("path", a.opts.StatePath).Msg("Credentials saved")
	return nil
}

// ensureFresh refreshes an expired access token and persists the result.
func (a *app) ensureFresh(ctx context.Context, creds *credentials.PartnerCredentials) error {
	refreshed, err := creds.RefreshIfExpired(ctx)
	if err != nil {
		return err
	}
	if !refreshed {
		return nil
	}
	a.log.Info().Msg("Access token refreshed")
	return a.saveCredentials(creds)
}

// connect loads fresh credentials and builds an API client from them.
func (a *app) connect(ctx context.Context) (*myob.Myob, *credentials.PartnerCredentials, error) {
	creds, err := a.loadCredentials()
	if err != nil {
		return nil, nil, err
	}
	if err := a.ensureFresh(ctx, creds); err != nil {
		return nil, nil, err
	}
	client, err := myob.NewFromConfig(a.cfg, creds, a.log)
	if err != nil {
		return nil, nil, err
	}
	return client, creds, nil
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// run wraps a command body with app setup and teardown.
func run(cmd *cobra.Command, g *GlobalOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd, g)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a.context(cmd.Context()), a)
}
