package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gaborage/go-myob/server"
)

// newState generates the OAuth state parameter; replaced in tests
var newState = uuid.NewString

// AuthorizeOptions holds options for the authorize command
type AuthorizeOptions struct {
	Code    string
	Timeout time.Duration
}

// NewAuthorizeCommand creates the authorize command
func NewAuthorizeCommand(g *GlobalOptions) *cobra.Command {
	opts := &AuthorizeOptions{}

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Grant the partner application access to an MYOB account",
		Long: `Prints the MYOB authorization URL, waits for the account owner to approve
access and exchanges the returned code for OAuth tokens.

Without --code the command listens on the configured oauth.callbackuri and
picks the code up from the redirect.`,
		Example: `  # Receive the redirect on http://localhost:8080/callback
  MYOB_OAUTH_CALLBACKURI=http://localhost:8080/callback myob authorize

  # Paste the code from the redirect by hand
  myob authorize --code 'AAEAAK...'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, g, func(ctx context.Context, a *app) error {
				return runAuthorize(ctx, a, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Code, "code", "", "Authorization code copied from the redirect")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "How long to wait for the redirect")

	return cmd
}

func runAuthorize(ctx context.Context, a *app, opts *AuthorizeOptions) error {
	creds, err := a.newCredentials()
	if err != nil {
		return err
	}

	state := newState()
	fmt.Fprintf(a.out, "Open this URL to authorize access:\n\n  %s\n\n", creds.AuthorizationURL(state))

	code := opts.Code
	if code == "" {
		if creds.CallbackURI() == "" {
			return errors.New("oauth.callbackuri is required to receive the redirect; pass --code instead")
		}
		code, err = awaitCallback(ctx, a, creds.CallbackURI(), state, opts.Timeout)
		if err != nil {
			return err
		}
	}

	if err := creds.Verify(ctx, code); err != nil {
		return err
	}
	if err := a.saveCredentials(creds); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Authorized. Credentials saved to %s\n", a.opts.StatePath)
	return nil
}

func awaitCallback(ctx context.Context, a *app, callbackURI, state string, timeout time.Duration) (string, error) {
	srv, err := server.NewCallbackServer(callbackURI, state, a.log)
	if err != nil {
		return "", err
	}
	if err := srv.Listen(); err != nil {
		return "", err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Warn().Err(err).Msg("Callback server shutdown failed")
		}
	}()

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		code string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		code, err := srv.Wait(waitCtx)
		done <- outcome{code, err}
	}()

	select {
	case o := <-done:
		if errors.Is(o.err, context.DeadlineExceeded) {
			return "", fmt.Errorf("no authorization redirect within %s: %w", timeout, o.err)
		}
		return o.code, o.err
	case err := <-errCh:
		if err == nil {
			err = errors.New("callback server stopped")
		}
		return "", err
	}
}
