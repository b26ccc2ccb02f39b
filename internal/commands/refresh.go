package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewRefreshCommand creates the refresh command
func NewRefreshCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the saved access token",
		Long:  "Exchanges the saved refresh token for a new access token, whether or not the current one has expired.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, g, runRefresh)
		},
	}
}

func runRefresh(ctx context.Context, a *app) error {
	creds, err := a.loadCredentials()
	if err != nil {
		return err
	}
	if err := creds.Refresh(ctx); err != nil {
		return err
	}
	if err := a.saveCredentials(creds); err != nil {
		return err
	}

	if exp, ok := creds.ExpiresAt(); ok {
		fmt.Fprintf(a.out, "Access token refreshed, expires %s\n", exp.Local().Format(time.RFC3339))
		return nil
	}
	fmt.Fprintln(a.out, "Access token refreshed")
	return nil
}
