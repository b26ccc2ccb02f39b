package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// PasswordEnv supplies the company file password to the login command.
const PasswordEnv = "MYOB_COMPANYFILE_PASSWORD"

// LoginOptions holds options for the login command
type LoginOptions struct {
	PasswordStdin bool
	Verify        bool
}

// NewLoginCommand creates the login command
func NewLoginCommand(g *GlobalOptions) *cobra.Command {
	opts := &LoginOptions{}

	cmd := &cobra.Command{
		Use:   "login <company-id> <username>",
		Short: "Store the login for a company file",
		Long: `Saves the company file username and password in the state file. They are
sent as the x-myobapi-cftoken header on every call to that company file.

The password is read from ` + PasswordEnv + ` or, with --password-stdin, from the
first line of standard input. Company files opened through single sign-on
need no login.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, g, func(ctx context.Context, a *app) error {
				password, err := readPassword(cmd, opts)
				if err != nil {
					return err
				}
				return runLogin(ctx, a, opts, args[0], args[1], password)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.PasswordStdin, "password-stdin", false, "Read the password from standard input")
	cmd.Flags().BoolVar(&opts.Verify, "verify", true, "Open the company file with the new login before saving it")

	return cmd
}

func readPassword(cmd *cobra.Command, opts *LoginOptions) (string, error) {
	if !opts.PasswordStdin {
		return os.Getenv(PasswordEnv), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(ctx context.Context, a *app, opts *LoginOptions, companyID, username, password string) error {
	if companyID == "" || username == "" {
		return errors.New("company id and username must not be empty")
	}

	client, creds, err := a.connect(ctx)
	if err != nil {
		return err
	}
	creds.AuthenticateCompanyFile(companyID, username, password)

	name := companyID
	if opts.Verify {
		cf, err := client.CompanyFiles().Get(ctx, companyID, true)
		if err != nil {
			return fmt.Errorf("open company file %s: %w", companyID, err)
		}
		if cf.Name != "" {
			name = cf.Name
		}
	}

	if err := a.saveCredentials(creds); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in to %s as %s\n", name, username)
	return nil
}
