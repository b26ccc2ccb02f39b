package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	StatePath  string
	LogLevel   string
	Telemetry  bool
}

// NewRootCommand builds the myob command tree.
func NewRootCommand(version string) *cobra.Command {
	g := &GlobalOptions{}

	root := &cobra.Command{
		Use:   "myob",
		Short: "Command line client for the MYOB AccountRight API",
		Long: `Authorize a partner application, open company files and call any
AccountRight endpoint from the shell.

Configuration is read from the file given by --config and from MYOB_*
environment variables. OAuth tokens and company file logins are kept in the
state file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&g.ConfigPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&g.StatePath, "state", defaultStatePath(), "Credentials state file")
	flags.StringVar(&g.LogLevel, "log-level", "", "Override the configured log level (debug|info|warn|error)")
	flags.BoolVar(&g.Telemetry, "telemetry", false, "Export call spans and metrics as configured under telemetry")

	root.AddCommand(
		NewAuthorizeCommand(g),
		NewRefreshCommand(g),
		NewInfoCommand(g),
		NewCompanyFilesCommand(g),
		NewLoginCommand(g),
		NewMethodsCommand(g),
		NewCallCommand(g),
		NewDumpCommand(g),
		NewVersionCommand(version),
	)
	return root
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "myob-credentials.json"
	}
	return filepath.Join(dir, "go-myob", "credentials.json")
}
