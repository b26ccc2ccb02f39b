package commands

import (
	"context"

	"github.com/spf13/cobra"
)

// NewInfoCommand creates the info command
func NewInfoCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show API build information for each endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, g, func(ctx context.Context, a *app) error {
				client, _, err := a.connect(ctx)
				if err != nil {
					return err
				}
				res, err := client.Info(ctx)
				if err != nil {
					return err
				}
				return writeResult(a, res, &resultOptions{})
			})
		},
	}
}

// NewCompanyFilesCommand creates the companyfiles command
func NewCompanyFilesCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "companyfiles",
		Aliases: []string{"cf"},
		Short:   "List the company files the signed-in user can open",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, g, runCompanyFiles)
		},
	}
}

func runCompanyFiles(ctx context.Context, a *app) error {
	client, _, err := a.connect(ctx)
	if err != nil {
		return err
	}
	files, err := client.CompanyFiles().All(ctx)
	if err != nil {
		return err
	}

	docs := make([]map[string]any, len(files))
	for i, f := range files {
		docs[i] = f.Data
	}
	return a.writeJSON(docs)
}
