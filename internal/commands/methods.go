package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-myob/endpoints"
	"github.com/gaborage/go-myob/myob"
)

// listingCompanyID stands in for a real company file when listing methods
const listingCompanyID = "[company_id]"

// listingCredentials lets the methods command build managers without a
// saved state file. Nothing is ever sent with them.
type listingCredentials struct{}

func (listingCredentials) ConsumerKey() string                    { return "" }
func (listingCredentials) AccessToken() string                    { return "" }
func (listingCredentials) CompanyFileToken(string) (string, bool) { return "", false }

// NewMethodsCommand creates the methods command
func NewMethodsCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "methods [resource]",
		Short: "List resources, or the methods of one resource",
		Example: `  myob methods
  myob methods invoices`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, g, func(ctx context.Context, a *app) error {
				if len(args) == 0 {
					return listResources(a)
				}
				return listMethods(ctx, a, args[0])
			})
		},
	}
}

func listResources(a *app) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, name := range endpoints.Names() {
		spec, _ := endpoints.Lookup(name)
		fmt.Fprintf(tw, "%s\t%s\n", name, spec.Prefix)
	}
	return tw.Flush()
}

func listMethods(ctx context.Context, a *app, resource string) error {
	client, err := myob.New(listingCredentials{},
		myob.WithLogger(a.log),
		myob.WithBaseURL(a.cfg.API.BaseURL),
	)
	if err != nil {
		return err
	}

	if resource == "companyfiles" {
		fmt.Fprintln(a.out, client.CompanyFiles().String())
		return nil
	}

	cf, err := client.CompanyFiles().Get(ctx, listingCompanyID, false)
	if err != nil {
		return err
	}
	m, ok := cf.Manager(resource)
	if !ok {
		return unknownResource(resource)
	}
	fmt.Fprintln(a.out, m.String())
	return nil
}

func unknownResource(resource string) error {
	return fmt.Errorf("unknown resource %q, expected one of: %s", resource, strings.Join(endpoints.Names(), ", "))
}
