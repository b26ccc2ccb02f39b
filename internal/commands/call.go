package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/spf13/cobra"

	"github.com/gaborage/go-myob/manager"
	"github.com/gaborage/go-myob/myob"
)

// CallOptions holds options for the call command
type CallOptions struct {
	Company string
	Data    string
	Timeout time.Duration
	resultOptions
}

type resultOptions struct {
	Select string
	Output string
}

// NewCallCommand creates the call command
func NewCallCommand(g *GlobalOptions) *cobra.Command {
	opts := &CallOptions{}

	cmd := &cobra.Command{
		Use:   "call <resource> <method> [key=value...]",
		Short: "Call one method of a company file resource",
		Long: `Calls a resource method and prints the JSON response.

Parameters are key=value pairs: URL placeholders such as uid, the query
options page, limit, orderby, format, templatename and raw_filter, and
filters named after response fields with an optional __gt or __lt suffix.
Any other comparison goes in raw_filter. POST and PUT calls always ask for
the saved record back (returnBody=true). Values are JSON when they parse
as JSON, so Type='["Customer","Supplier"]' filters on either type.`,
		Example: `  myob call contacts customer --company $CF IsActive=true orderby=LastName
  myob call invoices get_item --company $CF uid=... format=pdf --output invoice.pdf
  myob call contacts post_customer --company $CF --data customer.json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, g, func(ctx context.Context, a *app) error {
				return runCall(ctx, a, cmd.InOrStdin(), opts, args[0], args[1], args[2:])
			})
		},
	}

	cmd.Flags().StringVar(&opts.Company, "company", "", "Company file id (defaults to $MYOB_COMPANY)")
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "JSON request body file, or - for standard input")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Per-call timeout, overriding api.timeout")
	cmd.Flags().StringVar(&opts.Select, "select", "", "JSONPath applied to the response, e.g. $.Items[*].Name")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write the raw response body to this file")

	return cmd
}

func runCall(ctx context.Context, a *app, stdin io.Reader, opts *CallOptions, resource, method string, args []string) error {
	company := opts.Company
	if company == "" {
		company = envCompany()
	}
	if company == "" {
		return fmt.Errorf("--company is required")
	}
	params, err := parseParams(args)
	if err != nil {
		return err
	}
	if opts.Data != "" {
		body, err := readData(stdin, opts.Data)
		if err != nil {
			return err
		}
		params[manager.ParamData] = body
	}
	if opts.Timeout > 0 {
		params[manager.ParamTimeout] = opts.Timeout
	}

	client, _, err := a.connect(ctx)
	if err != nil {
		return err
	}
	m, err := resourceManager(ctx, client, company, resource)
	if err != nil {
		return err
	}

	res, err := m.Call(ctx, method, params)
	if err != nil {
		return err
	}
	return writeResult(a, res, &opts.resultOptions)
}

// CompanyEnv names the default company file for call and dump.
const CompanyEnv = "MYOB_COMPANY"

func envCompany() string {
	return os.Getenv(CompanyEnv)
}

func resourceManager(ctx context.Context, client *myob.Myob, companyID, resource string) (*manager.Manager, error) {
	cf, err := client.CompanyFiles().Get(ctx, companyID, false)
	if err != nil {
		return nil, err
	}
	m, ok := cf.Manager(resource)
	if !ok {
		return nil, unknownResource(resource)
	}
	return m, nil
}

// readData loads a request body and checks that it is JSON.
func readData(stdin io.Reader, source string) (json.RawMessage, error) {
	var (
		body []byte
		err  error
	)
	if source == "-" {
		body, err = io.ReadAll(stdin)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("request body from %s is not valid JSON", source)
	}
	return json.RawMessage(body), nil
}

func writeResult(a *app, res *manager.Result, opts *resultOptions) error {
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, res.Body, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(a.out, "Wrote %d bytes (%s) to %s\n", len(res.Body), res.ContentType, opts.Output)
		return nil
	}

	if !res.IsJSON() {
		_, err := a.out.Write(res.Body)
		return err
	}

	if opts.Select == "" {
		return a.writeJSON(res.Data)
	}
	expr, err := jp.ParseString(opts.Select)
	if err != nil {
		return fmt.Errorf("invalid --select: %w", err)
	}
	return a.writeJSON(expr.Get(res.Data))
}
