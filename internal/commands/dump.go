package commands

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gaborage/go-myob/endpoints"
	"github.com/gaborage/go-myob/manager"
)

// DumpOptions holds options for the dump command
type DumpOptions struct {
	Company     string
	Concurrency int
	KeepGoing   bool
}

// NewDumpCommand creates the dump command
func NewDumpCommand(g *GlobalOptions) *cobra.Command {
	opts := &DumpOptions{}

	cmd := &cobra.Command{
		Use:   "dump [resource...]",
		Short: "Fetch every listing of one or more resources",
		Long: `Calls every list method that needs no URL parameter on the given resources,
or on all resources when none are named, and prints one JSON object keyed
by resource.method. Only the first page of each listing is fetched.`,
		Example: `  myob dump contacts inventory --company $CF > snapshot.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, g, func(ctx context.Context, a *app) error {
				return runDump(ctx, a, opts, args)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Company, "company", "", "Company file id (defaults to $MYOB_COMPANY)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "Maximum calls in flight")
	cmd.Flags().BoolVar(&opts.KeepGoing, "keep-going", false, "Record failed calls in the output instead of stopping")

	return cmd
}

type dumpTarget struct {
	key     string
	manager *manager.Manager
	method  string
}

func runDump(ctx context.Context, a *app, opts *DumpOptions, resources []string) error {
	company := opts.Company
	if company == "" {
		company = envCompany()
	}
	if company == "" {
		return fmt.Errorf("--company is required")
	}
	if opts.Concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1")
	}
	if len(resources) == 0 {
		resources = endpoints.Names()
	}

	client, _, err := a.connect(ctx)
	if err != nil {
		return err
	}

	var targets []dumpTarget
	for _, resource := range resources {
		m, err := resourceManager(ctx, client, company, resource)
		if err != nil {
			return err
		}
		for _, method := range m.Methods() {
			if method.Verb != endpoints.All || len(method.URLKeys) > 0 {
				continue
			}
			targets = append(targets, dumpTarget{key: resource + "." + method.Name, manager: m, method: method.Name})
		}
	}

	var (
		mu  sync.Mutex
		out = make(map[string]any, len(targets))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, t := range targets {
		g.Go(func() error {
			res, err := t.manager.Call(gctx, t.method, nil)
			if err != nil {
				if !opts.KeepGoing {
					return fmt.Errorf("%s: %w", t.key, err)
				}
				a.log.Warn().Err(err).Str("method", t.key).Msg("Dump call failed")
				mu.Lock()
				out[t.key] = map[string]string{"error": err.Error()}
				mu.Unlock()
				return nil
			}

			var doc any = res.Data
			if !res.IsJSON() {
				doc = string(res.Body)
			}
			mu.Lock()
			out[t.key] = doc
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	a.log.Info().Int("calls", len(targets)).Msg("Dump complete")
	return a.writeJSON(out)
}
