package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vishalgoel2/telco-incident-analysis/internal/adapter/repo"
	"github.com/vishalgoel2/telco-incident-analysis/internal/domain"
	"github.com/vishalgoel2/telco-incident-analysis/internal/generation"
	"github.com/vishalgoel2/telco-incident-analysis/internal/infra"
)

type datasetsOptions struct {
	maxRequests int
	order       string
	windowLimit int
	window      time.Duration
	records     int
}

func (o *datasetsOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&o.maxRequests, "max-requests", 95, "Model calls allowed in this run, 0 for no cap (defaults to MAX_REQUESTS)")
	f.StringVar(&o.order, "order", "asc", "Claim order: asc or desc (defaults to CLAIM_ORDER)")
	f.IntVar(&o.windowLimit, "window-limit", 10, "Model calls allowed per window (defaults to WINDOW_LIMIT)")
	f.DurationVar(&o.window, "window", time.Minute, "Rate limit window length (defaults to WINDOW_SECONDS)")
	f.IntVar(&o.records, "records", 20, "Incident records requested per scenario (defaults to RECORDS_PER_SCENARIO)")
}

// apply fills every flag the user left unset from cfg.
func (o *datasetsOptions) apply(cmd *cobra.Command, cfg *infra.Config) error {
	flags := cmd.Flags()
	if !flags.Changed("max-requests") {
		o.maxRequests = cfg.MaxRequests
	}
	if !flags.Changed("order") {
		o.order = cfg.ClaimOrder
	}
	if !flags.Changed("window-limit") {
		o.windowLimit = cfg.WindowLimit
	}
	if !flags.Changed("window") {
		o.window = cfg.Window
	}
	if !flags.Changed("records") {
		o.records = cfg.RecordsPerScenario
	}

	switch domain.ClaimOrder(o.order) {
	case domain.ClaimAscending, domain.ClaimDescending:
	default:
		return fmt.Errorf("--order must be asc or desc, got %q", o.order)
	}
	if o.windowLimit <= 0 || o.window <= 0 {
		return fmt.Errorf("--window-limit and --window must be positive")
	}
	if o.records <= 0 {
		return fmt.Errorf("--records must be positive")
	}
	return nil
}

func newDatasetsCommand(root *rootOptions) *cobra.Command {
	opts := &datasetsOptions{}
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Expand pending scenarios into incident datasets",
		Long: `Claims pending scenarios one at a time and asks the model for a dataset
of incident records for each. The run stops when no scenario is pending or
when --max-requests model calls have been made. At most --window-limit calls
are made per --window.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, root)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := opts.apply(cmd, rt.cfg); err != nil {
				return err
			}
			gen, err := rt.generator(ctx)
			if err != nil {
				return err
			}
			catalog, err := rt.prompts()
			if err != nil {
				return err
			}

			job := &generation.DatasetJob{
				Store:              repo.NewScenarioStore(rt.sql),
				Generator:          gen,
				Prompts:            catalog,
				Order:              domain.ParseClaimOrder(opts.order),
				MaxRequests:        opts.maxRequests,
				RecordsPerScenario: opts.records,
				Limiter:            generation.NewFixedWindow(opts.windowLimit, opts.window, generation.RealClock()),
				Logger:             rt.logger,
			}
			sum, err := job.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: processed %d, generated %d, failed %d (%s)\n",
				sum.RunID, sum.Processed, sum.Generated, sum.Failed, sum.Stop)
			return nil
		},
	}

	opts.bind(cmd)
	return cmd
}
