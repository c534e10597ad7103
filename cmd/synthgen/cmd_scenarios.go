package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vishalgoel2/telco-incident-analysis/internal/adapter/repo"
	"github.com/vishalgoel2/telco-incident-analysis/internal/generation"
)

func newScenariosCommand(root *rootOptions) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Generate a batch of incident scenarios and store them as pending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, root)
			if err != nil {
				return err
			}
			defer rt.Close()

			if !cmd.Flags().Changed("count") {
				count = rt.cfg.ScenarioCount
			}
			gen, err := rt.generator(ctx)
			if err != nil {
				return err
			}
			catalog, err := rt.prompts()
			if err != nil {
				return err
			}

			job := &generation.ScenarioJob{
				Store:     repo.NewScenarioStore(rt.sql),
				Generator: gen,
				Prompts:   catalog,
				Count:     count,
				Logger:    rt.logger,
			}
			n, err := job.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d scenarios\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 200, "Number of scenarios to request (defaults to SCENARIO_COUNT)")
	return cmd
}
