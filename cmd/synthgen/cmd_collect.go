package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vishalgoel2/telco-incident-analysis/internal/adapter/repo"
	"github.com/vishalgoel2/telco-incident-analysis/internal/collector"
)

type collectOptions struct {
	limit     int
	exportDir string
}

func newCollectCommand(root *rootOptions) *cobra.Command {
	opts := &collectOptions{}
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Export generated datasets",
		Args:  cobra.NoArgs,
	}
	cmd.PersistentFlags().IntVar(&opts.limit, "limit", 200, "Maximum datasets read, in id order (defaults to COLLECT_LIMIT)")
	cmd.PersistentFlags().StringVar(&opts.exportDir, "export-dir", "", "Write to this directory instead of EXPORT_DIR or the object store")

	cmd.AddCommand(newCollectTrainingCommand(root, opts))
	cmd.AddCommand(newCollectIncidentsCommand(root, opts))
	cmd.AddCommand(newCollectBundleCommand(root, opts))
	return cmd
}

func newCollectTrainingCommand(root *rootOptions, opts *collectOptions) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "training",
		Short: "Write prompt/completion training examples as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, root, opts, func(r *collector.Runner) (string, int, error) {
				return r.CollectTraining(cmd.Context(), key)
			}, "training examples")
		},
	}
	cmd.Flags().StringVar(&key, "key", collector.DefaultTrainingKey, "Artifact name")
	return cmd
}

func newCollectIncidentsCommand(root *rootOptions, opts *collectOptions) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "incidents",
		Short: "Write closed incidents as SQL insert statements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, root, opts, func(r *collector.Runner) (string, int, error) {
				return r.CollectIncidents(cmd.Context(), key)
			}, "incident statements")
		},
	}
	cmd.Flags().StringVar(&key, "key", collector.DefaultIncidentKey, "Artifact name")
	return cmd
}

func newCollectBundleCommand(root *rootOptions, opts *collectOptions) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Write both artifacts into one zip archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, root, opts, func(r *collector.Runner) (string, int, error) {
				return r.CollectBundle(cmd.Context(), key)
			}, "datasets")
		},
	}
	cmd.Flags().StringVar(&key, "key", collector.DefaultBundleKey, "Artifact name")
	return cmd
}

func runCollect(cmd *cobra.Command, root *rootOptions, opts *collectOptions, collect func(*collector.Runner) (string, int, error), what string) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx, root)
	if err != nil {
		return err
	}
	defer rt.Close()

	limit := opts.limit
	if !cmd.Flags().Changed("limit") {
		limit = rt.cfg.CollectLimit
	}
	sink, err := rt.sink(ctx, opts.exportDir)
	if err != nil {
		return err
	}
	catalog, err := rt.prompts()
	if err != nil {
		return err
	}

	runner := &collector.Runner{
		Store:       repo.NewScenarioStore(rt.sql),
		Sink:        sink,
		Limit:       limit,
		Instruction: catalog.TrainingInstruction,
		Logger:      rt.logger,
	}
	loc, n, err := collect(runner)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d %s to %s\n", n, what, loc)
	return nil
}
