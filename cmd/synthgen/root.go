package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	envFile  string
	provider string
	debug    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "synthgen",
		Short: "Generate synthetic telecom incident data with an LLM",
		Long: `synthgen drives the synthetic incident pipeline.

Scenarios are generated in one batch and stored as pending. The datasets
command expands pending scenarios into incident records under a request
quota and a fixed-window rate limit. The collect commands export the stored
datasets as training examples or as incident seed SQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before reading configuration")
	cmd.PersistentFlags().StringVar(&opts.provider, "provider", "", "LLM backend: openai, openai-json or gemini (overrides LLM_PROVIDER)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(opts.envFile, cmd.Flags().Changed("env-file"))
	}

	cmd.AddCommand(newScenariosCommand(opts))
	cmd.AddCommand(newDatasetsCommand(opts))
	cmd.AddCommand(newCollectCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSetKeyCommand(opts))

	return cmd
}

// loadEnvFile tolerates a missing default file but not one named explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	return err
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}
