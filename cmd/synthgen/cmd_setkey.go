package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vishalgoel2/telco-incident-analysis/internal/infra/credentials"
)

func newSetKeyCommand(root *rootOptions) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "set-key <openai|gemini>",
		Short: "Store a provider API key in the database",
		Long: `Stores an API key in integration_tokens. Keys from the environment or the
secrets directory still take precedence over the stored one.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{credentials.ProviderOpenAI, credentials.ProviderGemini},
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := args[0]
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, root)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := credentials.NewStore(rt.sql).SetAPIKey(ctx, provider, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s api key saved\n", provider)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "API key value")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
