package main

import (
	"github.com/spf13/cobra"

	"github.com/vishalgoel2/telco-incident-analysis/internal/infra"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			db, err := infra.OpenSQLDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			return infra.Migrate(db, newCLILogger(root))
		},
	}
}
