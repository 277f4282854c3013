package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"catalog-engine-go/internal/config"
	"catalog-engine-go/internal/datastore/postgres"
)

func newSchemaCmd() *cobra.Command {
	var (
		apply bool
		dbURL string
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print or apply the Postgres schema",
		Long: `Print the DDL the catalog API expects. With --apply, create it on the
database named by --db (default POSTGRES_URL).

Examples:
  catalogctl schema > schema.sql
  catalogctl schema --apply --db postgres://localhost/catalog`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !apply {
				_, err := fmt.Fprint(cmd.OutOrStdout(), postgres.Schema)
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dbURL != "" {
				cfg.PostgresURL = dbURL
			}
			if cfg.PostgresURL == "" {
				return fmt.Errorf("--db flag or POSTGRES_URL is required")
			}

			ctx := context.Background()
			client, err := postgres.NewClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.ApplySchema(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Apply the schema instead of printing it")
	cmd.Flags().StringVar(&dbURL, "db", "", "Database connection URL")
	return cmd
}
