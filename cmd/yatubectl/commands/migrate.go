package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"yatube/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd(open Opener) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Keep the database schema in sync with the code.

Subcommands:
  up      - Apply pending migrations
  down    - Revert the latest applied migration
  status  - Show applied and pending migrations`,
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Long: `Apply pending migrations. Postgres runs the embedded SQL migrations;
SQLite databases are built from the models.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				if err := database.ApplySchema(ctx, env.DB, env.Config); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Revert the latest applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				m, err := database.RollbackLatest(ctx, env.DB)
				if err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				if m == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations to roll back")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s\n", m)
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				status, err := database.GetSchemaStatus(ctx, env.DB, env.Config)
				if err != nil {
					return fmt.Errorf("schema status failed: %w", err)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "driver\t%s\n", status.Driver)
				fmt.Fprintf(w, "applied\t%d\n", len(status.AppliedVersions))
				fmt.Fprintf(w, "pending\t%d\n", len(status.PendingMigrations))
				for _, m := range status.PendingMigrations {
					fmt.Fprintf(w, "  pending\t%s\n", m)
				}
				return w.Flush()
			})
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, statusCmd)
	return migrateCmd
}
