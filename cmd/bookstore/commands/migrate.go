package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/safar/go-bookstore/cmd/bookstore/output"
	"github.com/safar/go-bookstore/internal/database"
	"github.com/spf13/cobra"
)

var (
	upSteps   int
	downSteps int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Manage the PostgreSQL schema. Migrations are embedded in the binary.

Subcommands:
  up      - Apply pending migrations
  down    - Rollback migrations
  status  - Show migration status`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context(), func(ctx context.Context) error {
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := database.MigrateUp(ctx, db, upSteps)
			if err != nil {
				return err
			}
			if applied == 0 {
				output.Muted(os.Stdout, "Database is up to date")
				return nil
			}
			output.Success(os.Stdout, "Applied %d migration(s)", applied)
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Rollback migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context(), func(ctx context.Context) error {
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			reverted, err := database.MigrateDown(ctx, db, downSteps)
			if err != nil {
				return err
			}
			if reverted == 0 {
				output.Warning(os.Stdout, "No applied migrations to roll back")
				return nil
			}
			output.Success(os.Stdout, "Rolled back %d migration(s)", reverted)
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context(), func(ctx context.Context) error {
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			states, err := database.MigrationStatus(ctx, db)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "VERSION\tNAME\tSTATUS")
			_, _ = fmt.Fprintln(w, "-------\t----\t------")

			pending := 0
			for _, s := range states {
				status := "applied"
				if !s.Applied {
					status = "pending"
					pending++
				}
				_, _ = fmt.Fprintf(w, "%04d\t%s\t%s %s\n", s.Version, s.Name, output.StatusIcon(s.Applied), status)
			}
			_ = w.Flush()

			fmt.Println()
			output.Muted(os.Stdout, "%d migration(s), %d pending", len(states), pending)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)

	migrateUpCmd.Flags().IntVar(&upSteps, "steps", 0, "Number of migrations to apply (0 applies all)")
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "Number of migrations to rollback")
}

func runMigrate(ctx context.Context, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := fn(ctx); err != nil {
		output.Error(os.Stderr, "%v", err)
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
