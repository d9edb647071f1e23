package cli

import (
	"fmt"

	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/internal/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCommand(app *App) *cobra.Command {
	var rollback string
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			m := migrations.NewMigrator(app.DB)

			switch {
			case status:
				applied, err := m.Applied()
				if err != nil {
					return err
				}
				for _, mig := range migrations.GetMigrations() {
					mark := warning.Sprint("pending")
					if applied[mig.ID] {
						mark = success.Sprint("applied")
					}
					fmt.Fprintf(out, "%-8s %s\n", mark, mig.ID)
				}
				return nil

			case rollback != "":
				if err := m.Rollback(rollback); err != nil {
					return err
				}
				success.Fprintf(out, "Rolled back %s\n", rollback)
				return nil
			}

			if err := database.AutoMigrate(app.DB); err != nil {
				return fmt.Errorf("migrate tables: %w", err)
			}
			if err := m.Run(); err != nil {
				return err
			}
			success.Fprintln(out, "Database is up to date")
			return nil
		},
	}

	cmd.Flags().StringVar(&rollback, "rollback", "", "revert the named migration")
	cmd.Flags().BoolVar(&status, "status", false, "list migrations and whether they ran")
	return cmd
}
