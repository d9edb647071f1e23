package cli

import (
	"fmt"
	"os"

	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/internal/seeds"
	"github.com/spf13/cobra"
)

func newSeedCommand(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, listings and conversations",
		Long: `Load fixtures into the database. Without --file the built-in demo data
is used. Existing rows are left untouched, so seeding twice is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := loadFixtures(file)
			if err != nil {
				return err
			}
			if err := database.AutoMigrate(app.DB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			res, err := seeds.Apply(app.DB, fixtures, app.Now())
			if err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d listings, %d messages\n", res.Users, res.Products, res.Messages)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixtures file")
	return cmd
}

func loadFixtures(path string) (*seeds.Fixtures, error) {
	if path == "" {
		return seeds.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return seeds.Parse(data)
}
