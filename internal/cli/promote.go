package cli

import (
	"errors"
	"fmt"

	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/pkg/utils"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newPromoteCommand(app *App) *cobra.Command {
	var email, role string

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Change a user's role",
		Example: `  rentctl promote --email meera@example.com --role seller
  rentctl promote --email ops@example.com --role admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := models.Role(role)
			if !r.Valid() {
				return fmt.Errorf("invalid role %q (want buyer, seller or admin)", role)
			}

			var user models.User
			err := app.DB.Where("email = ?", utils.NormalizeEmail(email)).First(&user).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("no user with email %s", email)
			}
			if err != nil {
				return err
			}

			if user.Role == r {
				warning.Fprintf(cmd.OutOrStdout(), "%s is already %s\n", user.Email, r)
				return nil
			}
			previous := user.Role
			err = app.DB.Transaction(func(tx *gorm.DB) error {
				if err := tx.Model(&user).Update("role", r).Error; err != nil {
					return err
				}
				return database.LogAdminAction(tx, models.CLIActor, models.ActionChangeRole, user.ID, "user", fmt.Sprintf("%s -> %s", previous, r))
			})
			if err != nil {
				return fmt.Errorf("update role: %w", err)
			}
			success.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", user.Email, previous, r)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "new role")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
