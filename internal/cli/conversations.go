package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rentitout/backend/internal/messaging"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/internal/repository"
	"github.com/rentitout/backend/pkg/utils"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const previewLen = 48

func newConversationsCommand(app *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "Show a user's inbox as they would see it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var user models.User
			err := app.DB.Where("email = ?", utils.NormalizeEmail(email)).First(&user).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("no user with email %s", email)
			}
			if err != nil {
				return err
			}

			svc := messaging.NewService(
				repository.NewChatMessages(app.DB, nil),
				repository.NewProducts(app.DB),
			)
			convs, err := svc.Conversations(cmd.Context(), user.ID)
			if err != nil {
				return err
			}
			if len(convs) == 0 {
				warning.Fprintf(out, "%s has no conversations\n", user.Email)
				return nil
			}

			names, err := counterpartNames(app.DB, convs)
			if err != nil {
				return err
			}

			now := app.Now()
			for _, c := range convs {
				who := names[c.Counterpart]
				if who == "" {
					who = c.Counterpart
				}
				fmt.Fprintf(out, "#%d %s with %s (%d messages)\n", c.Listing.ID, c.Listing.Name, who, c.MessageCount)
				fmt.Fprintf(out, "    %s %s\n", preview(c.LastMessage.Content), faint.Sprint(humanize.RelTime(c.LastMessage.CreatedAt, now, "ago", "from now")))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func counterpartNames(db *gorm.DB, convs []messaging.Conversation) (map[string]string, error) {
	ids := make([]string, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.Counterpart)
	}
	var users []models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLen {
		return s
	}
	return string(r[:previewLen-1]) + "…"
}
