package cli

import (
	"time"

	"github.com/fatih/color"
	"github.com/rentitout/backend/internal/config"
	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// App carries what the commands share. Tests set DB directly; otherwise
// it is opened from the environment on first use.
type App struct {
	DB  *gorm.DB
	Now func() time.Time
}

var (
	success = color.New(color.FgGreen)
	warning = color.New(color.FgYellow)
	faint   = color.New(color.Faint)
)

// NewRootCommand builds the rentctl command tree.
func NewRootCommand(app *App) *cobra.Command {
	if app.Now == nil {
		app.Now = time.Now
	}

	root := &cobra.Command{
		Use:           "rentctl",
		Short:         "Operate the Rent It Out backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.DB != nil {
				return nil
			}
			config.LoadConfig()
			logger.Init(config.AppConfig.Env)
			if err := config.AppConfig.Validate(); err != nil {
				return err
			}
			database.Connect()
			app.DB = database.DB
			return nil
		},
	}

	root.AddCommand(
		newPromoteCommand(app),
		newStatsCommand(app),
		newConversationsCommand(app),
		newSeedCommand(app),
		newMigrateCommand(app),
	)
	return root
}
