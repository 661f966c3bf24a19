package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/surveyops/surveyctl/internal/config"
	"github.com/surveyops/surveyctl/internal/events"
	"github.com/surveyops/surveyctl/internal/logging"
	"github.com/surveyops/surveyctl/internal/notify"
	"github.com/surveyops/surveyctl/internal/tui"
)

// newBrowseCmd creates the 'browse' command.
func newBrowseCmd() *cobra.Command {
	var pageSize int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse submissions interactively",
		Long: `Open the interactive record browser.

The session is checked first. Without a valid session a login form is shown.
Logs go to the log file only (logging.file), never to the terminal.

Keys:
  up/down  move        left/right  previous/next page
  enter    details     /           search (enter commits)
  g        go to page  s           cycle rows per page
  r        refresh     L           log out
  q        quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("size") {
				cfg.Browser.PageSize = pageSize
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logPath := cfg.Logging.File
			if logPath == "" {
				logPath = config.DefaultLogPath()
			}
			sink, err := logging.NewFileSink(logging.FileConfig{
				Path:       logPath,
				MaxSizeMB:  cfg.Logging.MaxSizeMB,
				MaxBackups: cfg.Logging.MaxBackups,
				MaxAgeDays: cfg.Logging.MaxAgeDays,
			})
			if err != nil {
				return err
			}
			tuiLogger := logging.NewLogger(logging.ModeTUI, sink)
			defer tuiLogger.Close()

			client, err := newAPIClient(cfg, tuiLogger)
			if err != nil {
				return err
			}

			bus := events.NewEventBus(0)
			defer bus.Close()
			desktop := notify.NewNotifier(cfg.Notifications.Desktop, tuiLogger)
			notices := notify.NewCenter(cfg.NotificationTTL(), bus, desktop)

			tuiLogger.Info().Str("base_url", client.BaseURL()).Msg("Starting browser")
			runErr := tui.Run(GetContext(), tui.Options{
				Backend:    client,
				Bus:        bus,
				Notices:    notices,
				Logger:     tuiLogger,
				PageSize:   cfg.Browser.PageSize,
				WindowSize: cfg.Browser.WindowSize,
				Email:      cfg.Server.UserEmail,
			})
			tuiLogger.Info().
				Int64("api_calls", client.TotalCalls()).
				Int64("dropped_events", bus.GetDroppedEventCount()).
				Msg("Browser closed")
			return runErr
		},
	}

	cmd.Flags().IntVarP(&pageSize, "size", "n", 0, "Initial rows per page: 5, 10, 25, 50, or 100")

	return cmd
}
