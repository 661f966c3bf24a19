package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/surveyops/surveyctl/internal/api"
	"github.com/surveyops/surveyctl/internal/session"
)

// newLoginCmd creates the 'login' command.
func newLoginCmd() *cobra.Command {
	var (
		email         string
		passwordStdin bool
		force         bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an administrator",
		Long: `Log in to the survey backend and store the session cookie.

The email comes from --email, SURVEYCTL_EMAIL, or server.user_email in the
config file, and is prompted for otherwise. The password comes from
--password-stdin, SURVEYCTL_PASSWORD, or an interactive prompt.

Examples:
  surveyctl login --email admin@example.com
  echo "$PASSWORD" | surveyctl login --email admin@example.com --password-stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()
			logger := GetLogger()
			out := cmd.OutOrStdout()

			client, cfg, err := getAPIClient()
			if err != nil {
				return err
			}

			if !force && checkSession(ctx, client) == session.StatusAuthenticated {
				fmt.Fprintln(out, "Already logged in. Use --force to log in again.")
				return nil
			}

			if email == "" {
				email = cfg.Server.UserEmail
			}
			if email == "" {
				email, err = promptLine(cmd.InOrStdin(), cmd.ErrOrStderr(), "Email: ")
				if err != nil {
					return fmt.Errorf("failed to read email: %w", err)
				}
			}
			email = strings.TrimSpace(email)

			password := cfg.Password
			switch {
			case passwordStdin:
				password, err = promptLine(cmd.InOrStdin(), cmd.ErrOrStderr(), "")
			case password == "":
				password, err = promptSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
			}
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			if email == "" || password == "" {
				return errors.New("email and password are required")
			}

			msg, err := client.Login(ctx, email, password)
			if err != nil {
				if errors.Is(err, api.ErrInvalidCredentials) {
					return errors.New("invalid email or password")
				}
				return fmt.Errorf("login failed: %w", err)
			}

			logger.Debug().Str("email", email).Str("message", msg).Msg("Logged in")
			fmt.Fprintf(out, "Logged in as %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Administrator email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Log in even if a session is already valid")

	return cmd
}

// newLogoutCmd creates the 'logout' command.
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()
			logger := GetLogger()

			client, _, err := getAPIClient()
			if err != nil {
				return err
			}

			gate := session.NewGate(client, nil, logger)
			defer gate.Close()

			remote := gate.Logout(ctx)
			remoteErr := <-remote
			if err := client.ClearSession(); err != nil {
				return fmt.Errorf("failed to clear stored session: %w", err)
			}

			if remoteErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: the server did not confirm logout: %v\n", remoteErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully")
			return nil
		},
	}
}

// newStatusCmd creates the 'status' command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the stored session is valid",
		Long: `Check the stored session against the backend.

Exits non-zero when not logged in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			client, _, err := getAPIClient()
			if err != nil {
				return err
			}

			status := checkSession(ctx, client)
			fmt.Fprintf(cmd.OutOrStdout(), "Server:  %s\nSession: %s\n", client.BaseURL(), status)
			if status != session.StatusAuthenticated {
				return ErrNotLoggedIn
			}
			return nil
		},
	}
}
