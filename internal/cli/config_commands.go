package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/surveyops/surveyctl/internal/config"
	"github.com/surveyops/surveyctl/internal/constants"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage surveyctl configuration",
		Long: `Configuration management commands for surveyctl.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  get   - Print one setting
  set   - Change one setting
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigGetCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for surveyctl.

Use --force to overwrite an existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()
			path := configPath()

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			fmt.Fprintln(out, "surveyctl Configuration Setup")
			fmt.Fprintln(out, "=============================")
			fmt.Fprintln(out)

			cfg := config.New()
			reader := bufio.NewReader(cmd.InOrStdin())

			cfg.Server.BaseURL = promptDefault(reader, out, "API base URL", cfg.Server.BaseURL)
			cfg.Server.UserEmail = promptDefault(reader, out, "Admin email", "")

			for {
				input := promptDefault(reader, out, "Rows per page (5, 10, 25, 50, 100)", strconv.Itoa(cfg.Browser.PageSize))
				n, err := strconv.Atoi(input)
				if err == nil && constants.IsAllowedPageSize(n) {
					cfg.Browser.PageSize = n
					break
				}
				fmt.Fprintln(out, "  Error: choose one of 5, 10, 25, 50, 100")
			}

			fmt.Fprintln(out)
			proxy := strings.ToLower(promptDefault(reader, out, "Configure proxy? [y/N]", "n"))
			if proxy == "y" || proxy == "yes" {
				fmt.Fprintln(out, "Proxy modes: no-proxy, system, basic, ntlm")
				cfg.HTTP.ProxyMode = promptDefault(reader, out, "Proxy mode", config.ProxyModeSystem)
				if cfg.HTTP.ProxyMode == config.ProxyModeBasic || cfg.HTTP.ProxyMode == config.ProxyModeNTLM {
					cfg.HTTP.ProxyHost = promptDefault(reader, out, "Proxy host", "")
					port := promptDefault(reader, out, "Proxy port", strconv.Itoa(constants.DefaultProxyPort))
					if v, err := strconv.Atoi(port); err == nil && v > 0 {
						cfg.HTTP.ProxyPort = v
					}
					cfg.HTTP.ProxyUser = promptDefault(reader, out, "Proxy user (empty for none)", "")
				}
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			logger.Debug().Str("path", path).Msg("Configuration saved")

			fmt.Fprintln(out)
			fmt.Fprintf(out, "Configuration saved to: %s\n", path)
			fmt.Fprintln(out, "Log in with: surveyctl login")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the effective configuration.

Values come from, in priority order:
  1. Command-line flags (--base-url)
  2. Environment variables (SURVEYCTL_BASE_URL, SURVEYCTL_EMAIL)
  3. Configuration file
  4. Defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := configPath()

			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.ApplyEnv()
			if baseURLFlag != "" {
				cfg.Server.BaseURL = baseURLFlag
			}

			for _, key := range config.Keys() {
				value, _ := cfg.Get(key)
				if config.IsSecret(key) && value != "" {
					value = "<set>"
				}
				fmt.Fprintf(out, "%-32s %s\n", key, value)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Configuration file: %s\n", path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, "  (file does not exist - using defaults)")
			}
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(out, "Warning: %v\n", err)
			}
			return nil
		},
	}
}

// newConfigGetCmd creates the 'config get' command.
func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

// newConfigSetCmd creates the 'config set' command.
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one configuration value",
		Long: `Change one value in the configuration file.

Only the file is read and written; environment variables and flags are not
applied. The result must pass validation before it is saved.

Examples:
  surveyctl config set server.base_url https://surveys.example.com/api
  surveyctl config set browser.page_size 25`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.Keys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			GetLogger().Debug().Str("key", args[0]).Str("path", path).Msg("Configuration updated")
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file and the state directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := configPath()

			fmt.Fprintf(out, "Config: %s\n", path)
			if _, err := os.Stat(path); err != nil {
				fmt.Fprintln(out, "        (does not exist; create it with: surveyctl config init)")
			}
			fmt.Fprintf(out, "State:  %s\n", config.StateDir())
			return nil
		},
	}
}
