package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/surveyops/surveyctl/internal/api"
	"github.com/surveyops/surveyctl/internal/config"
	"github.com/surveyops/surveyctl/internal/http"
	"github.com/surveyops/surveyctl/internal/logging"
	"github.com/surveyops/surveyctl/internal/session"
)

// ErrNotLoggedIn is returned by commands that need a session when the
// session gate redirects to login.
var ErrNotLoggedIn = errors.New("not logged in; run `surveyctl login`")

// loadConfig reads the config file and overlays environment and flags.
// Priority: flags > environment > config file > defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if baseURLFlag != "" {
		cfg.Server.BaseURL = baseURLFlag
	}
	if !verbose && !debug && cfg.Logging.Level != "" {
		level, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid logging.level: %w", err)
		}
		logging.SetGlobalLevel(level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// getAPIClient loads configuration and creates an API client backed by the
// persisted cookie jar. It prompts for a proxy password when one is needed
// and not configured.
func getAPIClient() (*api.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	client, err := newAPIClient(cfg, GetLogger())
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

func newAPIClient(cfg *config.Config, logger *logging.Logger) (*api.Client, error) {
	if http.NeedsProxyPassword(cfg) {
		pw, err := promptSecret(os.Stdin, os.Stderr, fmt.Sprintf("Proxy password for %s: ", cfg.HTTP.ProxyUser))
		if err != nil {
			return nil, fmt.Errorf("failed to read proxy password: %w", err)
		}
		cfg.HTTP.ProxyPassword = pw
	}

	if err := config.EnsureStateDir(); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	jar, err := http.LoadJar(config.CookiePath())
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	client, err := api.NewClient(cfg, jar, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// checkSession mounts a session gate, waits for it to resolve, and returns
// its final status.
func checkSession(ctx context.Context, auth session.Authenticator) session.Status {
	gate := session.NewGate(auth, nil, GetLogger())
	defer gate.Close()

	gate.Mount(ctx)
	select {
	case <-gate.Done():
	case <-ctx.Done():
	}
	return gate.Status()
}

// requireSession returns ErrNotLoggedIn unless the gate resolves to
// authenticated.
func requireSession(ctx context.Context, auth session.Authenticator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if checkSession(ctx, auth) != session.StatusAuthenticated {
		return ErrNotLoggedIn
	}
	return nil
}
