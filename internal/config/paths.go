package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName names the per-user config and state directories.
const AppName = "surveyctl"

// ConfigDir returns $XDG_CONFIG_HOME/surveyctl.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// StateDir returns $XDG_STATE_HOME/surveyctl. It holds the session cookie
// jar and logs.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config")
}

// DefaultLogPath returns the default TUI/CLI log file.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), AppName+".log")
}

// CookiePath returns the file the session cookie jar is persisted to.
func CookiePath() string {
	return filepath.Join(StateDir(), "cookies.json")
}

// EnsureStateDir creates the state directory with owner-only permissions.
func EnsureStateDir() error {
	return os.MkdirAll(StateDir(), 0700)
}
