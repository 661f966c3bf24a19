// Package config provides configuration management for surveyctl.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/surveyops/surveyctl/internal/constants"
)

// Config is the on-disk configuration plus values that only ever come from
// the environment or flags (Password).
//
// INI format:
//
//	[server]
//	base_url = http://localhost:5000/api
//	user_email = admin@example.com
//
//	[http]
//	timeout_seconds = 30
//	retry_max = 0
//	requests_per_second = 10
//	burst = 20
//	proxy_mode = no-proxy
//
//	[browser]
//	page_size = 10
//	window_size = 5
//
//	[notifications]
//	desktop = false
//	ttl_seconds = 4
//
//	[logging]
//	level = info
//	file = ~/.local/state/surveyctl/surveyctl.log
type Config struct {
	Server        ServerConfig
	HTTP          HTTPConfig
	Browser       BrowserConfig
	Notifications NotificationConfig
	Logging       LoggingConfig

	// Password is never written to disk. It is read from SURVEYCTL_PASSWORD
	// or stdin by the login command.
	Password string
}

// ServerConfig locates the survey backend.
type ServerConfig struct {
	BaseURL   string
	UserEmail string
}

// HTTPConfig configures the transport.
type HTTPConfig struct {
	TimeoutSeconds    int
	RetryMax          int
	RequestsPerSecond float64
	Burst             float64

	ProxyMode     string // no-proxy, system, basic, ntlm
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string
	ProxyWarmup   bool
}

// BrowserConfig holds defaults for the record browser.
type BrowserConfig struct {
	PageSize   int
	WindowSize int
}

// NotificationConfig contains settings for toasts.
type NotificationConfig struct {
	// Desktop mirrors toasts to desktop notifications.
	Desktop    bool
	TTLSeconds int
}

// LoggingConfig configures the log level and the rotating log file.
type LoggingConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Proxy modes
const (
	ProxyModeNone   = "no-proxy"
	ProxyModeSystem = "system"
	ProxyModeBasic  = "basic"
	ProxyModeNTLM   = "ntlm"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvBaseURL  = "SURVEYCTL_BASE_URL"
	EnvEmail    = "SURVEYCTL_EMAIL"
	EnvPassword = "SURVEYCTL_PASSWORD"
)

// Validation errors
var (
	ErrMissingBaseURL    = errors.New("server.base_url is required")
	ErrInvalidBaseURL    = errors.New("server.base_url must be an absolute http(s) URL")
	ErrInvalidPageSize   = errors.New("browser.page_size must be one of 5, 10, 25, 50, 100")
	ErrInvalidWindowSize = errors.New("browser.window_size must be at least 1")
	ErrInvalidProxyMode  = errors.New("http.proxy_mode must be one of no-proxy, system, basic, ntlm")
	ErrInvalidTimeout    = errors.New("http.timeout_seconds must be positive")
	ErrInvalidRetryMax   = errors.New("http.retry_max must not be negative")
	ErrUnknownKey        = errors.New("unknown configuration key")
)

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: constants.DefaultBaseURL,
		},
		HTTP: HTTPConfig{
			TimeoutSeconds:    int(constants.HTTPClientTimeout / time.Second),
			RetryMax:          constants.DefaultRetryMax,
			RequestsPerSecond: constants.DefaultRequestsPerSecond,
			Burst:             constants.DefaultBurst,
			ProxyMode:         ProxyModeNone,
			ProxyPort:         constants.DefaultProxyPort,
		},
		Browser: BrowserConfig{
			PageSize:   constants.DefaultPageSize,
			WindowSize: constants.DefaultWindowSize,
		},
		Notifications: NotificationConfig{
			TTLSeconds: int(constants.DefaultNotificationTTL / time.Second),
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       DefaultLogPath(),
			MaxSizeMB:  constants.DefaultLogMaxSizeMB,
			MaxBackups: constants.DefaultLogMaxBackups,
			MaxAgeDays: constants.DefaultLogMaxAgeDays,
		},
	}
}

// Load loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	server := iniFile.Section("server")
	cfg.Server.BaseURL = server.Key("base_url").MustString(cfg.Server.BaseURL)
	cfg.Server.UserEmail = server.Key("user_email").String()

	h := iniFile.Section("http")
	cfg.HTTP.TimeoutSeconds = h.Key("timeout_seconds").MustInt(cfg.HTTP.TimeoutSeconds)
	cfg.HTTP.RetryMax = h.Key("retry_max").MustInt(cfg.HTTP.RetryMax)
	cfg.HTTP.RequestsPerSecond = h.Key("requests_per_second").MustFloat64(cfg.HTTP.RequestsPerSecond)
	cfg.HTTP.Burst = h.Key("burst").MustFloat64(cfg.HTTP.Burst)
	cfg.HTTP.ProxyMode = h.Key("proxy_mode").MustString(cfg.HTTP.ProxyMode)
	cfg.HTTP.ProxyHost = h.Key("proxy_host").String()
	cfg.HTTP.ProxyPort = h.Key("proxy_port").MustInt(cfg.HTTP.ProxyPort)
	cfg.HTTP.ProxyUser = h.Key("proxy_user").String()
	cfg.HTTP.ProxyPassword = h.Key("proxy_password").String()
	cfg.HTTP.NoProxy = h.Key("no_proxy").String()
	cfg.HTTP.ProxyWarmup = h.Key("proxy_warmup").MustBool(false)

	b := iniFile.Section("browser")
	cfg.Browser.PageSize = b.Key("page_size").MustInt(cfg.Browser.PageSize)
	cfg.Browser.WindowSize = b.Key("window_size").MustInt(cfg.Browser.WindowSize)

	n := iniFile.Section("notifications")
	cfg.Notifications.Desktop = n.Key("desktop").MustBool(false)
	cfg.Notifications.TTLSeconds = n.Key("ttl_seconds").MustInt(cfg.Notifications.TTLSeconds)

	l := iniFile.Section("logging")
	cfg.Logging.Level = l.Key("level").MustString(cfg.Logging.Level)
	cfg.Logging.File = l.Key("file").MustString(cfg.Logging.File)
	cfg.Logging.MaxSizeMB = l.Key("max_size_mb").MustInt(cfg.Logging.MaxSizeMB)
	cfg.Logging.MaxBackups = l.Key("max_backups").MustInt(cfg.Logging.MaxBackups)
	cfg.Logging.MaxAgeDays = l.Key("max_age_days").MustInt(cfg.Logging.MaxAgeDays)

	return cfg, nil
}

// Save saves configuration to an INI file.
// Creates parent directories if they don't exist.
// The proxy password is stored in the file - ensure appropriate file permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()
	for _, k := range Keys() {
		section, name, _ := strings.Cut(k, ".")
		value, _ := cfg.Get(k)
		iniFile.Section(section).Key(name).SetValue(value)
	}

	// Use temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// ApplyEnv overlays SURVEYCTL_* environment variables onto cfg.
func (cfg *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvEmail)); v != "" {
		cfg.Server.UserEmail = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Password = v
	}
}

// Validate checks if the configuration is usable.
// Returns nil if valid, or an error describing what's wrong.
func (cfg *Config) Validate() error {
	base := strings.TrimSpace(cfg.Server.BaseURL)
	if base == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if !constants.IsAllowedPageSize(cfg.Browser.PageSize) {
		return ErrInvalidPageSize
	}
	if cfg.Browser.WindowSize < 1 {
		return ErrInvalidWindowSize
	}

	switch strings.ToLower(cfg.HTTP.ProxyMode) {
	case "", ProxyModeNone, ProxyModeSystem, ProxyModeBasic, ProxyModeNTLM:
	default:
		return ErrInvalidProxyMode
	}

	if cfg.HTTP.TimeoutSeconds <= 0 {
		return ErrInvalidTimeout
	}
	if cfg.HTTP.RetryMax < 0 {
		return ErrInvalidRetryMax
	}

	return nil
}

// Timeout returns the HTTP client timeout.
func (cfg *Config) Timeout() time.Duration {
	return time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
}

// NotificationTTL returns how long a toast stays visible.
func (cfg *Config) NotificationTTL() time.Duration {
	if cfg.Notifications.TTLSeconds <= 0 {
		return constants.DefaultNotificationTTL
	}
	return time.Duration(cfg.Notifications.TTLSeconds) * time.Second
}

// BaseURL returns the server base URL without a trailing slash.
func (cfg *Config) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(cfg.Server.BaseURL), "/")
}

type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

func stringField(p func(*Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error { *p(c) = v; return nil },
	}
}

func intField(p func(*Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("not an integer: %q", v)
			}
			*p(c) = n
			return nil
		},
	}
}

func floatField(p func(*Config) *float64) field {
	return field{
		get: func(c *Config) string { return strconv.FormatFloat(*p(c), 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("not a number: %q", v)
			}
			*p(c) = f
			return nil
		},
	}
}

func boolField(p func(*Config) *bool) field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(*p(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("not a boolean: %q", v)
			}
			*p(c) = b
			return nil
		},
	}
}

var fields = map[string]field{
	"server.base_url":           stringField(func(c *Config) *string { return &c.Server.BaseURL }),
	"server.user_email":         stringField(func(c *Config) *string { return &c.Server.UserEmail }),
	"http.timeout_seconds":      intField(func(c *Config) *int { return &c.HTTP.TimeoutSeconds }),
	"http.retry_max":            intField(func(c *Config) *int { return &c.HTTP.RetryMax }),
	"http.requests_per_second":  floatField(func(c *Config) *float64 { return &c.HTTP.RequestsPerSecond }),
	"http.burst":                floatField(func(c *Config) *float64 { return &c.HTTP.Burst }),
	"http.proxy_mode":           stringField(func(c *Config) *string { return &c.HTTP.ProxyMode }),
	"http.proxy_host":           stringField(func(c *Config) *string { return &c.HTTP.ProxyHost }),
	"http.proxy_port":           intField(func(c *Config) *int { return &c.HTTP.ProxyPort }),
	"http.proxy_user":           stringField(func(c *Config) *string { return &c.HTTP.ProxyUser }),
	"http.proxy_password":       stringField(func(c *Config) *string { return &c.HTTP.ProxyPassword }),
	"http.no_proxy":             stringField(func(c *Config) *string { return &c.HTTP.NoProxy }),
	"http.proxy_warmup":         boolField(func(c *Config) *bool { return &c.HTTP.ProxyWarmup }),
	"browser.page_size":         intField(func(c *Config) *int { return &c.Browser.PageSize }),
	"browser.window_size":       intField(func(c *Config) *int { return &c.Browser.WindowSize }),
	"notifications.desktop":     boolField(func(c *Config) *bool { return &c.Notifications.Desktop }),
	"notifications.ttl_seconds": intField(func(c *Config) *int { return &c.Notifications.TTLSeconds }),
	"logging.level":             stringField(func(c *Config) *string { return &c.Logging.Level }),
	"logging.file":              stringField(func(c *Config) *string { return &c.Logging.File }),
	"logging.max_size_mb":       intField(func(c *Config) *int { return &c.Logging.MaxSizeMB }),
	"logging.max_backups":       intField(func(c *Config) *int { return &c.Logging.MaxBackups }),
	"logging.max_age_days":      intField(func(c *Config) *int { return &c.Logging.MaxAgeDays }),
}

// Keys returns every settable key ("section.name"), sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of a key.
func (cfg *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return f.get(cfg), nil
}

// Set parses value into key. The result is not validated; call Validate.
func (cfg *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err := f.set(cfg, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// IsSecret reports whether a key's value should be masked when displayed.
func IsSecret(key string) bool {
	return key == "http.proxy_password"
}
