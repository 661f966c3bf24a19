package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.BaseURL != "http://localhost:5000/api" {
		t.Errorf("expected default BaseURL to be http://localhost:5000/api, got %s", cfg.Server.BaseURL)
	}
	if cfg.Browser.PageSize != 10 {
		t.Errorf("expected default PageSize to be 10, got %d", cfg.Browser.PageSize)
	}
	if cfg.Browser.WindowSize != 5 {
		t.Errorf("expected default WindowSize to be 5, got %d", cfg.Browser.WindowSize)
	}
	if cfg.HTTP.RetryMax != 0 {
		t.Errorf("expected default RetryMax to be 0, got %d", cfg.HTTP.RetryMax)
	}
	if cfg.HTTP.ProxyMode != ProxyModeNone {
		t.Errorf("expected default ProxyMode to be %s, got %s", ProxyModeNone, cfg.HTTP.ProxyMode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sub", "config")

	cfg := New()
	cfg.Server.BaseURL = "https://surveys.example.com/api"
	cfg.Server.UserEmail = "admin@example.com"
	cfg.HTTP.RequestsPerSecond = 2.5
	cfg.HTTP.ProxyMode = ProxyModeBasic
	cfg.HTTP.ProxyHost = "proxy.internal"
	cfg.HTTP.NoProxy = "localhost,10.0.0.0/8"
	cfg.Browser.PageSize = 25
	cfg.Notifications.Desktop = true
	cfg.Logging.Level = "debug"
	cfg.Password = "must-not-be-saved"

	if err := Save(cfg, configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("expected permissions 0600, got %o", info.Mode().Perm())
	}
	if _, err := os.Stat(configPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file was left behind")
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Server != cfg.Server {
		t.Errorf("Server mismatch: expected %+v, got %+v", cfg.Server, loaded.Server)
	}
	if loaded.HTTP != cfg.HTTP {
		t.Errorf("HTTP mismatch: expected %+v, got %+v", cfg.HTTP, loaded.HTTP)
	}
	if loaded.Browser != cfg.Browser {
		t.Errorf("Browser mismatch: expected %+v, got %+v", cfg.Browser, loaded.Browser)
	}
	if loaded.Notifications != cfg.Notifications {
		t.Errorf("Notifications mismatch: expected %+v, got %+v", cfg.Notifications, loaded.Notifications)
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("Logging.Level mismatch: expected debug, got %s", loaded.Logging.Level)
	}
	if loaded.Password != "" {
		t.Error("password must not round-trip through the config file")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Browser.PageSize != 10 {
		t.Errorf("expected defaults, got PageSize %d", cfg.Browser.PageSize)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	content := "[server]\nbase_url = https://x.example.com/api\n\n[browser]\npage_size = 50\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.BaseURL != "https://x.example.com/api" {
		t.Errorf("BaseURL = %s", cfg.Server.BaseURL)
	}
	if cfg.Browser.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.Browser.PageSize)
	}
	if cfg.Browser.WindowSize != 5 {
		t.Errorf("WindowSize = %d, want default 5", cfg.Browser.WindowSize)
	}
	if cfg.HTTP.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want default 30", cfg.HTTP.TimeoutSeconds)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("[server\nbase_url"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed INI")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid", func(c *Config) {}, nil},
		{"missing base url", func(c *Config) { c.Server.BaseURL = "  " }, ErrMissingBaseURL},
		{"relative base url", func(c *Config) { c.Server.BaseURL = "/api" }, ErrInvalidBaseURL},
		{"ftp base url", func(c *Config) { c.Server.BaseURL = "ftp://host/api" }, ErrInvalidBaseURL},
		{"page size not allowed", func(c *Config) { c.Browser.PageSize = 7 }, ErrInvalidPageSize},
		{"window size zero", func(c *Config) { c.Browser.WindowSize = 0 }, ErrInvalidWindowSize},
		{"bad proxy mode", func(c *Config) { c.HTTP.ProxyMode = "socks" }, ErrInvalidProxyMode},
		{"proxy mode case insensitive", func(c *Config) { c.HTTP.ProxyMode = "NTLM" }, nil},
		{"zero timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, ErrInvalidTimeout},
		{"negative retries", func(c *Config) { c.HTTP.RetryMax = -1 }, ErrInvalidRetryMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvBaseURL, " https://env.example.com/api ")
	t.Setenv(EnvEmail, "env@example.com")
	t.Setenv(EnvPassword, "s3cret")

	cfg := New()
	cfg.Server.UserEmail = "file@example.com"
	cfg.ApplyEnv()

	if cfg.Server.BaseURL != "https://env.example.com/api" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.UserEmail != "env@example.com" {
		t.Errorf("UserEmail = %q", cfg.Server.UserEmail)
	}
	if cfg.Password != "s3cret" {
		t.Errorf("Password = %q", cfg.Password)
	}
}

func TestApplyEnvEmptyLeavesValues(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	cfg := New()
	cfg.ApplyEnv()
	if cfg.Server.BaseURL != "http://localhost:5000/api" {
		t.Errorf("BaseURL = %q, want default", cfg.Server.BaseURL)
	}
}

func TestGetSet(t *testing.T) {
	cfg := New()

	if err := cfg.Set("browser.page_size", "25"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if cfg.Browser.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25", cfg.Browser.PageSize)
	}

	if err := cfg.Set("http.requests_per_second", "0.5"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, _ := cfg.Get("http.requests_per_second"); got != "0.5" {
		t.Errorf("Get = %q, want 0.5", got)
	}

	if err := cfg.Set("notifications.desktop", "yes"); err == nil {
		t.Error("expected error for non-boolean value")
	}
	if err := cfg.Set("browser.page_size", "ten"); err == nil {
		t.Error("expected error for non-integer value")
	}
	if err := cfg.Set("server.colour", "blue"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Set unknown key = %v, want ErrUnknownKey", err)
	}
	if _, err := cfg.Get("nope"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get unknown key = %v, want ErrUnknownKey", err)
	}
}

func TestKeysAreSortedAndSettable(t *testing.T) {
	keys := Keys()
	cfg := New()
	for i, k := range keys {
		if i > 0 && keys[i-1] >= k {
			t.Errorf("keys not sorted at %d: %s >= %s", i, keys[i-1], k)
		}
		v, err := cfg.Get(k)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", k, err)
		}
		if err := cfg.Set(k, v); err != nil {
			t.Errorf("Set(%s, %q) failed: %v", k, v, err)
		}
	}
}

func TestBaseURLTrimsSlash(t *testing.T) {
	cfg := New()
	cfg.Server.BaseURL = "http://localhost:5000/api/"
	if got := cfg.BaseURL(); got != "http://localhost:5000/api" {
		t.Errorf("BaseURL() = %q", got)
	}
}

func TestIsSecret(t *testing.T) {
	if !IsSecret("http.proxy_password") {
		t.Error("proxy password should be secret")
	}
	if IsSecret("server.base_url") {
		t.Error("base url should not be secret")
	}
}
