package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Settings SettingsConfig    `yaml:"settings"`
	Bridge   BridgeConfig      `yaml:"bridge"`
	Sync     SyncConfig        `yaml:"sync"`
	Host     HostConfig        `yaml:"host"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if err := c.Bridge.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds the metadata cache database path.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SettingsConfig holds the path of the persisted settings record
// (rule set, widget id, note folders).
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the settings configuration.
func (c *SettingsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// BridgeConfig holds the WebSocket bridge policy. AllowedOrigins is the
// fixed handshake allow-list: the surface's production origin plus a
// local development origin.
type BridgeConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Validate validates the bridge configuration.
func (c *BridgeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AllowedOrigins, validation.Required, validation.Length(1, 0)),
	)
}

// SyncConfig tunes the change debouncer.
type SyncConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// Window returns the debounce window, defaulting to one second.
func (c *SyncConfig) Window() time.Duration {
	if c.DebounceMS <= 0 {
		return time.Second
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// HostConfig selects the system opener used for external URLs.
type HostConfig struct {
	Opener string `yaml:"opener"`
}

// AuthConfig holds authentication for the local REST mirror.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
//
// The WebSocket bridge is not covered by this: its boundary is the
// origin allow-list.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./vaultsync.db",
		},
		Settings: SettingsConfig{
			Path: "./vaultsync-settings.json",
		},
		Bridge: BridgeConfig{
			AllowedOrigins: []string{"viewday.app", "localhost:5173"},
		},
		Host: HostConfig{
			Opener: "xdg-open",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
