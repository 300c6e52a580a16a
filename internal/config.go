package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mjott/hackshelf/internal/replicate"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Catalog CatalogConfig     `yaml:"catalog"`
	Library LibraryConfig     `yaml:"library"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.Library.Validate(); err != nil {
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

// CatalogConfig holds the backing document path and flush behaviour.
type CatalogConfig struct {
	Path string `yaml:"path"`
	// FlushDelaySeconds is the debounce window between the last edit and
	// the commit it triggers.
	FlushDelaySeconds int `yaml:"flush_delay_seconds"`
}

// FlushDelay returns the debounce window as a duration.
func (c *CatalogConfig) FlushDelay() time.Duration {
	return time.Duration(c.FlushDelaySeconds) * time.Second
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.FlushDelaySeconds, validation.Min(0)),
	)
}

// LibraryConfig holds the artifact library root and multi-category
// replication settings.
type LibraryConfig struct {
	Path      string          `yaml:"path"`
	MultiType MultiTypeConfig `yaml:"multi_type"`
}

// Validate validates the library configuration.
func (c *LibraryConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	); err != nil {
		return err
	}
	return c.MultiType.Validate()
}

// MultiTypeConfig controls what happens when a hack belongs to more than
// one category.
type MultiTypeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"`
}

// Validate validates the multi-type configuration.
func (c *MultiTypeConfig) Validate() error {
	// Normalise empty mode for backward compatibility with configs
	// written before replication modes existed.
	if c.Mode == "" {
		c.Mode = replicate.ModePrimaryOnly
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required,
			validation.In(replicate.ModePrimaryOnly, replicate.ModeCopyAll)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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
		Catalog: CatalogConfig{
			Path:              "./hackshelf.json",
			FlushDelaySeconds: 2,
		},
		Library: LibraryConfig{
			Path: "./library",
			MultiType: MultiTypeConfig{
				Enabled: true,
				Mode:    replicate.ModeCopyAll,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
