package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/arbor/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Tree      TreeConfig        `yaml:"tree"`
	Dates     DatesConfig       `yaml:"dates"`
	Clipboard ClipboardConfig   `yaml:"clipboard"`
	Inbox     InboxConfig       `yaml:"inbox"`
	Exports   ExportsConfig     `yaml:"exports"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.SQLite, &c.Tree, &c.Dates, &c.Inbox, &c.Auth} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// LogFile receives logs in TUI mode, where stdout belongs to the screen.
	LogFile string     `yaml:"log_file"`
	HTTP    HTTPConfig `yaml:"http"`
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

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// TreeConfig controls how much of the outline the view loads and how
// outline text is indented.
type TreeConfig struct {
	MaxDepth int `yaml:"max_depth"`
	Indent   int `yaml:"indent"`
}

// Validate validates the tree configuration.
func (c *TreeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxDepth, validation.Required, validation.Min(1), validation.Max(50)),
		validation.Field(&c.Indent, validation.Required, validation.Min(1), validation.Max(8)),
	)
}

// DatesConfig holds locale hints for resolving dates typed into notes.
type DatesConfig struct {
	MonthFirst bool   `yaml:"month_first"`
	Timezone   string `yaml:"timezone"`
}

// Location returns the configured zone. Empty and "Local" mean the system
// zone.
func (c *DatesConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("dates: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate validates the dates configuration.
func (c *DatesConfig) Validate() error {
	_, err := c.Location()
	return err
}

// ClipboardConfig controls mirroring copies to the OS clipboard.
type ClipboardConfig struct {
	System bool `yaml:"system"`
}

// InboxConfig holds the directory watched for outline files to import.
type InboxConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Path     string        `yaml:"path"`
	ParentID string        `yaml:"parent_id"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the inbox configuration.
func (c *InboxConfig) Validate() error {
	if c.ParentID == "" {
		c.ParentID = models.RootID
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// ExportsConfig holds the directory exports are written to. An empty path
// disables the export endpoints.
type ExportsConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
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
		return errors.New("auth: mode is \"token\" but token is empty")
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
		SQLite: SQLiteConfig{
			Path: "./arbor.db",
		},
		Tree: TreeConfig{
			MaxDepth: 10,
			Indent:   4,
		},
		Dates: DatesConfig{
			MonthFirst: true,
			Timezone:   "Local",
		},
		Inbox: InboxConfig{
			Path:     "./inbox",
			ParentID: models.RootID,
			Debounce: 500 * time.Millisecond,
		},
		Exports: ExportsConfig{
			Path: "./exports",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
