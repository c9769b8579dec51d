package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// minProductionSecret is the shortest signing secret accepted in production.
const minProductionSecret = 32

// Directory backends for the authorization whitelist.
const (
	DirectoryPostgres = "postgres"
	DirectorySheet    = "sheet"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port        int    `envconfig:"PORT" default:"3000"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"VERSION" default:"dev"`

	GoogleClientID   string `envconfig:"GOOGLE_CLIENT_ID" required:"true"`
	GoogleServiceKey string `envconfig:"GOOGLE_SERVICE_KEY" required:"true"`
	SpreadsheetID    string `envconfig:"SPREADSHEET_ID" required:"true"`
	ArchiveFolderID  string `envconfig:"ARCHIVE_FOLDER_ID" required:"true"`
	JWTSecret        string `envconfig:"JWT_SECRET" required:"true"`

	AuthDirectory     string        `envconfig:"AUTH_DIRECTORY" default:"postgres"`
	DatabaseURL       string        `envconfig:"DATABASE_URL" default:""`
	DBMaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`

	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	MaxUploadBytes int64    `envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
}

// Load reads configuration from environment variables into a Config struct.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.AuthDirectory {
	case DirectoryPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when AUTH_DIRECTORY=postgres"))
		}
		if c.DBMaxConns <= 0 {
			errs = append(errs, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns))
		}
	case DirectorySheet:
	default:
		errs = append(errs, fmt.Errorf("AUTH_DIRECTORY must be %q or %q, got %q", DirectoryPostgres, DirectorySheet, c.AuthDirectory))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.IsProduction() && len(c.JWTSecret) < minProductionSecret {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minProductionSecret))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
