package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Store backends
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

const envPrefix = "NUTRIA"

// Config holds the nutriactl configuration
type Config struct {
	// Base URL of the nutrition backend API (e.g. http://localhost:8000/api/)
	ServerURL string `mapstructure:"server_url"`

	// Enable debug logging
	Debug bool `mapstructure:"debug"`

	// Durable session storage
	Store StoreConfig `mapstructure:"store"`

	// OpenTelemetry tracing
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// StoreConfig selects where the signed-in session is persisted between runs.
type StoreConfig struct {
	// Backend is one of file, sqlite, postgres
	Backend string `mapstructure:"backend"`

	// Path is the directory of the file backend
	Path string `mapstructure:"path"`

	// DSN of the sqlite or postgres backend
	DSN string `mapstructure:"dsn"`

	// Encrypt seals stored values with a local key
	Encrypt bool `mapstructure:"encrypt"`

	// KeyPath is the encryption key file, generated on first use
	KeyPath string `mapstructure:"key_path"`
}

// ObservabilityConfig configures trace export. Tracing is disabled when OTLPEndpoint is empty.
type ObservabilityConfig struct {
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPInsecure   bool   `mapstructure:"otlp_insecure"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
}

// DefaultDir returns the nutriactl state directory (~/.nutria).
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".nutria"), nil
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper, dir string) {
	v.SetDefault("server_url", "http://localhost:8000/api/")
	v.SetDefault("debug", false)
	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.path", dir)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.encrypt", false)
	v.SetDefault("store.key_path", filepath.Join(dir, "session.key"))
	v.SetDefault("observability.otlp_endpoint", "")
	v.SetDefault("observability.otlp_insecure", false)
	v.SetDefault("observability.service_name", "nutriactl")
	v.SetDefault("observability.service_version", "dev")
}

// Load reads configuration from the global viper instance: NUTRIA_ prefixed environment
// variables take precedence over the config file, which takes precedence over defaults.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v, dir)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if cfg.Store.Backend == BackendSQLite && cfg.Store.DSN == "" {
		cfg.Store.DSN = "file:" + filepath.Join(cfg.Store.Path, "session.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values nutriactl cannot run with.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server_url %q is not an absolute URL", c.ServerURL)
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the file backend")
		}
	case BackendSQLite:
	case BackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q (expected file, sqlite or postgres)", c.Store.Backend)
	}

	if c.Store.Encrypt && c.Store.KeyPath == "" {
		return fmt.Errorf("store.key_path is required when store.encrypt is enabled")
	}
	return nil
}
