// Package config provides configuration loading and management for the layer map scraper.
//
// Configuration comes from three places, later ones overriding earlier ones:
// an optional YAML file, environment variables, and command line flags.
// The environment variable names (SCRAPE_ENDPOINT, PGHOST, ...) are the ones
// operators already set for the pageserver tooling, so they carry no prefix.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/layermap-scraper/internal/target"
	"github.com/stacklok/layermap-scraper/internal/telemetry"
)

const (
	// DefaultReconcileInterval is how often the desired set of scrape tasks is recomputed
	DefaultReconcileInterval = 10 * time.Second

	// DefaultRetryCooldown is how long to wait after a failed resolution
	DefaultRetryCooldown = 10 * time.Second

	// DefaultRequestTimeout bounds a single pageserver request
	DefaultRequestTimeout = 30 * time.Second

	defaultDatabasePort = 5432
	defaultSSLMode      = "require"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Pageserver PageserverConfig  `yaml:"pageserver"`
	Scrape     ScrapeConfig      `yaml:"scrape"`
	Database   *DatabaseConfig   `yaml:"database,omitempty"`
	Server     ServerConfig      `yaml:"server,omitempty"`
	Telemetry  *telemetry.Config `yaml:"telemetry,omitempty"`

	// Verbose enables debug logging
	Verbose bool `yaml:"verbose,omitempty"`
}

// PageserverConfig describes the pageserver being scraped
type PageserverConfig struct {
	// Endpoint is the base URL of the management API, e.g. http://pageserver:9898
	Endpoint string `yaml:"endpoint"`

	// Environment labels the deployment (e.g. "staging"); it prefixes the pageserver id in every record
	Environment string `yaml:"environment"`

	// RequestTimeout bounds a single request (e.g. "30s")
	RequestTimeout string `yaml:"requestTimeout,omitempty"`
}

// ScrapeConfig controls what is scraped and how often
type ScrapeConfig struct {
	// Interval is the pause between two scrapes of the same timeline.
	// A bare number is read as seconds.
	Interval string `yaml:"interval"`

	// ReconcileInterval is the pause between two recomputations of the desired task set
	ReconcileInterval string `yaml:"reconcileInterval,omitempty"`

	// RetryCooldown is the pause after a failed resolution before trying again
	RetryCooldown string `yaml:"retryCooldown,omitempty"`

	// Targets are work specifications: ALL, <tenant> or <tenant>:<timeline>
	Targets []string `yaml:"targets"`
}

// ServerConfig configures the operational HTTP endpoints
type ServerConfig struct {
	// Address to listen on, e.g. ":9090". Empty disables the server.
	Address string `yaml:"address,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port, 5432 if unset
	Port int `yaml:"port,omitempty"`

	// User is the database username
	User string `yaml:"user"`

	// Password is only ever taken from the environment or a flag, never from the file
	Password string `yaml:"-"`

	// PasswordFile is the path to a file containing the database password.
	// It takes precedence over Password.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxConns is the maximum size of the connection pool
	MaxConns int32 `yaml:"maxConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// LoadConfig reads and parses a YAML configuration file. The result is not
// validated, because flags and environment variables may still fill in
// required fields.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return &config, nil
}

// GetPassword returns the database password, read from PasswordFile if set,
// otherwise the Password field. Whitespace around a file's content is trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if d.Password != "" {
		return d.Password, nil
	}

	return "", fmt.Errorf("no database password configured: set passwordFile, --pg-password or PGPASSWORD")
}

// GetPort returns the port, using 5432 if not specified
func (d *DatabaseConfig) GetPort() int {
	if d.Port == 0 {
		return defaultDatabasePort
	}
	return d.Port
}

// GetSSLMode returns the SSL mode, using "require" if not specified
func (d *DatabaseConfig) GetSSLMode() string {
	if d.SSLMode == "" {
		return defaultSSLMode
	}
	return d.SSLMode
}

// GetConnectionString builds a PostgreSQL connection URL.
// User and password are escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.GetPort()),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {d.GetSSLMode()}}.Encode(),
	}
	return u.String(), nil
}

// Validate checks the database settings that have no default
func (d *DatabaseConfig) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if d.User == "" {
		return fmt.Errorf("database user is required")
	}
	if d.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if d.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(d.ConnMaxLifetime); err != nil {
			return fmt.Errorf("database connMaxLifetime must be a valid duration: %w", err)
		}
	}
	return nil
}

// ParseInterval parses a duration given either as a Go duration ("30s", "1m")
// or as a bare number of seconds ("30"). The result must be positive.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("interval is empty")
	}

	var d time.Duration
	if secs, err := strconv.Atoi(s); err == nil {
		d = time.Duration(secs) * time.Second
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid interval %q: %w", s, err)
		}
	}

	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %q", s)
	}
	return d, nil
}

// GetInterval returns the per-timeline scrape interval
func (c *Config) GetInterval() time.Duration {
	d, err := ParseInterval(c.Scrape.Interval)
	if err != nil {
		return 0
	}
	return d
}

// GetReconcileInterval returns the reconciliation cadence
func (c *Config) GetReconcileInterval() time.Duration {
	return durationOrDefault(c.Scrape.ReconcileInterval, DefaultReconcileInterval)
}

// GetRetryCooldown returns the pause after a failed resolution
func (c *Config) GetRetryCooldown() time.Duration {
	return durationOrDefault(c.Scrape.RetryCooldown, DefaultRetryCooldown)
}

// GetRequestTimeout returns the per-request timeout for the pageserver
func (c *Config) GetRequestTimeout() time.Duration {
	return durationOrDefault(c.Pageserver.RequestTimeout, DefaultRequestTimeout)
}

func durationOrDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := ParseInterval(s)
	if err != nil {
		return def
	}
	return d
}

// Validate checks everything needed to resolve and scrape targets.
// The database section is validated only when present; commands that write
// records check for its presence themselves.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateEndpoint(c.Pageserver.Endpoint); err != nil {
		return err
	}

	if len(c.Scrape.Targets) == 0 {
		return fmt.Errorf("at least one target (ALL, <tenant> or <tenant>:<timeline>) is required")
	}
	if _, err := target.ParseSpecs(c.Scrape.Targets); err != nil {
		return err
	}

	for name, value := range map[string]string{
		"scrape.reconcileInterval":  c.Scrape.ReconcileInterval,
		"scrape.retryCooldown":      c.Scrape.RetryCooldown,
		"pageserver.requestTimeout": c.Pageserver.RequestTimeout,
	} {
		if value == "" {
			continue
		}
		if _, err := ParseInterval(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if c.Database != nil {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

// ValidateForScrape additionally requires everything a running scraper needs:
// the environment label, the scrape interval and a database.
func (c *Config) ValidateForScrape() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Pageserver.Environment == "" {
		return fmt.Errorf("pageserver environment is required")
	}
	if _, err := ParseInterval(c.Scrape.Interval); err != nil {
		return fmt.Errorf("scrape interval: %w", err)
	}
	if c.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("pageserver endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid pageserver endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("pageserver endpoint must be an http(s) URL, got %q", endpoint)
	}
	return nil
}
