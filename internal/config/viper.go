package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Keys under which flags and environment variables are registered with viper.
const (
	KeyConfig      = "config"
	KeyEndpoint    = "endpoint"
	KeyEnvironment = "environment"
	KeyInterval    = "interval"
	KeyPGHost      = "pg-host"
	KeyPGPort      = "pg-port"
	KeyPGUser      = "pg-user"
	KeyPGPassword  = "pg-password"
	KeyPGDatabase  = "pg-database"
	KeyPGSSLMode   = "pg-sslmode"
	KeyAddress     = "address"
	KeyVerbose     = "verbose"
)

// EnvPrefix is the prefix of environment variables that have no legacy name, e.g. LAYERMAP_SCRAPER_LOG_LEVEL
const EnvPrefix = "LAYERMAP_SCRAPER"

// envBindings maps viper keys to the environment variables that may set them
var envBindings = map[string][]string{
	KeyConfig:      {"LAYERMAP_SCRAPER_CONFIG"},
	KeyEndpoint:    {"SCRAPE_ENDPOINT"},
	KeyEnvironment: {"SCRAPE_ENVIRONMENT"},
	KeyInterval:    {"SCRAPE_INTERVAL"},
	KeyPGHost:      {"PGHOST"},
	KeyPGPort:      {"PGPORT"},
	KeyPGUser:      {"PGUSER"},
	KeyPGPassword:  {"PGPASSWORD"},
	KeyPGDatabase:  {"PGDATABASE"},
	KeyPGSSLMode:   {"PGSSLMODE"},
	KeyAddress:     {"LAYERMAP_SCRAPER_ADDRESS"},
}

// BindEnv registers the environment variables for every key with v.
func BindEnv(v *viper.Viper) error {
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}
	return nil
}

// FromViper builds the configuration: the file named by the config key (if
// any) is loaded first, then every key set through a flag or the environment
// overrides it. Non-empty targets replace the file's targets.
// The result is not validated.
func FromViper(v *viper.Viper, targets []string) (*Config, error) {
	var opts []Option
	if path := v.GetString(KeyConfig); path != "" {
		opts = append(opts, WithConfigPath(path))
	}

	cfg, err := LoadConfig(opts...)
	if err != nil {
		return nil, err
	}

	overrideString(v, KeyEndpoint, &cfg.Pageserver.Endpoint)
	overrideString(v, KeyEnvironment, &cfg.Pageserver.Environment)
	overrideString(v, KeyInterval, &cfg.Scrape.Interval)
	overrideString(v, KeyAddress, &cfg.Server.Address)
	if v.IsSet(KeyVerbose) && v.GetBool(KeyVerbose) {
		cfg.Verbose = true
	}

	if len(targets) > 0 {
		cfg.Scrape.Targets = targets
	}

	if anySet(v, KeyPGHost, KeyPGPort, KeyPGUser, KeyPGPassword, KeyPGDatabase, KeyPGSSLMode) && cfg.Database == nil {
		cfg.Database = &DatabaseConfig{}
	}
	if db := cfg.Database; db != nil {
		overrideString(v, KeyPGHost, &db.Host)
		overrideString(v, KeyPGUser, &db.User)
		overrideString(v, KeyPGPassword, &db.Password)
		overrideString(v, KeyPGDatabase, &db.Database)
		overrideString(v, KeyPGSSLMode, &db.SSLMode)
		if v.IsSet(KeyPGPort) && v.GetInt(KeyPGPort) != 0 {
			db.Port = v.GetInt(KeyPGPort)
		}
	}

	return cfg, nil
}

func overrideString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		if s := v.GetString(key); s != "" {
			*dst = s
		}
	}
}

func anySet(v *viper.Viper, keys ...string) bool {
	for _, k := range keys {
		if v.IsSet(k) && v.GetString(k) != "" {
			return true
		}
	}
	return false
}
