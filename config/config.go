// Package config loads server settings from an optional TOML file and the
// environment. Environment values win over file values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FallbackSecret signs session tokens when AUTH_SECRET is unset. It is public
// and must not be relied on outside local development.
const FallbackSecret = "fallback-secret-do-not-use-in-production"

const (
	DefaultAddr            = ":8080"
	DefaultDatabasePath    = "./kanban.db"
	DefaultCacheTTL        = time.Minute
	DefaultUpdatesChannel  = "todos:updates"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds the full server configuration.
type Config struct {
	Addr            string
	DatabasePath    string
	AuthUsername    string
	AuthPassword    string
	AuthSecret      string
	AppEnv          string
	RedisURL        string
	CacheTTL        time.Duration
	UpdatesChannel  string
	TraceStdout     bool
	Debug           bool
	LogFormat       string
	ShutdownTimeout time.Duration
}

// fileConfig mirrors Config in the TOML file. Durations are strings such as
// "30s" so they read the same as their environment counterparts.
type fileConfig struct {
	Addr            string `toml:"addr"`
	DatabasePath    string `toml:"database_path"`
	AuthUsername    string `toml:"auth_username"`
	AuthPassword    string `toml:"auth_password"`
	AuthSecret      string `toml:"auth_secret"`
	AppEnv          string `toml:"app_env"`
	RedisURL        string `toml:"redis_url"`
	CacheTTL        string `toml:"cache_ttl"`
	UpdatesChannel  string `toml:"updates_channel"`
	TraceStdout     *bool  `toml:"trace_stdout"`
	Debug           *bool  `toml:"debug"`
	LogFormat       string `toml:"log_format"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:            DefaultAddr,
		DatabasePath:    DefaultDatabasePath,
		CacheTTL:        DefaultCacheTTL,
		UpdatesChannel:  DefaultUpdatesChannel,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// AuthEnabled reports whether both credentials are configured.
func (c Config) AuthEnabled() bool {
	return c.AuthUsername != "" && c.AuthPassword != ""
}

// SecretIsFallback reports whether tokens are signed with the public fallback.
func (c Config) SecretIsFallback() bool {
	return c.AuthSecret == FallbackSecret
}

// Production reports whether cookies must be marked Secure.
func (c Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load builds the configuration from defaults, the TOML file named by
// KANBAN_CONFIG and the environment, in that order.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path, ok := lookup("KANBAN_CONFIG"); ok && path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = FallbackSecret
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	setString(&cfg.Addr, fc.Addr)
	setString(&cfg.DatabasePath, fc.DatabasePath)
	setString(&cfg.AuthUsername, fc.AuthUsername)
	setString(&cfg.AuthPassword, fc.AuthPassword)
	setString(&cfg.AuthSecret, fc.AuthSecret)
	setString(&cfg.AppEnv, fc.AppEnv)
	setString(&cfg.RedisURL, fc.RedisURL)
	setString(&cfg.UpdatesChannel, fc.UpdatesChannel)
	setString(&cfg.LogFormat, fc.LogFormat)
	if fc.TraceStdout != nil {
		cfg.TraceStdout = *fc.TraceStdout
	}
	if fc.Debug != nil {
		cfg.Debug = *fc.Debug
	}
	if err := setDuration(&cfg.CacheTTL, "cache_ttl", fc.CacheTTL); err != nil {
		return err
	}
	return setDuration(&cfg.ShutdownTimeout, "shutdown_timeout", fc.ShutdownTimeout)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	env := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	setString(&cfg.Addr, env("ADDR"))
	setString(&cfg.DatabasePath, env("DATABASE_PATH"))
	setString(&cfg.AuthUsername, env("AUTH_USERNAME"))
	setString(&cfg.AuthPassword, env("AUTH_PASSWORD"))
	setString(&cfg.AuthSecret, env("AUTH_SECRET"))
	setString(&cfg.AppEnv, env("APP_ENV"))
	setString(&cfg.RedisURL, env("REDIS_URL"))
	setString(&cfg.UpdatesChannel, env("UPDATES_CHANNEL"))
	setString(&cfg.LogFormat, env("LOG_FORMAT"))
	if err := setBool(&cfg.TraceStdout, "TRACE_STDOUT", env("TRACE_STDOUT")); err != nil {
		return err
	}
	if err := setBool(&cfg.Debug, "DEBUG", env("DEBUG")); err != nil {
		return err
	}
	if err := setDuration(&cfg.CacheTTL, "CACHE_TTL", env("CACHE_TTL")); err != nil {
		return err
	}
	return setDuration(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT", env("SHUTDOWN_TIMEOUT"))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, name, v string) error {
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 {
		return fmt.Errorf("invalid %s: must not be negative", name)
	}
	*dst = d
	return nil
}
