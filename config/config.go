package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CachePolicy holds the staleness and retention windows of one class of query.
type CachePolicy struct {
	Stale  time.Duration `mapstructure:"stale" json:"stale"`
	Retain time.Duration `mapstructure:"retain" json:"retain"`
}

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
		Mode string `mapstructure:"mode"` // gin mode: debug, release, test
	} `mapstructure:"server"`
	Database struct {
		Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
		DSN    string `mapstructure:"dsn"`    // "memory", a file path, or a postgres DSN
	} `mapstructure:"database"`
	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		Issuer    string        `mapstructure:"issuer"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`
	Cache struct {
		List            CachePolicy   `mapstructure:"list"`
		Stats           CachePolicy   `mapstructure:"stats"`
		JanitorInterval time.Duration `mapstructure:"janitor_interval"`
	} `mapstructure:"cache"`
	Search struct {
		Debounce time.Duration `mapstructure:"debounce"`
	} `mapstructure:"search"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// AppConfig is the global configuration instance.
var AppConfig Config

// SetDefaults registers the default for every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "memory")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "kbconsole")
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("cache.list.stale", "30s")
	v.SetDefault("cache.list.retain", "60s")
	v.SetDefault("cache.stats.stale", "60s")
	v.SetDefault("cache.stats.retain", "120s")
	v.SetDefault("cache.janitor_interval", "15s")
	v.SetDefault("search.debounce", "500ms")
	v.SetDefault("log.level", "info")
}

// LoadConfig loads configuration from file and environment variables into AppConfig.
// An explicit path must exist; without one the usual locations are searched and a
// missing file falls back to defaults.
func LoadConfig(path string) error {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("../config")
	}

	v.SetEnvPrefix("KBCONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading configuration file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshalling configuration: %w", err)
	}

	// Kept for deployments that only set the bare variable.
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported server mode %q", c.Server.Mode)
	}
	if c.Database.Driver == "postgres" && (c.Database.DSN == "" || c.Database.DSN == "memory") {
		return errors.New("postgres driver requires database.dsn")
	}
	if c.Cache.List.Stale > c.Cache.List.Retain || c.Cache.Stats.Stale > c.Cache.Stats.Retain {
		return errors.New("cache stale window must not exceed the retain window")
	}
	if c.Search.Debounce < 0 {
		return errors.New("search.debounce must not be negative")
	}
	return nil
}
