package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	AutoApply AutoApplyConfig `mapstructure:"autoapply"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig selects the backing store. Driver is "postgres",
// "sqlite" or "memory"; URL is the Postgres DSN, Path the SQLite file.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
	Path   string `mapstructure:"path"`
}

type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

type AutoApplyConfig struct {
	// Interval between batch runs under `serve`, e.g. "30m". Empty
	// disables the in-process scheduler (run `jean autoapply` from cron
	// instead).
	Interval string `mapstructure:"interval"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads the YAML config at path and applies environment overrides.
// A missing file is fine when the environment carries everything.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "jean.db")
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("autoapply.interval", "")
	v.SetDefault("logging.level", "info")

	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		config.Database.Driver = "postgres"
		config.Database.URL = dbURL
	}
	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
		config.Telegram.Enabled = true
	}
	if addr := v.GetString("LISTEN_ADDR"); addr != "" {
		config.Server.Addr = addr
	}

	return &config, nil
}

// Validate catches configurations that cannot start.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required when telegram is enabled")
	}
	return nil
}
