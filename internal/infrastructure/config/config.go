package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	sharedConfig "github.com/carrydesk/carrydesk/internal/shared/config"
)

type Config struct {
	Server     sharedConfig.ServerConfig     `mapstructure:"server"`
	Database   sharedConfig.DatabaseConfig   `mapstructure:"database"`
	Logger     sharedConfig.LoggerConfig     `mapstructure:"logger"`
	Cache      sharedConfig.CacheConfig      `mapstructure:"cache"`
	Redis      sharedConfig.RedisConfig      `mapstructure:"redis"`
	Supervisor sharedConfig.SupervisorConfig `mapstructure:"supervisor"`
	Quota      sharedConfig.QuotaConfig      `mapstructure:"quota"`
	Vouch      sharedConfig.VouchConfig      `mapstructure:"vouch"`
}

// Load loads configuration from file and environment variables.
// configPath overrides the default search locations when non-empty.
// A missing config file is not an error; defaults and env still apply.
func Load(env, configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("CARRYDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case sharedConfig.DriverSQLite:
		if cfg.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case sharedConfig.DriverMySQL:
		if cfg.Database.Host == "" || cfg.Database.Database == "" {
			return fmt.Errorf("database.host and database.database are required for mysql")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	switch cfg.Cache.Backend {
	case sharedConfig.CacheBackendMemory, sharedConfig.CacheBackendRedis:
	default:
		return fmt.Errorf("unsupported cache backend %q", cfg.Cache.Backend)
	}

	if cfg.Quota.DefaultLimit < 0 {
		return fmt.Errorf("quota.default_limit must not be negative")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.ops_addr", "")
	v.SetDefault("server.timezone", "UTC")

	// Database defaults
	v.SetDefault("database.driver", sharedConfig.DriverSQLite)
	v.SetDefault("database.path", "./data/carrydesk.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "carrydesk")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.busy_timeout_ms", 5000)
	v.SetDefault("database.log_queries", false)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Cache defaults
	v.SetDefault("cache.backend", sharedConfig.CacheBackendMemory)
	v.SetDefault("cache.default_ttl_seconds", 60)
	v.SetDefault("cache.max_entries", 4096)
	v.SetDefault("cache.key_prefix", "carrydesk:")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Supervisor defaults
	v.SetDefault("supervisor.health_check_interval_seconds", 30)
	v.SetDefault("supervisor.ping_timeout_seconds", 5)

	// Quota defaults
	v.SetDefault("quota.default_limit", 1)

	// Vouch reset defaults (business timezone)
	v.SetDefault("vouch.reset_enabled", false)
	v.SetDefault("vouch.weekly_reset_cron", "0 0 * * 1")
	v.SetDefault("vouch.monthly_reset_cron", "0 0 1 * *")
}
