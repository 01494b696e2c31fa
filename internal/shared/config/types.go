package config

import (
	"fmt"
	"strings"
	"time"
)

type ServerConfig struct {
	Mode     string `mapstructure:"mode"`
	OpsAddr  string `mapstructure:"ops_addr"`
	Timezone string `mapstructure:"timezone"`
}

// IsDebug reports whether the process runs in a development-like mode.
func (s *ServerConfig) IsDebug() bool {
	switch strings.ToLower(s.Mode) {
	case "debug", "development", "dev":
		return true
	}
	return false
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	BusyTimeoutMS   int    `mapstructure:"busy_timeout_ms"`
	LogQueries      bool   `mapstructure:"log_queries"`
}

// GetDSN builds the driver specific data source name.
func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == DriverMySQL {
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
			d.Username, d.Password, d.Host, d.Port, d.Database)
	}

	busy := d.BusyTimeoutMS
	if busy <= 0 {
		busy = 5000
	}
	// _txlock=immediate makes BEGIN take the write lock so concurrent
	// writers wait on busy_timeout instead of failing on lock upgrade.
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_txlock=immediate&_foreign_keys=off",
		d.Path, busy)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type CacheConfig struct {
	Backend           string `mapstructure:"backend"`
	DefaultTTLSeconds int    `mapstructure:"default_ttl_seconds"`
	MaxEntries        int    `mapstructure:"max_entries"`
	KeyPrefix         string `mapstructure:"key_prefix"`
}

func (c *CacheConfig) DefaultTTL() time.Duration {
	if c.DefaultTTLSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.DefaultTTLSeconds) * time.Second
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type SupervisorConfig struct {
	HealthCheckIntervalSeconds int `mapstructure:"health_check_interval_seconds"`
	PingTimeoutSeconds         int `mapstructure:"ping_timeout_seconds"`
}

func (s *SupervisorConfig) HealthCheckInterval() time.Duration {
	if s.HealthCheckIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.HealthCheckIntervalSeconds) * time.Second
}

func (s *SupervisorConfig) PingTimeout() time.Duration {
	if s.PingTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.PingTimeoutSeconds) * time.Second
}

// QuotaConfig holds the daily free request limits per category and
// subcategory. Keys are matched case-insensitively.
type QuotaConfig struct {
	DefaultLimit int                       `mapstructure:"default_limit"`
	Limits       map[string]map[string]int `mapstructure:"limits"`
}

// LimitFor resolves the limit for a category/subcategory pair. A "*"
// subcategory entry applies to every subcategory of the category.
func (q *QuotaConfig) LimitFor(category, subcategory string) int {
	subs, ok := q.Limits[strings.ToLower(category)]
	if !ok {
		return q.DefaultLimit
	}
	if limit, ok := subs[strings.ToLower(subcategory)]; ok {
		return limit
	}
	if limit, ok := subs["*"]; ok {
		return limit
	}
	return q.DefaultLimit
}

type VouchConfig struct {
	ResetEnabled     bool   `mapstructure:"reset_enabled"`
	WeeklyResetCron  string `mapstructure:"weekly_reset_cron"`
	MonthlyResetCron string `mapstructure:"monthly_reset_cron"`
}
