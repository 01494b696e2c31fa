// Package database owns the store connection and its supervision.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/carrydesk/carrydesk/internal/shared/config"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

// Connection owns the gorm handle. Get never hands out a closed handle; it
// reports a connection error instead so callers fail fast while the
// supervisor reconnects.
type Connection struct {
	cfg    config.DatabaseConfig
	logger logger.Interface

	mu sync.RWMutex
	db *gorm.DB
}

func NewConnection(cfg config.DatabaseConfig, log logger.Interface) *Connection {
	return &Connection{
		cfg:    cfg,
		logger: log.With("component", "database"),
	}
}

// Open establishes the connection if it is not already open.
func (c *Connection) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}

	db, err := c.dial(ctx)
	if err != nil {
		return err
	}
	c.db = db

	c.logger.Infow("database connection established", "driver", c.cfg.Driver, "target", c.target())
	return nil
}

func (c *Connection) dial(ctx context.Context) (*gorm.DB, error) {
	dialector, err := c.dialector()
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if c.cfg.LogQueries {
		level = gormlogger.Info
	}
	gormLogger := gormlogger.New(
		&filteredLogger{logger: c.logger},
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		PrepareStmt:    c.cfg.Driver == config.DriverMySQL,
	})
	if err != nil {
		return nil, errors.NewConnectionError("failed to connect to database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if c.cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.cfg.MaxIdleConns)
	}
	if c.cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.cfg.MaxOpenConns)
	}
	if c.cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(c.cfg.ConnMaxLifetime) * time.Minute)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.NewConnectionError("failed to ping database", err)
	}

	return db, nil
}

func (c *Connection) dialector() (gorm.Dialector, error) {
	switch c.cfg.Driver {
	case config.DriverSQLite, "":
		if dir := filepath.Dir(c.cfg.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.NewConnectionError("failed to create database directory", err)
			}
		}
		return sqlite.Open(c.cfg.GetDSN()), nil
	case config.DriverMySQL:
		return mysql.New(mysql.Config{
			DSN:                       c.cfg.GetDSN(),
			SkipInitializeWithVersion: true,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.cfg.Driver)
	}
}

func (c *Connection) target() string {
	if c.cfg.Driver == config.DriverMySQL {
		return c.cfg.Database
	}
	return c.cfg.Path
}

// Get returns the live handle or a connection error when none is open.
func (c *Connection) Get() (*gorm.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		return nil, errors.NewConnectionError("database is not connected", nil)
	}
	return c.db, nil
}

// Ping round-trips a trivial query through the pool.
func (c *Connection) Ping(ctx context.Context) error {
	db, err := c.Get()
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return errors.NewConnectionError("failed to get underlying sql.DB", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.NewConnectionError("database ping failed", err)
	}

	var one int
	if err := db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return errors.NewConnectionError("database probe query failed", err)
	}
	return nil
}

// Reconnect replaces the handle with a freshly dialled one. The old handle
// is closed only after the new one is ready.
func (c *Connection) Reconnect(ctx context.Context) error {
	db, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	old := c.db
	c.db = db
	c.mu.Unlock()

	if old != nil {
		if sqlDB, err := old.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	c.logger.Infow("database reconnected", "driver", c.cfg.Driver, "target", c.target())
	return nil
}

// Close closes the handle. Later Get calls report a connection error until
// Open or Reconnect succeeds.
func (c *Connection) Close() error {
	c.mu.Lock()
	current := c.db
	c.db = nil
	c.mu.Unlock()

	if current == nil {
		return nil
	}

	sqlDB, err := current.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	c.logger.Infow("database connection closed")
	return nil
}

// filteredLogger routes gorm's log lines into the structured logger and
// drops driver bootstrap noise.
type filteredLogger struct {
	logger logger.Interface
}

func (l *filteredLogger) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	lower := strings.ToLower(msg)

	if strings.Contains(lower, "information_schema.schemata") ||
		strings.Contains(lower, "select version()") ||
		strings.Contains(lower, "sqlite_master") {
		return
	}

	switch {
	case strings.Contains(msg, "[error]") || strings.Contains(msg, "ERROR"):
		l.logger.Errorw("database error", "details", msg)
	case strings.Contains(lower, "slow sql"):
		l.logger.Warnw("slow query", "details", msg)
	default:
		l.logger.Debugw("database query", "details", msg)
	}
}
