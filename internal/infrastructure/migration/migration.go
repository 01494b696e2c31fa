// Package migration applies the ordered, versioned schema migration list
// through goose. Applied versions are recorded in goose's version table so
// each step runs at most once.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

// Status describes one migration step.
type Status struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt time.Time
}

// Manager runs the migration list against one database.
type Manager struct {
	provider *goose.Provider
	names    map[int64]string
	logger   logger.Interface
}

// NewManager builds a goose provider over db's connection pool.
func NewManager(db *gorm.DB, log logger.Interface) (*Manager, error) {
	dialect, err := dialectFor(db.Dialector.Name())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	list := steps()
	names := make(map[int64]string, len(list))
	gooseMigrations := make([]*goose.Migration, 0, len(list))
	for _, s := range list {
		s := s
		names[s.version] = s.name
		gooseMigrations = append(gooseMigrations, goose.NewGoMigration(
			s.version,
			&goose.GoFunc{
				RunDB: func(ctx context.Context, _ *sql.DB) error {
					return s.up(db.WithContext(ctx))
				},
				Mode: goose.TransactionDisabled,
			},
			nil,
		))
	}

	provider, err := goose.NewProvider(dialect, sqlDB, nil,
		goose.WithDisableGlobalRegistry(true),
		goose.WithGoMigrations(gooseMigrations...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return &Manager{
		provider: provider,
		names:    names,
		logger:   log.With("component", "migration"),
	}, nil
}

func dialectFor(name string) (goose.Dialect, error) {
	switch name {
	case "sqlite", "sqlite3":
		return goose.DialectSQLite3, nil
	case "mysql":
		return goose.DialectMySQL, nil
	default:
		return "", fmt.Errorf("unsupported migration dialect %q", name)
	}
}

// Up applies every pending step in version order.
func (m *Manager) Up(ctx context.Context) error {
	from, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	m.logger.Infow("starting migration", "current_version", from)

	results, err := m.provider.Up(ctx)
	for _, r := range results {
		if r.Error != nil {
			continue
		}
		m.logger.Infow("migration applied",
			"version", r.Source.Version,
			"name", m.names[r.Source.Version],
			"duration", r.Duration,
		)
	}
	if err != nil {
		m.logger.Errorw("migration failed", "error", err)
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	to, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get final migration version: %w", err)
	}

	m.logger.Infow("migration completed", "from_version", from, "to_version", to)
	return nil
}

// Version returns the highest applied version, 0 for a fresh database.
func (m *Manager) Version(ctx context.Context) (int64, error) {
	return m.provider.GetDBVersion(ctx)
}

func (m *Manager) Status(ctx context.Context) ([]Status, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get migration status: %w", err)
	}

	out := make([]Status, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Status{
			Version:   s.Source.Version,
			Name:      m.names[s.Source.Version],
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}
