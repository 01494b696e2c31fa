// Package testdb opens migrated throwaway sqlite stores for tests.
package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carrydesk/carrydesk/internal/infrastructure/database"
	"github.com/carrydesk/carrydesk/internal/infrastructure/migration"
	"github.com/carrydesk/carrydesk/internal/shared/config"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

// Config returns a sqlite configuration rooted in a fresh temp directory.
func Config(t testing.TB) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		Driver:        config.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "carrydesk.db"),
		MaxOpenConns:  4,
		MaxIdleConns:  4,
		BusyTimeoutMS: 10000,
	}
}

// Open returns an open connection to a fully migrated store. It is closed
// when the test ends.
func Open(t testing.TB) *database.Connection {
	t.Helper()
	ctx := context.Background()

	conn := database.NewConnection(Config(t), logger.NewNop())
	require.NoError(t, conn.Open(ctx))
	t.Cleanup(func() { _ = conn.Close() })

	db, err := conn.Get()
	require.NoError(t, err)

	m, err := migration.NewManager(db, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up(ctx))

	return conn
}
