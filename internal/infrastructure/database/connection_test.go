package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrydesk/carrydesk/internal/shared/config"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

func sqliteConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		Driver:        config.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "nested", "store.db"),
		MaxOpenConns:  4,
		MaxIdleConns:  2,
		BusyTimeoutMS: 2000,
	}
}

func TestConnection_OpenGetClose(t *testing.T) {
	ctx := context.Background()
	conn := NewConnection(sqliteConfig(t), logger.NewNop())

	_, err := conn.Get()
	assert.True(t, errors.IsConnectionError(err), "no handle before Open")

	require.NoError(t, conn.Open(ctx))
	require.NoError(t, conn.Open(ctx), "Open is idempotent")

	db, err := conn.Get()
	require.NoError(t, err)
	require.NotNil(t, db)
	require.NoError(t, conn.Ping(ctx))

	require.NoError(t, conn.Close())
	_, err = conn.Get()
	assert.True(t, errors.IsConnectionError(err))
	assert.True(t, errors.IsConnectionError(conn.Ping(ctx)))
	require.NoError(t, conn.Close(), "closing twice is a no-op")
}

func TestConnection_ReconnectSwapsHandle(t *testing.T) {
	ctx := context.Background()
	conn := NewConnection(sqliteConfig(t), logger.NewNop())
	require.NoError(t, conn.Open(ctx))

	before, err := conn.Get()
	require.NoError(t, err)
	require.NoError(t, before.Exec("CREATE TABLE marker (id INTEGER PRIMARY KEY)").Error)

	require.NoError(t, conn.Reconnect(ctx))
	after, err := conn.Get()
	require.NoError(t, err)
	assert.NotSame(t, before, after)

	// The file survives the swap.
	assert.True(t, after.Migrator().HasTable("marker"))

	oldSQL, err := before.DB()
	require.NoError(t, err)
	assert.Error(t, oldSQL.Ping(), "old pool is closed")

	t.Cleanup(func() { _ = conn.Close() })
}

func TestConnection_UnsupportedDriver(t *testing.T) {
	conn := NewConnection(config.DatabaseConfig{Driver: "postgres"}, logger.NewNop())
	assert.Error(t, conn.Open(context.Background()))
}
