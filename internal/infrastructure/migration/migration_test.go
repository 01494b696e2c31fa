package migration

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/models"
	"github.com/carrydesk/carrydesk/internal/shared/config"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "migrate.db"),
	}
	db, err := gorm.Open(sqlite.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(4)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestManager_UpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	m, err := NewManager(db, logger.NewNop())
	require.NoError(t, err)

	v, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Up(ctx))

	v, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(steps())), v)

	for _, model := range CurrentModels() {
		assert.True(t, db.Migrator().HasTable(model), "%T table exists", model)
	}
}

func TestManager_Status(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	m, err := NewManager(db, logger.NewNop())
	require.NoError(t, err)

	before, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, before, len(steps()))
	for _, s := range before {
		assert.False(t, s.Applied)
	}

	require.NoError(t, m.Up(ctx))

	after, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(steps()))
	for i, s := range after {
		assert.Equal(t, int64(i+1), s.Version)
		assert.True(t, s.Applied)
		assert.NotEmpty(t, s.Name)
		assert.False(t, s.AppliedAt.IsZero())
	}
	assert.Equal(t, "create_core_tables", after[0].Name)
}

func TestManager_UpgradesFirstReleaseSchema(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	// A store created by the first release: core tables only, no goose
	// bookkeeping.
	require.NoError(t, createCoreTables(db))
	require.NoError(t, db.Exec(
		"INSERT INTO helpers (user_id, total_vouches, weekly_vouches, monthly_vouches, average_rating, helper_since, updated_at) VALUES (?, 3, 1, 2, 4.5, 1, 1)",
		"u1",
	).Error)

	mig := db.Migrator()
	assert.False(t, mig.HasColumn(&models.TicketModel{}, "Metadata"))
	assert.False(t, mig.HasColumn(&models.HelperModel{}, "IsPaidHelper"))
	assert.False(t, mig.HasTable(&models.PaidHelperProfileModel{}))

	m, err := NewManager(db, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up(ctx))

	assert.True(t, mig.HasColumn(&models.TicketModel{}, "ContactInfo"))
	assert.True(t, mig.HasColumn(&models.TicketModel{}, "Metadata"))
	assert.True(t, mig.HasColumn(&models.HelperModel{}, "IsPaidHelper"))
	assert.True(t, mig.HasColumn(&models.HelperModel{}, "VouchesForPaidAccess"))
	assert.True(t, mig.HasColumn(&models.DailyUserActivityModel{}, "FreeRequestCount"))
	assert.True(t, mig.HasTable(&models.PaidHelperProfileModel{}))
	assert.True(t, mig.HasIndex(&models.VouchModel{}, "idx_vouches_ticket_rater"))

	var helper models.HelperModel
	require.NoError(t, db.Where("user_id = ?", "u1").First(&helper).Error)
	assert.Equal(t, 3, helper.TotalVouches)
	assert.False(t, helper.IsPaidHelper)
	assert.Equal(t, 0, helper.VouchesForPaidAccess)
}

func TestDialectFor(t *testing.T) {
	_, err := dialectFor("sqlite")
	assert.NoError(t, err)
	_, err = dialectFor("mysql")
	assert.NoError(t, err)
	_, err = dialectFor("postgres")
	assert.Error(t, err)
}

func TestUserIDColumns_MatchInputWidth(t *testing.T) {
	cache := &sync.Map{}
	for _, ref := range userIDColumns() {
		s, err := schema.Parse(ref.model, cache, schema.NamingStrategy{})
		require.NoError(t, err)
		f := s.LookUpField(ref.column)
		require.NotNil(t, f, "%T.%s", ref.model, ref.column)
		assert.Equal(t, userIDWidth, f.Size, "%T.%s", ref.model, ref.column)
	}
}

func TestWidenUserIDColumns_NoopOnSQLite(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, createCoreTables(db))
	require.NoError(t, widenUserIDColumns(db))
}
