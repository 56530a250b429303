package infrastructure

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"users-api/internal/config"
)

func sqliteConfig(t *testing.T) *config.Config {
	return &config.Config{
		DB: config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			Name:         filepath.Join(t.TempDir(), "users.db"),
			MaxOpenConns: 10,
			MaxIdleConns: 10,
		},
		Logger: config.LoggerConfig{Level: "info"},
	}
}

func TestNewDatabase_SQLiteBootstrapsSchema(t *testing.T) {
	cfg := sqliteConfig(t)

	db, err := NewDatabase(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = CloseDatabase(db) }()

	assert.True(t, db.Migrator().HasTable("users"))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestNewDatabase_ReopenIsIdempotent(t *testing.T) {
	cfg := sqliteConfig(t)

	first, err := NewDatabase(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, first.Exec("INSERT INTO users (name, email) VALUES (?, ?)", "Ann", "ann@x.com").Error)
	require.NoError(t, CloseDatabase(first))

	second, err := NewDatabase(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = CloseDatabase(second) }()

	var count int64
	require.NoError(t, second.Table("users").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.DB.Driver = "oracle"

	db, err := NewDatabase(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestCloseDatabase_Nil(t *testing.T) {
	assert.NoError(t, CloseDatabase(nil))
}
