package database

import (
	"testing"

	"hearth/internal/config"
	"hearth/internal/middleware"
	"hearth/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: NewGormLogger(middleware.Logger).LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every new connection to :memory: is a fresh database.
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openSQLite(t)

	err := configurePool(db, &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestMigrate_CreatesTablesAndIndexes(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db))

	for _, m := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}

	require.NoError(t, db.Create(&models.User{Username: "Alice", Host: "local.test", Local: true}).Error)
	err := db.Create(&models.User{Username: "alice", Host: "local.test", Local: true}).Error
	assert.Error(t, err, "local usernames are unique regardless of case")

	require.NoError(t, db.Create(&models.Community{Name: "News", Host: "local.test", Local: true}).Error)
	assert.Error(t, db.Create(&models.Community{Name: "news", Host: "local.test", Local: true}).Error)
	assert.NoError(t, db.Create(&models.Community{Name: "news", Host: "remote.test"}).Error)

	// Re-running is harmless.
	assert.NoError(t, Migrate(db))
}

func TestGormLogger_LogMode(t *testing.T) {
	l := NewGormLogger(middleware.Logger)
	quiet := l.LogMode(logger.Silent).(*CustomGormLogger)
	assert.Equal(t, logger.Silent, quiet.Config.LogLevel)
	assert.Equal(t, logger.Warn, l.Config.LogLevel)
}
