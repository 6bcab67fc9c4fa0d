package repository

import (
	"testing"

	"hearth/internal/database"
	"hearth/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func assertKey(t *testing.T, err error, key models.ErrorKey) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, key, models.KeyOf(err), "got %v", err)
}

func mustCreateUser(t *testing.T, db *gorm.DB, name string, local bool) *models.User {
	t.Helper()
	host := "local.test"
	if !local {
		host = "remote.test"
	}
	u := &models.User{Username: name, Host: host, Local: local}
	require.NoError(t, db.Create(u).Error)
	return u
}

func mustCreateCommunity(t *testing.T, db *gorm.DB, name string, local bool) *models.Community {
	t.Helper()
	host := "local.test"
	if !local {
		host = "remote.test"
	}
	c := &models.Community{Name: name, Host: host, Local: local}
	require.NoError(t, db.Create(c).Error)
	return c
}
