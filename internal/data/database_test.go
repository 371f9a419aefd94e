package data

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ceidigital/cei_console_go/internal/core"
	"github.com/ceidigital/cei_console_go/internal/data/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &core.Config{DBEngine: "sqlite", DBName: filepath.Join(t.TempDir(), "test.db")}
	db, err := InitializeDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}

func TestInitializeDBMigratesTables(t *testing.T) {
	db := openTestDB(t)
	assert.True(t, db.Migrator().HasTable(&models.DBStateEntry{}))
	assert.True(t, db.Migrator().HasTable(&models.AuditLogEntry{}))
}

func TestInitializeDBRejectsUnknownEngine(t *testing.T) {
	_, err := InitializeDB(&core.Config{DBEngine: "oracle"})
	assert.Error(t, err)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	boom := errors.New("boom")

	err := WithTransaction(db, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&models.DBStateEntry{Key: "a", Value: "1"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	db.Model(&models.DBStateEntry{}).Count(&count)
	assert.Zero(t, count)

	require.NoError(t, WithTransaction(db, func(tx *gorm.DB) error {
		return tx.Create(&models.DBStateEntry{Key: "b", Value: "2"}).Error
	}))
	db.Model(&models.DBStateEntry{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
