package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"homebudget/internal/config"
	"homebudget/internal/models"
)

func TestInitAppliesConfigAndPragmas(t *testing.T) {
	cfg := config.DatabaseConfig{
		Path:             filepath.Join(t.TempDir(), "nested", "budget.db"),
		MaxOpenConns:     3,
		MaxIdleConns:     2,
		BusyTimeoutMilli: 1234,
	}

	db, err := Init(cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.Equal(t, 3, sqlDB.Stats().MaxOpenConnections)

	// WAL mode is persisted in the database file, so any connection sees it
	var journalMode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&journalMode).Error)
	require.Equal(t, "wal", journalMode)
}

func TestInitMigratesAndStores(t *testing.T) {
	db, err := Init(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "budget.db")})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	user := models.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	var got models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&got).Error)
	require.Equal(t, user.ID, got.ID)
}
