package database

import (
	"context"
	"testing"
	"time"

	"expense-ledger/internal/config"
	"expense-ledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SQLiteInMemory(t *testing.T) {
	db, err := New(&config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"}, false)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.AutoMigrate())
	require.NoError(t, db.CreateIndexes())
	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.True(t, db.Migrator().HasTable(&models.Expense{}))
	assert.True(t, db.Migrator().HasIndex(&models.Expense{}, "idx_expenses_idempotency_key"))
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(&config.DatabaseConfig{Driver: "oracle"}, false)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestInitialize_SQLite(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "testing"},
		Database: config.DatabaseConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: ":memory:",
		},
	}

	db, err := Initialize(cfg)
	require.NoError(t, err)
	defer db.Close()

	var count int64
	require.NoError(t, db.Model(&models.Expense{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHealthCheck_ClosedConnection(t *testing.T) {
	db := SetupTestDB(t)
	require.NoError(t, db.Close())

	assert.Error(t, db.HealthCheck(context.Background()))
}

func TestExpenseRoundTrip(t *testing.T) {
	db := SetupTestDB(t)
	date := models.NewDate(2024, time.March, 15)

	created := CreateTestExpense(t, db, "150.50", models.CategoryFood, date)

	var loaded models.Expense
	require.NoError(t, db.First(&loaded, created.ID).Error)
	assert.Equal(t, "150.50", loaded.FormattedAmount())
	assert.Equal(t, models.CategoryFood, loaded.Category)
	assert.Equal(t, date, loaded.Date)
	assert.False(t, loaded.CreatedAt.IsZero())

	CleanupTestDB(t, db)
	require.NoError(t, db.Model(&models.Expense{}).Count(new(int64)).Error)
}
