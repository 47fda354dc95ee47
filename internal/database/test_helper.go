package database

import (
	"testing"
	"time"

	"expense-ledger/internal/config"
	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), gormConfig)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	testDB := &DB{
		DB: db,
		config: &config.DatabaseConfig{
			Driver:         config.DriverSQLite,
			MaxConnections: 1,
			MaxIdleConns:   1,
		},
	}

	if err := testDB.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = testDB.Close()
	})

	return testDB
}

// CreateTestExpense inserts an expense with the given amount, category and date
func CreateTestExpense(t *testing.T, db *DB, amount string, category models.Category, date models.Date) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Description: "Test expense",
		Date:        date,
	}

	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}

	return expense
}

func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	if err := db.Exec("DELETE FROM expenses").Error; err != nil {
		t.Logf("failed to cleanup table expenses: %v", err)
	}
}
