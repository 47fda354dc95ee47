package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expense-ledger/internal/config"
	"expense-ledger/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
	config *config.DatabaseConfig
}

// New opens the configured store. SQL statements are only logged when verbose is set.
func New(cfg *config.DatabaseConfig, verbose bool) (*DB, error) {
	logLevel := logger.Silent
	if verbose {
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite serializes writers; one connection also keeps :memory: databases shared
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     db,
		config: cfg,
	}, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(&models.Expense{})
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) CreateIndexes() error {
	queries := []string{
		"CREATE INDEX IF NOT EXISTS idx_expenses_category ON expenses(category)",
		"CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date)",
		"CREATE INDEX IF NOT EXISTS idx_expenses_date_created_at ON expenses(date DESC, created_at DESC)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_expenses_idempotency_key ON expenses(idempotency_key)",
	}

	for _, query := range queries {
		if err := db.DB.Exec(query).Error; err != nil {
			slog.Warn("Failed to create index", "query", query, "error", err)
		}
	}

	return nil
}

// Initialize creates and configures the database connection
func Initialize(cfg *config.Config) (*DB, error) {
	db, err := New(&cfg.Database, cfg.IsDevelopment() && cfg.Server.Debug)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.Database.Driver == config.DriverSQLite {
		// golang-migrate is wired for postgres only
		if err := db.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		if err := NewMigrationRunner(sqlDB, cfg.Database.SeedDatabase).LoadSeeds(); err != nil {
			slog.Warn("Seed data loading failed", "error", err)
		}
	} else if err := RunMigrationsIfEnabled(sqlDB, cfg.Database.AutoMigrate, cfg.Database.SeedDatabase); err != nil {
		slog.Warn("Migration runner failed, falling back to GORM AutoMigrate", "error", err)

		if err := db.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	} else if !cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if err := db.CreateIndexes(); err != nil {
		slog.Warn("Failed to create some indexes", "error", err)
	}

	slog.Info("Database initialized", "driver", cfg.Database.Driver)

	return db, nil
}
