package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	migrationsPath = "db/migrations"
	seedsPath      = "db/seeds"
)

var (
	maxRetries    = 30
	retryInterval = 2 * time.Second
)

// ErrMigrationsNotFound is returned when the migrations directory is missing
var ErrMigrationsNotFound = errors.New("migrations directory not found")

// MigrationRunner handles database migrations and seeding
type MigrationRunner struct {
	db             *sql.DB
	migrationsPath string
	seedsPath      string
	seedEnabled    bool
}

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner(db *sql.DB, seedEnabled bool) *MigrationRunner {
	return &MigrationRunner{
		db:             db,
		migrationsPath: migrationsPath,
		seedsPath:      seedsPath,
		seedEnabled:    seedEnabled,
	}
}

// WaitForDatabase waits for the database to be ready
func (mr *MigrationRunner) WaitForDatabase() error {
	slog.Info("Waiting for database to be ready")

	for i := 0; i < maxRetries; i++ {
		err := mr.db.Ping()
		if err == nil {
			slog.Info("Database is ready")
			return nil
		}

		slog.Warn("Database not ready", "attempt", i+1, "max_attempts", maxRetries, "error", err)
		time.Sleep(retryInterval)
	}

	return fmt.Errorf("database not ready after %d attempts", maxRetries)
}

func (mr *MigrationRunner) newMigrate() (*migrate.Migrate, error) {
	if _, err := os.Stat(mr.migrationsPath); os.IsNotExist(err) {
		return nil, ErrMigrationsNotFound
	}

	absPath, err := filepath.Abs(mr.migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(mr.db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", absPath),
		"postgres",
		driver,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// RunMigrations executes all pending migrations
func (mr *MigrationRunner) RunMigrations() error {
	m, err := mr.newMigrate()
	if errors.Is(err, ErrMigrationsNotFound) {
		slog.Warn("Migrations directory not found, skipping migrations", "path", mr.migrationsPath)
		return nil
	}
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		slog.Warn("Database is in dirty state, forcing version", "version", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	slog.Info("Running migrations", "path", mr.migrationsPath, "current_version", version)

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("No new migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get new migration version: %w", err)
	}
	slog.Info("Successfully applied migrations", "version", newVersion)
	return nil
}

// RollbackMigrations reverts the given number of applied migrations
func (mr *MigrationRunner) RollbackMigrations(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}

	m, err := mr.newMigrate()
	if err != nil {
		return err
	}

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback failed: %w", err)
	}
	slog.Info("Rolled back migrations", "steps", steps)
	return nil
}

// LoadSeeds loads seed data into the database
func (mr *MigrationRunner) LoadSeeds() error {
	if !mr.seedEnabled {
		slog.Info("Seed data loading disabled (SEED_DATABASE != true)")
		return nil
	}

	if _, err := os.Stat(mr.seedsPath); os.IsNotExist(err) {
		slog.Warn("Seeds directory not found, skipping seed data", "path", mr.seedsPath)
		return nil
	}

	files, err := filepath.Glob(filepath.Join(mr.seedsPath, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to find seed files: %w", err)
	}

	if len(files) == 0 {
		slog.Info("No seed files found", "path", mr.seedsPath)
		return nil
	}

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read seed file %s: %w", file, err)
		}

		if _, err := mr.db.Exec(string(content)); err != nil {
			slog.Warn("Failed to execute seed file", "file", filepath.Base(file), "error", err)
			continue
		}

		slog.Info("Executed seed file", "file", filepath.Base(file))
	}

	return nil
}

// GetMigrationStatus returns the current migration status
func (mr *MigrationRunner) GetMigrationStatus() (version uint, dirty bool, err error) {
	m, err := mr.newMigrate()
	if err != nil {
		return 0, false, err
	}
	return m.Version()
}

// RunMigrationsIfEnabled runs SQL migrations and seeds when autoMigrate is set
func RunMigrationsIfEnabled(db *sql.DB, autoMigrate, seedEnabled bool) error {
	if !autoMigrate {
		slog.Info("Auto-migration disabled (AUTO_MIGRATE != true)")
		return nil
	}

	runner := NewMigrationRunner(db, seedEnabled)

	if err := runner.WaitForDatabase(); err != nil {
		return fmt.Errorf("database readiness check failed: %w", err)
	}

	if err := runner.RunMigrations(); err != nil {
		return fmt.Errorf("migration execution failed: %w", err)
	}

	if err := runner.LoadSeeds(); err != nil {
		slog.Warn("Seed data loading failed", "error", err)
	}

	version, dirty, err := runner.GetMigrationStatus()
	if err != nil {
		slog.Warn("Failed to get migration status", "error", err)
	} else {
		slog.Info("Migration status", "version", version, "dirty", dirty)
	}

	return nil
}
