package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"expense-ledger/internal/config"
	"expense-ledger/internal/database"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

const usage = `Usage: migrate <command> [args]

Commands:
  up        apply all pending migrations
  down N    roll back the last N migrations
  status    print the current migration version
  seed      load the sample expenses from db/seeds`

func main() {
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if err := run(flag.Args()); err != nil {
		slog.Error("Migration command failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}

	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("SQL migrations target postgres, configured driver is %q", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.MigrationURL())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	runner := database.NewMigrationRunner(db, true)
	if err := runner.WaitForDatabase(); err != nil {
		return err
	}

	switch args[0] {
	case "up":
		return runner.RunMigrations()
	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid step count %q: %w", args[1], err)
			}
		}
		return runner.RollbackMigrations(steps)
	case "status":
		version, dirty, err := runner.GetMigrationStatus()
		if err != nil {
			return err
		}
		fmt.Printf("version: %d, dirty: %t\n", version, dirty)
		return nil
	case "seed":
		return runner.LoadSeeds()
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}
