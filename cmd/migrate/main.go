// Command migrate applies the schema migrations for the lending database.
//
// Usage:
//
//	migrate up            apply all pending migrations
//	migrate down          roll back one migration
//	migrate -path DIR up  use a different migrations directory
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/biblioline/lending-ledger-go/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	path := flag.String("path", "migrations", "directory holding the migration files")
	flag.Parse()

	direction := flag.Arg(0)
	if direction != "up" && direction != "down" {
		logger.Error("usage: migrate [-path DIR] up|down")
		os.Exit(2)
	}

	if err := run(*path, direction); err != nil {
		logger.Error("migration failed", "direction", direction, "error", err)
		os.Exit(1)
	}

	logger.Info("migration complete", "direction", direction)
}

func run(path string, direction string) error {
	cfg, err := config.LoadPostgres()
	if err != nil {
		return err
	}

	migrator, err := migrate.New(fmt.Sprintf("file://%s", path), cfg.DSN)
	if err != nil {
		return fmt.Errorf("initializing migrator: %w", err)
	}
	defer migrator.Close()

	switch direction {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Steps(-1)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}

	return err
}
