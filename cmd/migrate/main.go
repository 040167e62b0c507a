// Command migrate applies the parity schema migrations embedded in the binary.
//
// The connection string comes from -dsn, then PARITY_DB_DSN, then the
// [database] section of config.toml with PARITY_DB_* overrides.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/parity/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "PARITY_DB_DSN"

type options struct {
	dsn     string
	up      bool
	down    bool
	steps   int
	version bool
	force   int
	forced  bool
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	opts := parseFlags()
	if err := run(opts, logger); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.dsn, "dsn", "", "database connection string")
	flag.BoolVar(&o.up, "up", false, "apply all pending migrations")
	flag.BoolVar(&o.down, "down", false, "revert all migrations")
	flag.IntVar(&o.steps, "steps", 0, "apply N migrations (negative reverts)")
	flag.BoolVar(&o.version, "version", false, "print the current schema version")
	flag.IntVar(&o.force, "force", -1, "force the schema version without running migrations")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			o.forced = true
		}
	})
	return o
}

func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	db, err := config.LoadDatabase()
	if err != nil {
		return "", fmt.Errorf("no -dsn or %s and config unusable: %w", envDSN, err)
	}
	return db.Dsn(), nil
}

func run(o options, logger *slog.Logger) error {
	if !o.up && !o.down && !o.version && !o.forced && o.steps == 0 {
		fmt.Fprintln(os.Stderr, "usage: migrate [-dsn <url>] -up | -down | -steps N | -version | -force N")
		flag.PrintDefaults()
		return nil
	}

	dsn, err := resolveDSN(o.dsn)
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	switch {
	case o.version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		logger.Info("schema version", "version", v, "dirty", dirty)
		return nil
	case o.forced:
		if err := m.Force(o.force); err != nil {
			return fmt.Errorf("force version %d: %w", o.force, err)
		}
		logger.Warn("schema version forced", "version", o.force)
		return nil
	case o.up:
		err = m.Up()
	case o.down:
		err = m.Down()
	default:
		err = m.Steps(o.steps)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("schema already current")
		return nil
	}
	if err != nil {
		return err
	}

	v, _, _ := m.Version()
	logger.Info("migrations applied", "version", v)
	return nil
}
