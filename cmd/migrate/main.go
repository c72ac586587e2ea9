package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"toria/internal/config"
	"toria/internal/logging"
)

func main() {
	dir := flag.String("path", "migrations", "directory holding the migration files")
	flag.Parse()

	logger := logging.New(logging.Config{Level: "info", Format: "text"})

	if flag.NArg() != 1 || (flag.Arg(0) != "up" && flag.Arg(0) != "down") {
		logger.Fatal().Msg("usage: migrate [-path dir] up|down")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load configuration")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		logger.Fatal().Err(err).Msg("create postgres driver")
	}

	absPath, err := filepath.Abs(*dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("resolve migrations path")
	}
	if _, err := os.Stat(absPath); err != nil {
		logger.Fatal().Err(err).Str("path", absPath).Msg("migrations directory not found")
	}
	sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(absPath))

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		logger.Fatal().Err(err).Msg("create migrate instance")
	}

	if flag.Arg(0) == "up" {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal().Err(err).Str("direction", flag.Arg(0)).Msg("run migrations")
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		logger.Warn().Err(verr).Msg("read migration version")
	}
	logger.Info().Str("direction", flag.Arg(0)).Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")
}
