package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/dopiumbot/core/logger"
	"github.com/m3rciful/dopiumbot/migrations"
)

// RunMigrations applies all embedded up migrations to db.
func RunMigrations(db *sqlx.DB, cfg Config) error {
	if err := cfg.Normalize(); err != nil {
		return err
	}
	return migrateFS(db, cfg, migrations.FS)
}

func migrateFS(db *sqlx.DB, cfg Config, src fs.FS) error {
	files, _ := fs.Glob(src, "*.up.sql")
	sort.Strings(files)
	preview, truncated := logger.SummarizeStrings(files, 6)
	logger.MIG.Debug("migrations resolved",
		slog.String("event", "db.migrate.resolve"),
		slog.Int("count", len(files)),
		slog.String("files_preview", preview),
		slog.Bool("files_truncated", truncated),
	)

	m, release, err := newMigrator(db, cfg, src)
	if err != nil {
		logger.MIG.Error("init failed",
			slog.String("event", "db.migrate"),
			logger.Err(err),
		)
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	defer release()

	fromVer, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := time.Since(start)

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.MIG.Error("migration failed",
			slog.String("event", "db.migrate.apply"),
			slog.Duration("duration", logger.RoundMS(took)),
			logger.Err(upErr),
		)
		return fmt.Errorf("migration execution failed: %w", upErr)
	}

	toVer, _, _ := m.Version()
	applied := selectApplied(files, uint64(fromVer), uint64(toVer))
	if len(applied) > 0 {
		names, more := logger.SummarizeStrings(applied, 6)
		logger.MIG.Debug("applied files",
			slog.String("event", "db.migrate.apply"),
			slog.Int("count", len(applied)),
			slog.String("files_preview", names),
			slog.Bool("files_truncated", more),
		)
	}
	logger.MIG.Info("migrations summary",
		slog.String("event", "db.migrate.summary"),
		slog.String("driver", cfg.Driver),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return nil
}

// newMigrator reuses the open sqlite pool so an in-memory database sees its
// own schema; migrate would close that pool on Close, so release is a no-op
// there. Postgres gets a dedicated connection that release closes.
func newMigrator(db *sqlx.DB, cfg Config, src fs.FS) (*migrate.Migrate, func(), error) {
	source, err := iofs.New(src, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("open migration source: %w", err)
	}
	switch cfg.Driver {
	case DriverPostgres:
		m, err := migrate.NewWithSourceInstance("iofs", source, cfg.URL())
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _, _ = m.Close() }, nil
	case DriverSQLite:
		target, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
		if err != nil {
			return nil, nil, err
		}
		m, err := migrate.NewWithInstance("iofs", source, DriverSQLite, target)
		if err != nil {
			return nil, nil, err
		}
		return m, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
}

func parseVersion(name string) uint64 {
	head, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(head, 10, 64)
	return v
}

func selectApplied(files []string, from, to uint64) []string {
	if to <= from {
		return nil
	}
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
