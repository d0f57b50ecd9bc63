package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/m3rciful/dopiumbot/core/logger"
)

// readyTimeout bounds how long Connect waits for a postgres server to accept pings.
const readyTimeout = 30 * time.Second

// Connect opens the configured database, waits until it answers pings, and
// sizes the pool.
func Connect(cfg Config) (*sqlx.DB, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	start := time.Now()
	db, err := sqlx.Open(cfg.Driver, cfg.DSN())
	if err == nil {
		err = waitReady(db, cfg.Driver, readyTimeout)
	}
	took := time.Since(start)
	if err != nil {
		logger.DB.Error("db connect failed",
			slog.String("event", "db.connect"),
			slog.String("driver", cfg.Driver),
			slog.String("db", cfg.Target()),
			slog.Duration("duration", logger.RoundMS(took)),
			logger.Err(err),
		)
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)

	logger.DB.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("driver", cfg.Driver),
		slog.String("db", cfg.Target()),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return db, nil
}

// waitReady pings db until it answers. Only postgres is retried; a sqlite
// file either opens or it does not.
func waitReady(db *sqlx.DB, driver string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := db.PingContext(ctx)
		cancel()
		if err == nil || driver != DriverPostgres {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout reached waiting for database: %w", err)
		}
		logger.DB.Debug("db not ready",
			slog.String("event", "db.ping"),
			logger.Err(err),
		)
		time.Sleep(2 * time.Second)
	}
}
