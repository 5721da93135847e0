package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/config"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/postgres"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/sqlite"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

// openDatabase connects to the configured database.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case "postgres":
		db, err = postgres.Open(ctx, cfg.URL)
	case "sqlite":
		db, err = sqlite.Open(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("database connection established", slog.String("driver", cfg.Driver))
	return db, nil
}

// newTaskStore returns the store implementation for driver.
func newTaskStore(driver string, db *sql.DB, logger *slog.Logger) (store.TaskStore, error) {
	switch driver {
	case "postgres":
		return postgres.NewPostgresTaskStore(db, logger), nil
	case "sqlite":
		return sqlite.NewSQLiteTaskStore(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
