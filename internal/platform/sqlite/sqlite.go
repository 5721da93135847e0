package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/sqlstore"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

// Dialect configures sqlstore for SQLite. Positional $n placeholders become
// ?n, which SQLite binds by number.
var Dialect = sqlstore.Dialect{
	Name:     "sqlite",
	Rebind:   rebind,
	MapError: MapError,
}

func rebind(query string) string {
	return strings.ReplaceAll(query, "$", "?")
}

// Open opens a SQLite database at dsn. In-memory databases are limited to
// one connection so that every query sees the same data.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", MapError(err))
	}
	return db, nil
}

// NewSQLiteTaskStore creates the SQLite implementation of store.TaskStore.
// If logger is nil, a default logger will be used.
func NewSQLiteTaskStore(db store.DBTX, logger *slog.Logger) *sqlstore.TaskStore {
	return sqlstore.New(db, Dialect, logger)
}

// MapError maps a go-sqlite3 error to an appropriate store error.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			switch sqliteErr.ExtendedCode {
			case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
				return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
			default:
				return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
			}
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
			return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
	}

	if err.Error() == "sql: database is closed" {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return err
}
