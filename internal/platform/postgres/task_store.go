package postgres

import (
	"log/slog"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/sqlstore"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

// Dialect configures sqlstore for PostgreSQL via the pgx stdlib driver.
var Dialect = sqlstore.Dialect{
	Name:      "postgres",
	MapError:  MapError,
	ShareLock: " FOR SHARE",
}

// NewPostgresTaskStore creates the PostgreSQL implementation of store.TaskStore.
// It accepts a database connection or transaction that should be initialized
// and managed by the caller. If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *sqlstore.TaskStore {
	return sqlstore.New(db, Dialect, logger)
}
