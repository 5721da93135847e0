package migrations

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestRun_SQLiteUpAndDown(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	require.NoError(t, Run(ctx, db, "sqlite", CommandUp, nil))
	assert.True(t, tableExists(t, db, "tasks"))
	assert.True(t, tableExists(t, db, tableName))

	// Applying again is a no-op.
	require.NoError(t, Run(ctx, db, "sqlite", CommandUp, nil))
	require.NoError(t, Run(ctx, db, "sqlite", CommandStatus, nil))

	require.NoError(t, Run(ctx, db, "sqlite", CommandDown, nil))
	assert.False(t, tableExists(t, db, "tasks"))
}

func TestRun_SQLiteUniqueOccurrenceKey(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	require.NoError(t, Run(ctx, db, "sqlite", CommandUp, nil))

	_, err := db.Exec(`INSERT INTO tasks (id, user_id, title, is_recurring_template, rrule_string, rrule_start_date)
		VALUES ('t1', 'u1', 'template', 1, 'FREQ=DAILY', '2024-01-01 09:00:00+00:00')`)
	require.NoError(t, err)

	insert := `INSERT INTO tasks (id, user_id, title, parent_template_id, due_date) VALUES (?, 'u1', 'instance', 't1', '2024-01-02 09:00:00+00:00')`
	_, err = db.Exec(insert, "i1")
	require.NoError(t, err)
	_, err = db.Exec(insert, "i2")
	assert.Error(t, err, "second instance for the same occurrence must be rejected")

	_, err = db.Exec(`INSERT INTO tasks (id, user_id, title, is_recurring_template) VALUES ('bad', 'u1', 'no rule', 1)`)
	assert.Error(t, err, "templates require a rule")
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	assert.Error(t, Run(ctx, db, "mysql", CommandUp, nil))
	assert.Error(t, Run(ctx, db, "sqlite", "sideways", nil))
}
