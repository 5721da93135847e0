package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "tasks_template_occurrence_key"}, store.ErrDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: foreignKeyViolationCode}, store.ErrInvalidEntity},
		{"check violation", &pgconn.PgError{Code: checkViolationCode}, store.ErrInvalidEntity},
		{"not null violation", &pgconn.PgError{Code: notNullViolationCode, ColumnName: "title"}, store.ErrInvalidEntity},
		{"connection refused", &pgconn.PgError{Code: "08006"}, store.ErrUnavailable},
		{"too many connections", &pgconn.PgError{Code: tooManyConnectionsCode}, store.ErrUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: adminShutdownCode}, store.ErrUnavailable},
		{"bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), store.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestMapError_PassThrough(t *testing.T) {
	assert.NoError(t, MapError(nil))

	syntax := &pgconn.PgError{Code: "42601"}
	assert.Same(t, syntax, MapError(syntax))

	plain := errors.New("plain")
	assert.Equal(t, plain, MapError(plain))
}

func TestIsConnectionError(t *testing.T) {
	assert.True(t, IsConnectionError(sql.ErrConnDone))
	assert.True(t, IsConnectionError(&pgconn.PgError{Code: "08001"}))
	assert.False(t, IsConnectionError(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsConnectionError(context.DeadlineExceeded))
	assert.False(t, IsConnectionError(context.Canceled))
	assert.False(t, IsConnectionError(errors.New("boom")))
}
