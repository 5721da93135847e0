package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/postgres"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store/storetest"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/testdb"
)

func TestPostgresTaskStore_Contract(t *testing.T) {
	db := testdb.OpenPostgres(t)

	storetest.RunTaskStoreContract(t, func(t *testing.T) store.TaskStore {
		_, err := db.ExecContext(context.Background(), `DELETE FROM tasks`)
		require.NoError(t, err)
		return postgres.NewPostgresTaskStore(db, nil)
	})
}
