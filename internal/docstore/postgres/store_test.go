package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	"expense-tracker/internal/docstore"
	"expense-tracker/internal/docstore/storetest"
)

// Runs only against a disposable database: the documents table is truncated.
func TestPostgresStoreContract(t *testing.T) {
	dsn := os.Getenv("EXPENSES_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("EXPENSES_TEST_POSTGRES_DSN not set")
	}

	suite.Run(t, &storetest.Suite{
		Open: func() (docstore.Store, error) {
			ctx := context.Background()
			pool, err := Open(ctx, dsn)
			if err != nil {
				return nil, err
			}
			store := NewStore(pool)
			if err := store.Init(ctx); err != nil {
				return nil, err
			}
			if _, err := pool.Exec(ctx, `TRUNCATE TABLE documents`); err != nil {
				return nil, err
			}
			return store, nil
		},
	})
}
