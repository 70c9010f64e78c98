package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"expense-tracker/internal/docstore"
	"expense-tracker/internal/docstore/storetest"
)

func TestSQLiteStoreContract(t *testing.T) {
	dir := t.TempDir()
	n := 0
	suite.Run(t, &storetest.Suite{
		Open: func() (docstore.Store, error) {
			n++
			db, err := Open(filepath.Join(dir, "docs", fmt.Sprintf("store-%d.db", n)))
			if err != nil {
				return nil, err
			}
			return NewStore(db), nil
		},
	})
}

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "expenses.db")

	db, err := Open(path)
	require.NoError(t, err)
	store := NewStore(db)
	require.NoError(t, store.Set(context.Background(), "categories/u/categories", "food", docstore.Data{}))
	require.NoError(t, store.Close(context.Background()))

	// reopening must not re-run applied migrations or lose data
	db, err = Open(path)
	require.NoError(t, err)
	store = NewStore(db)
	defer store.Close(context.Background())

	docs, err := store.Query(context.Background(), "categories/u/categories")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "food", docs[0].ID)
}

func TestQueryByNumericAndBoolFields(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "filters.db"))
	require.NoError(t, err)
	store := NewStore(db)
	defer store.Close(context.Background())

	ctx := context.Background()
	_, err = store.Add(ctx, "expenses", docstore.Data{"amount": 10.0, "archived": true})
	require.NoError(t, err)
	_, err = store.Add(ctx, "expenses", docstore.Data{"amount": 5.0, "archived": false})
	require.NoError(t, err)

	docs, err := store.Query(ctx, "expenses", docstore.Eq("amount", 10))
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = store.Query(ctx, "expenses", docstore.Eq("archived", false))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 5.0, docs[0].Data["amount"])
}
