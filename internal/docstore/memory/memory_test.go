package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"expense-tracker/internal/docstore"
	"expense-tracker/internal/docstore/storetest"
)

func TestMemoryStoreContract(t *testing.T) {
	suite.Run(t, &storetest.Suite{
		Open: func() (docstore.Store, error) { return New(), nil },
	})
}

func TestQueryReturnsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, d := range []string{"first", "second", "third"} {
		_, err := s.Add(ctx, "expenses", docstore.Data{"description": d})
		require.NoError(t, err)
	}

	docs, err := s.Query(ctx, "expenses")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "first", docs[0].Data["description"])
	assert.Equal(t, "third", docs[2].Data["description"])
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, err := s.Add(ctx, "expenses", docstore.Data{"description": "lunch"})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "expenses", id)
	require.NoError(t, err)
	doc.Data["description"] = "changed"

	again, err := s.Get(ctx, "expenses", id)
	require.NoError(t, err)
	assert.Equal(t, "lunch", again.Data["description"])
}

func TestClockDrivesServerTimestamp(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New().WithClock(func() time.Time { return fixed })

	id, err := s.Add(ctx, "expenses", docstore.Data{"createdAt": docstore.ServerTimestamp})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "expenses", id)
	require.NoError(t, err)
	assert.Equal(t, fixed, doc.Data["createdAt"])
	assert.Equal(t, fixed, doc.CreateTime)
}
