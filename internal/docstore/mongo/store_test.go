package mongo

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"expense-tracker/internal/docstore"
	"expense-tracker/internal/docstore/storetest"
)

func TestMongoStoreContract(t *testing.T) {
	uri := os.Getenv("EXPENSES_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("EXPENSES_TEST_MONGO_URI not set")
	}

	suite.Run(t, &storetest.Suite{
		Open: func() (docstore.Store, error) {
			ctx := context.Background()
			client, err := Connect(ctx, uri)
			if err != nil {
				return nil, err
			}
			store := NewStore(client, "expenses_test")
			if _, err := store.docs.DeleteMany(ctx, bson.M{}); err != nil {
				return nil, err
			}
			if err := store.Init(ctx); err != nil {
				return nil, err
			}
			return store, nil
		},
	})
}

func TestFromBSONWidensNumbers(t *testing.T) {
	assert.Equal(t, float64(3), fromBSON(int32(3)))
	assert.Equal(t, float64(4), fromBSON(int64(4)))
	assert.Equal(t, "x", fromBSON("x"))

	dt := primitive.DateTime(1700000000000)
	assert.Equal(t, dt.Time().UTC(), fromBSON(dt))
}
