// Package storetest holds the behaviour every docstore backend must share.
package storetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"expense-tracker/internal/docstore"
)

// Suite runs the common contract against a backend produced by Open.
// Each test gets a fresh store.
type Suite struct {
	suite.Suite
	Open  func() (docstore.Store, error)
	store docstore.Store
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	store, err := s.Open()
	require.NoError(s.T(), err, "open store")
	s.store = store
	s.ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		s.Require().NoError(s.store.Close(s.ctx))
	}
}

func (s *Suite) TestAddAssignsIDAndServerTimestamp() {
	before := time.Now().Add(-time.Second)
	id, err := s.store.Add(s.ctx, "expenses", docstore.Data{
		"userId":    "u1",
		"amount":    12.5,
		"createdAt": docstore.ServerTimestamp,
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(id)

	doc, err := s.store.Get(s.ctx, "expenses", id)
	s.Require().NoError(err)
	s.Equal(id, doc.ID)
	s.Equal("u1", doc.Data["userId"])
	s.Equal(12.5, doc.Data["amount"])

	createdAt, ok := doc.Data["createdAt"].(time.Time)
	s.Require().True(ok, "createdAt should decode as time.Time, got %T", doc.Data["createdAt"])
	s.True(createdAt.After(before))
}

func (s *Suite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, "expenses", "missing")
	s.ErrorIs(err, docstore.ErrNotFound)
}

func (s *Suite) TestQueryByEquality() {
	for _, owner := range []string{"alice", "bob", "alice"} {
		_, err := s.store.Add(s.ctx, "expenses", docstore.Data{"userId": owner})
		s.Require().NoError(err)
	}
	_, err := s.store.Add(s.ctx, "other", docstore.Data{"userId": "alice"})
	s.Require().NoError(err)

	docs, err := s.store.Query(s.ctx, "expenses", docstore.Eq("userId", "alice"))
	s.Require().NoError(err)
	s.Len(docs, 2)
	for _, d := range docs {
		s.Equal("alice", d.Data["userId"])
	}

	none, err := s.store.Query(s.ctx, "expenses", docstore.Eq("userId", "carol"))
	s.Require().NoError(err)
	s.Empty(none)

	all, err := s.store.Query(s.ctx, "expenses")
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *Suite) TestCreateRejectsDuplicates() {
	s.Require().NoError(s.store.Create(s.ctx, "users", "a@example.com", docstore.Data{"id": "1"}))
	err := s.store.Create(s.ctx, "users", "a@example.com", docstore.Data{"id": "2"})
	s.ErrorIs(err, docstore.ErrAlreadyExists)

	doc, err := s.store.Get(s.ctx, "users", "a@example.com")
	s.Require().NoError(err)
	s.Equal("1", doc.Data["id"])
}

func (s *Suite) TestSetOverwrites() {
	col := "categories/u1/categories"
	s.Require().NoError(s.store.Set(s.ctx, col, "food", docstore.Data{}))
	s.Require().NoError(s.store.Set(s.ctx, col, "food", docstore.Data{}))
	s.Require().NoError(s.store.Set(s.ctx, col, "rent", docstore.Data{}))

	docs, err := s.store.Query(s.ctx, col)
	s.Require().NoError(err)
	s.Len(docs, 2)
}

func (s *Suite) TestUpdateMergesFields() {
	id, err := s.store.Add(s.ctx, "expenses", docstore.Data{"description": "a", "amount": 1.0, "userId": "u"})
	s.Require().NoError(err)

	s.Require().NoError(s.store.Update(s.ctx, "expenses", id, docstore.Data{"amount": 2.0}))

	doc, err := s.store.Get(s.ctx, "expenses", id)
	s.Require().NoError(err)
	s.Equal("a", doc.Data["description"])
	s.Equal(2.0, doc.Data["amount"])
	s.Equal("u", doc.Data["userId"])
}

func (s *Suite) TestUpdateMissing() {
	err := s.store.Update(s.ctx, "expenses", "missing", docstore.Data{"amount": 1.0})
	s.ErrorIs(err, docstore.ErrNotFound)
}

func (s *Suite) TestDeleteIsIdempotent() {
	id, err := s.store.Add(s.ctx, "expenses", docstore.Data{"userId": "u"})
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(s.ctx, "expenses", id))
	s.Require().NoError(s.store.Delete(s.ctx, "expenses", id))

	_, err = s.store.Get(s.ctx, "expenses", id)
	s.ErrorIs(err, docstore.ErrNotFound)
}
