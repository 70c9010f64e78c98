package documents

import (
	"context"
	"sync/atomic"

	"expense-tracker/internal/docstore"
)

// faultyStore wraps a real store, counts calls and injects failures per
// operation.
type faultyStore struct {
	docstore.Store
	calls atomic.Int32

	getErr    error
	queryErr  error
	addErr    error
	setErr    error
	updateErr error
	deleteErr error

	// onAdd runs before Add returns, e.g. to cancel the caller's context.
	onAdd func()
}

func (s *faultyStore) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	s.calls.Add(1)
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.Store.Get(ctx, collection, id)
}

func (s *faultyStore) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	s.calls.Add(1)
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.Store.Query(ctx, collection, filters...)
}

func (s *faultyStore) Add(ctx context.Context, collection string, data docstore.Data) (string, error) {
	s.calls.Add(1)
	if s.onAdd != nil {
		s.onAdd()
	}
	if s.addErr != nil {
		return "", s.addErr
	}
	return s.Store.Add(ctx, collection, data)
}

func (s *faultyStore) Create(ctx context.Context, collection, id string, data docstore.Data) error {
	s.calls.Add(1)
	return s.Store.Create(ctx, collection, id, data)
}

func (s *faultyStore) Set(ctx context.Context, collection, id string, data docstore.Data) error {
	s.calls.Add(1)
	if s.setErr != nil {
		return s.setErr
	}
	return s.Store.Set(ctx, collection, id, data)
}

func (s *faultyStore) Update(ctx context.Context, collection, id string, patch docstore.Data) error {
	s.calls.Add(1)
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Store.Update(ctx, collection, id, patch)
}

func (s *faultyStore) Delete(ctx context.Context, collection, id string) error {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Store.Delete(ctx, collection, id)
}
