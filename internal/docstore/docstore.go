// Package docstore defines the document-store client used by the repositories.
//
// A store holds schema-flexible documents grouped in named collections. Every
// backend (memory, sqlite, postgres, mongo) keeps the same semantics so that
// repositories can be exercised against the in-memory store in tests and
// against a real database in production.
package docstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("document already exists")
)

// Data is the payload of a document. Values are scalars: string, float64,
// bool, time.Time or nil.
type Data map[string]any

// Document is a point-in-time copy of a stored document.
type Document struct {
	ID         string
	Data       Data
	CreateTime time.Time
	UpdateTime time.Time
}

// Filter restricts a query to documents whose Field equals Value.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

type serverTimestamp struct{}

// ServerTimestamp may be used as a field value on writes; the store replaces
// it with its own commit time.
var ServerTimestamp = serverTimestamp{}

// Store is a document-store client. Writes are visible to subsequent reads on
// the same store but no ordering is guaranteed between concurrent callers.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	Add(ctx context.Context, collection string, data Data) (string, error)
	Create(ctx context.Context, collection, id string, data Data) error
	Set(ctx context.Context, collection, id string, data Data) error
	Update(ctx context.Context, collection, id string, patch Data) error
	Delete(ctx context.Context, collection, id string) error
	Close(ctx context.Context) error
}
