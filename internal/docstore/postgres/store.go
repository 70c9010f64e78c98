package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"expense-tracker/internal/docstore"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	seq BIGSERIAL,
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data JSONB NOT NULL,
	create_time TIMESTAMPTZ NOT NULL,
	update_time TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_collection_seq ON documents(collection, seq);
`

const uniqueViolation = "23505"

// Store keeps documents in a JSONB column.
type Store struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// Open connects to postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	query, args, err := s.selectDocuments().
		Where(squirrel.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}
	return scanDocument(s.pool.QueryRow(ctx, query, args...))
}

func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	builder := s.selectDocuments().Where(squirrel.Eq{"collection": collection})
	for _, f := range filters {
		value, err := docstore.Normalize(f.Value)
		if err != nil {
			return nil, err
		}
		encoded, err := docstore.EncodeJSONValue(value)
		if err != nil {
			return nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
		}
		builder = builder.Where("data -> ?::text = ?::jsonb", f.Field, string(encoded))
	}

	query, args, err := builder.OrderBy("seq ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []docstore.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (s *Store) Add(ctx context.Context, collection string, data docstore.Data) (string, error) {
	id := uuid.NewString()
	if err := s.Create(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Create(ctx context.Context, collection, id string, data docstore.Data) error {
	query, args, err := s.insert(collection, id, data)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return docstore.ErrAlreadyExists
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data docstore.Data) error {
	query, args, err := s.insert(collection, id, data,
		"ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, update_time = EXCLUDED.update_time")
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch docstore.Data) error {
	now := time.Now().UTC()
	raw, err := encode(patch, now)
	if err != nil {
		return err
	}

	query, args, err := s.sb.Update("documents").
		Set("data", squirrel.Expr("data || ?::jsonb", raw)).
		Set("update_time", now).
		Where(squirrel.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	query, args, err := s.sb.Delete("documents").
		Where(squirrel.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func (s *Store) selectDocuments() squirrel.SelectBuilder {
	return s.sb.Select("id", "data::text", "create_time", "update_time").From("documents")
}

func (s *Store) insert(collection, id string, data docstore.Data, suffix ...string) (string, []any, error) {
	now := time.Now().UTC()
	raw, err := encode(data, now)
	if err != nil {
		return "", nil, err
	}

	builder := s.sb.Insert("documents").
		Columns("collection", "id", "data", "create_time", "update_time").
		Values(collection, id, squirrel.Expr("?::jsonb", raw), now, now)
	for _, sfx := range suffix {
		builder = builder.Suffix(sfx)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build insert: %w", err)
	}
	return query, args, nil
}

func encode(data docstore.Data, now time.Time) (string, error) {
	resolved, err := docstore.Resolve(data, now)
	if err != nil {
		return "", err
	}
	raw, err := docstore.EncodeJSON(resolved)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(raw), nil
}

func scanDocument(row pgx.Row) (*docstore.Document, error) {
	var (
		doc docstore.Document
		raw string
	)
	if err := row.Scan(&doc.ID, &raw, &doc.CreateTime, &doc.UpdateTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	data, err := docstore.DecodeJSON([]byte(raw))
	if err != nil {
		return nil, err
	}
	doc.Data = data
	doc.CreateTime = doc.CreateTime.UTC()
	doc.UpdateTime = doc.UpdateTime.UTC()
	return &doc, nil
}

var _ docstore.Store = (*Store)(nil)
