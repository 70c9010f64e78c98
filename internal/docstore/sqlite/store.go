package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"expense-tracker/internal/docstore"
)

// Store keeps documents as JSON text in the documents table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, data, create_time, update_time
FROM documents
WHERE collection = ? AND id = ?`,
		collection,
		id,
	)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	where := []string{"collection = ?"}
	args := []any{collection}
	for _, f := range filters {
		clause, clauseArgs, err := filterClause(f)
		if err != nil {
			return nil, err
		}
		where = append(where, clause)
		args = append(args, clauseArgs...)
	}

	query := fmt.Sprintf(`
SELECT id, data, create_time, update_time
FROM documents
WHERE %s
ORDER BY rowid ASC`, strings.Join(where, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
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
	now := time.Now().UTC()
	raw, err := encode(data, now)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO documents (collection, id, data, create_time, update_time)
VALUES (?, ?, ?, ?, ?)`,
		collection,
		id,
		string(raw),
		now,
		now,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return docstore.ErrAlreadyExists
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data docstore.Data) error {
	now := time.Now().UTC()
	raw, err := encode(data, now)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO documents (collection, id, data, create_time, update_time)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, update_time = excluded.update_time`,
		collection,
		id,
		string(raw),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch docstore.Data) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.ErrNotFound
		}
		return fmt.Errorf("load document: %w", err)
	}
	current, err := docstore.DecodeJSON([]byte(raw))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	resolved, err := docstore.Resolve(patch, now)
	if err != nil {
		return err
	}
	merged, err := docstore.EncodeJSON(docstore.Merge(current, resolved))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE documents
SET data = ?, update_time = ?
WHERE collection = ? AND id = ?`,
		string(merged),
		now,
		collection,
		id,
	); err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit document update: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

func encode(data docstore.Data, now time.Time) ([]byte, error) {
	resolved, err := docstore.Resolve(data, now)
	if err != nil {
		return nil, err
	}
	raw, err := docstore.EncodeJSON(resolved)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return raw, nil
}

func filterClause(f docstore.Filter) (string, []any, error) {
	value, err := docstore.Normalize(f.Value)
	if err != nil {
		return "", nil, err
	}
	path := `$."` + strings.ReplaceAll(f.Field, `"`, ``) + `"`

	switch v := value.(type) {
	case nil:
		return "json_type(data, ?) = 'null'", []any{path}, nil
	case time.Time:
		return "json_extract(data, ?) = ?", []any{path + `."$time"`, v.UTC().Format(time.RFC3339Nano)}, nil
	default:
		return "json_extract(data, ?) = ?", []any{path, v}, nil
	}
}

func scanDocument(row interface {
	Scan(dest ...any) error
}) (*docstore.Document, error) {
	var (
		doc        docstore.Document
		raw        string
		createTime time.Time
		updateTime time.Time
	)
	if err := row.Scan(&doc.ID, &raw, &createTime, &updateTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	data, err := docstore.DecodeJSON([]byte(raw))
	if err != nil {
		return nil, err
	}
	doc.Data = data
	doc.CreateTime = createTime.UTC()
	doc.UpdateTime = updateTime.UTC()
	return &doc, nil
}

var _ docstore.Store = (*Store)(nil)
