package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"expense-tracker/internal/docstore"
)

type record struct {
	data       docstore.Data
	createTime time.Time
	updateTime time.Time
	seq        uint64
}

// Store keeps documents in process memory. Used for tests and local runs.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]*record
	seq         uint64
	now         func() time.Time
}

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]*record),
		now:         time.Now,
	}
}

// WithClock overrides the commit-time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Get(_ context.Context, collection, id string) (*docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	doc := toDocument(id, rec)
	return &doc, nil
}

func (s *Store) Query(_ context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	normalized := make([]docstore.Filter, len(filters))
	for i, f := range filters {
		v, err := docstore.Normalize(f.Value)
		if err != nil {
			return nil, err
		}
		normalized[i] = docstore.Filter{Field: f.Field, Value: v}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type hit struct {
		id  string
		rec *record
	}
	var hits []hit
	for id, rec := range s.collections[collection] {
		if matches(rec.data, normalized) {
			hits = append(hits, hit{id: id, rec: rec})
		}
	}
	// insertion order, like a freshly read snapshot
	sort.Slice(hits, func(i, j int) bool { return hits[i].rec.seq < hits[j].rec.seq })

	docs := make([]docstore.Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, toDocument(h.id, h.rec))
	}
	return docs, nil
}

func (s *Store) Add(ctx context.Context, collection string, data docstore.Data) (string, error) {
	id := uuid.NewString()
	if err := s.Create(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Create(_ context.Context, collection, id string, data docstore.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; ok {
		return docstore.ErrAlreadyExists
	}
	return s.put(collection, id, data)
}

func (s *Store) Set(_ context.Context, collection, id string, data docstore.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(collection, id, data)
}

func (s *Store) Update(_ context.Context, collection, id string, patch docstore.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return docstore.ErrNotFound
	}
	now := s.now().UTC()
	resolved, err := docstore.Resolve(patch, now)
	if err != nil {
		return err
	}
	rec.data = docstore.Merge(rec.data, resolved)
	rec.updateTime = now
	return nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func (s *Store) Close(context.Context) error {
	return nil
}

// put must be called with s.mu held.
func (s *Store) put(collection, id string, data docstore.Data) error {
	now := s.now().UTC()
	resolved, err := docstore.Resolve(data, now)
	if err != nil {
		return err
	}

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]*record)
		s.collections[collection] = docs
	}

	rec, exists := docs[id]
	if !exists {
		s.seq++
		rec = &record{createTime: now, seq: s.seq}
		docs[id] = rec
	}
	rec.data = resolved
	rec.updateTime = now
	return nil
}

func matches(data docstore.Data, filters []docstore.Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok {
			return false
		}
		if t, isTime := v.(time.Time); isTime {
			ft, ok := f.Value.(time.Time)
			if !ok || !t.Equal(ft) {
				return false
			}
			continue
		}
		if v != f.Value {
			return false
		}
	}
	return true
}

func toDocument(id string, rec *record) docstore.Document {
	return docstore.Document{
		ID:         id,
		Data:       docstore.Clone(rec.data),
		CreateTime: rec.createTime,
		UpdateTime: rec.updateTime,
	}
}

var _ docstore.Store = (*Store)(nil)
