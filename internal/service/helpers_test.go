package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"expense-tracker/internal/docstore/memory"
	"expense-tracker/internal/domain"
	"expense-tracker/internal/events"
	"expense-tracker/internal/repository"
	"expense-tracker/internal/repository/documents"
	"expense-tracker/internal/storage"
)

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// tickingClock advances one minute per call so creation times are distinct.
func tickingClock() func() time.Time {
	next := testStart
	return func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

type fixture struct {
	store     *memory.Store
	expenses  repository.ExpenseRepository
	users     repository.UserRepository
	publisher *recordingPublisher
	logger    *logrus.Logger
	hook      *test.Hook
}

func newFixture() *fixture {
	logger, hook := test.NewNullLogger()
	store := memory.New().WithClock(tickingClock())
	return &fixture{
		store:     store,
		expenses:  documents.NewExpenseRepository(store, logger),
		users:     documents.NewUserRepository(store),
		publisher: &recordingPublisher{},
		logger:    logger,
		hook:      hook,
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// failingExpenses fails every listing call.
type failingExpenses struct {
	repository.ExpenseRepository
	err error
}

func (f failingExpenses) ListCategories(context.Context, string) ([]string, error) {
	return nil, f.err
}

func (f failingExpenses) ListExpenses(context.Context, string) ([]domain.Expense, error) {
	return nil, f.err
}

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: make(map[string][]byte)}
}

func (m *memoryObjects) Upload(_ context.Context, body io.Reader, opts storage.UploadOptions) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[opts.Bucket+"/"+opts.Key] = data
	return "s3://" + opts.Bucket + "/" + opts.Key, nil
}

func (m *memoryObjects) ListObjects(_ context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for k, v := range m.objects {
		if key, ok := strings.CutPrefix(k, bucket+"/"); ok && strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memoryObjects) DeletePrefix(_ context.Context, bucket, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.objects {
		if strings.HasPrefix(k, bucket+"/"+prefix) {
			delete(m.objects, k)
			n++
		}
	}
	return n, nil
}

func (m *memoryObjects) GetObjectURL(_ context.Context, bucket, key string, expires time.Duration) (string, error) {
	return "https://signed.example/" + bucket + "/" + key + "?ttl=" + expires.String(), nil
}

func (m *memoryObjects) get(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.objects[key])
}

type recordingSheet struct {
	rows [][]string
	err  error
}

func (s *recordingSheet) AppendRows(_ context.Context, rows [][]string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.rows = append(s.rows, rows...)
	return "Expenses!A1:D" + strconv.Itoa(len(s.rows)), nil
}

var errUnavailable = errors.New("unavailable")
