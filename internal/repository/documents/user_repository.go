package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"expense-tracker/internal/docstore"
	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
)

// Users are keyed by normalized email so uniqueness is enforced by the store.
const usersCollection = "users"

type UserRepository struct {
	store docstore.Store
}

func NewUserRepository(store docstore.Store) repository.UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = normalizeEmail(user.Email)

	err := r.store.Create(ctx, usersCollection, user.Email, docstore.Data{
		"id":           user.ID,
		"email":        user.Email,
		"passwordHash": user.PasswordHash,
		"createdAt":    docstore.ServerTimestamp,
	})
	if err != nil {
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return repository.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	stored, err := r.GetByEmail(ctx, user.Email)
	if err != nil {
		user.CreatedAt = time.Now().UTC()
		return nil
	}
	user.CreatedAt = stored.CreatedAt
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	doc, err := r.store.Get(ctx, usersCollection, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return userFromDocument(*doc)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	docs, err := r.store.Query(ctx, usersCollection, docstore.Eq("id", id))
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if len(docs) == 0 {
		return nil, repository.ErrUserNotFound
	}
	return userFromDocument(docs[0])
}

func userFromDocument(doc docstore.Document) (*domain.User, error) {
	var user domain.User
	var ok bool
	if user.ID, ok = doc.Data["id"].(string); !ok {
		return nil, fmt.Errorf("scan user %s: id missing", doc.ID)
	}
	user.Email, _ = doc.Data["email"].(string)
	user.PasswordHash, _ = doc.Data["passwordHash"].(string)
	if ts, ok := doc.Data["createdAt"].(time.Time); ok {
		user.CreatedAt = ts
	} else {
		user.CreatedAt = doc.CreateTime
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
