package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-tracker/internal/docstore/memory"
	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
)

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(memory.New())
	ctx := context.Background()

	user := &domain.User{Email: " Ana@Example.com ", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", byID.Email)

	err = repo.Create(ctx, &domain.User{Email: "ana@example.com", PasswordHash: "other"})
	assert.ErrorIs(t, err, repository.ErrUserExists)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
