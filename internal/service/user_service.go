package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
)

const (
	minPasswordLength = 6
	// bcrypt hashes at most 72 bytes of input.
	maxPasswordLength = 72
)

// DefaultCategories are created for every newly registered user.
var DefaultCategories = []string{"groceries", "rent", "utilities"}

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("Invalid login credentials. Please register if you do not have an account.")
	// ErrUserAlreadyExists is returned when attempting to register with an existing email.
	ErrUserAlreadyExists = errors.New("an account with this email already exists")
)

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, email, password, confirm string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type userService struct {
	users    repository.UserRepository
	expenses repository.ExpenseRepository
	logger   *logrus.Logger
}

func NewUserService(users repository.UserRepository, expenses repository.ExpenseRepository, logger *logrus.Logger) UserService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &userService{
		users:    users,
		expenses: expenses,
		logger:   logger,
	}
}

func (s *userService) Register(ctx context.Context, email, password, confirm string) (*domain.User, error) {
	email = strings.TrimSpace(email)

	if email == "" || password == "" || confirm == "" {
		return nil, domain.ErrMissingFields
	}
	if password != confirm {
		return nil, domain.ErrPasswordMismatch
	}
	if len(password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	if len(password) > maxPasswordLength {
		return nil, domain.ErrPasswordTooLong
	}
	if at := strings.Index(email, "@"); at <= 0 || at == len(email)-1 {
		return nil, domain.ErrInvalidEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	s.seedCategories(ctx, user.ID)
	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// seedCategories is best effort: the account exists either way and missing
// categories are recreated on first use.
func (s *userService) seedCategories(ctx context.Context, ownerID string) {
	if s.expenses == nil {
		return
	}
	for _, name := range DefaultCategories {
		if err := s.expenses.CreateCategory(ctx, ownerID, name); err != nil {
			s.logger.WithFields(logrus.Fields{
				"user_id":  ownerID,
				"category": name,
				"error":    err,
			}).Warn("seed default category")
		}
	}
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
