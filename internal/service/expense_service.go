package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/events"
	"expense-tracker/internal/repository"
)

// ErrExpenseNotFound is returned for ids that do not exist or belong to
// another user.
var ErrExpenseNotFound = repository.ErrExpenseNotFound

// Dashboard is everything the main screen renders for one user.
type Dashboard struct {
	Categories []string
	Expenses   []domain.Expense
	Aggregates domain.Aggregates
}

// ExpenseService exposes a single user's view of categories and expenses.
type ExpenseService interface {
	ListCategories(ctx context.Context, ownerID string) ([]string, error)
	CreateCategory(ctx context.Context, ownerID, name string) error
	ListExpenses(ctx context.Context, ownerID string) ([]domain.Expense, error)
	GetExpense(ctx context.Context, ownerID, expenseID string) (*domain.Expense, error)
	CreateExpense(ctx context.Context, ownerID, description string, amount decimal.Decimal, category string) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, ownerID, expenseID string, patch domain.ExpensePatch) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, ownerID, expenseID string) error
	Summary(ctx context.Context, ownerID string) (domain.Aggregates, error)
	Dashboard(ctx context.Context, ownerID string) (*Dashboard, error)
}

type expenseService struct {
	expenses  repository.ExpenseRepository
	publisher events.Publisher
	logger    *logrus.Logger
}

func NewExpenseService(expenses repository.ExpenseRepository, publisher events.Publisher, logger *logrus.Logger) ExpenseService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &expenseService{
		expenses:  expenses,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *expenseService) ListCategories(ctx context.Context, ownerID string) ([]string, error) {
	return s.expenses.ListCategories(ctx, ownerID)
}

func (s *expenseService) CreateCategory(ctx context.Context, ownerID, name string) error {
	if err := s.expenses.CreateCategory(ctx, ownerID, name); err != nil {
		return err
	}
	s.publish(ctx, events.Event{Type: events.CategoryCreated, OwnerID: ownerID, Category: strings.TrimSpace(name)})
	return nil
}

// ListExpenses returns the user's expenses, newest first.
func (s *expenseService) ListExpenses(ctx context.Context, ownerID string) ([]domain.Expense, error) {
	expenses, err := s.expenses.ListExpenses(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	domain.SortByCreatedAt(expenses, true)
	return expenses, nil
}

func (s *expenseService) GetExpense(ctx context.Context, ownerID, expenseID string) (*domain.Expense, error) {
	e, err := s.expenses.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if e.OwnerID != ownerID {
		return nil, ErrExpenseNotFound
	}
	return e, nil
}

func (s *expenseService) CreateExpense(ctx context.Context, ownerID, description string, amount decimal.Decimal, category string) (*domain.Expense, error) {
	e, err := s.expenses.CreateExpense(ctx, ownerID, description, amount, category)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.ForExpense(events.ExpenseCreated, *e))
	return e, nil
}

func (s *expenseService) UpdateExpense(ctx context.Context, ownerID, expenseID string, patch domain.ExpensePatch) (*domain.Expense, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetExpense(ctx, ownerID, expenseID); err != nil {
		return nil, err
	}

	e, err := s.expenses.UpdateExpense(ctx, expenseID, patch)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.ForExpense(events.ExpenseUpdated, *e))
	return e, nil
}

// DeleteExpense removes the expense. Unknown ids and ids owned by someone
// else succeed without effect.
func (s *expenseService) DeleteExpense(ctx context.Context, ownerID, expenseID string) error {
	e, err := s.GetExpense(ctx, ownerID, expenseID)
	if err != nil {
		if errors.Is(err, ErrExpenseNotFound) {
			return nil
		}
		return err
	}

	if err := s.expenses.DeleteExpense(ctx, expenseID); err != nil {
		return err
	}
	s.publish(ctx, events.ForExpense(events.ExpenseDeleted, *e))
	return nil
}

func (s *expenseService) Summary(ctx context.Context, ownerID string) (domain.Aggregates, error) {
	expenses, err := s.expenses.ListExpenses(ctx, ownerID)
	if err != nil {
		return domain.Aggregates{}, err
	}
	return domain.ComputeAggregates(expenses), nil
}

// Dashboard loads categories and expenses concurrently.
func (s *expenseService) Dashboard(ctx context.Context, ownerID string) (*Dashboard, error) {
	var (
		categories []string
		expenses   []domain.Expense
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.expenses.ListCategories(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.expenses.ListExpenses(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	domain.SortByCreatedAt(expenses, true)
	return &Dashboard{
		Categories: categories,
		Expenses:   expenses,
		Aggregates: domain.ComputeAggregates(expenses),
	}, nil
}

// publish is best effort; the write it describes has already succeeded.
func (s *expenseService) publish(ctx context.Context, event events.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = timeNow()
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithFields(logrus.Fields{
			"event":    event.Type,
			"owner_id": event.OwnerID,
			"error":    err,
		}).Warn("publish event")
	}
}
