package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"expense-tracker/internal/domain"
)

var (
	// ErrFetchFailed wraps any store failure while reading.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrWriteFailed wraps any store failure while writing.
	ErrWriteFailed = errors.New("write failed")
	// ErrExpenseNotFound is returned when an expense id does not exist.
	ErrExpenseNotFound = errors.New("expense not found")
)

// ExpenseRepository mediates all access to a user's categories and expenses.
// Input is validated before the store is touched; validation failures are
// domain.ValidationError values.
type ExpenseRepository interface {
	ListCategories(ctx context.Context, ownerID string) ([]string, error)
	CreateCategory(ctx context.Context, ownerID, name string) error
	ListExpenses(ctx context.Context, ownerID string) ([]domain.Expense, error)
	GetExpense(ctx context.Context, expenseID string) (*domain.Expense, error)
	CreateExpense(ctx context.Context, ownerID, description string, amount decimal.Decimal, category string) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, expenseID string, patch domain.ExpensePatch) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, expenseID string) error
}
