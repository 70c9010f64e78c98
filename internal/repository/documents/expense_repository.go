package documents

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"expense-tracker/internal/docstore"
	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
)

const expensesCollection = "expenses"

const compensationTimeout = 5 * time.Second

// Document fields of an expense.
const (
	fieldUserID      = "userId"
	fieldDescription = "description"
	fieldAmount      = "amount"
	fieldCategory    = "category"
	fieldCreatedAt   = "createdAt"
)

// categoriesCollection scopes category documents to their owner; the
// document id is the category name.
func categoriesCollection(ownerID string) string {
	return "categories/" + ownerID + "/categories"
}

type ExpenseRepository struct {
	store  docstore.Store
	logger *logrus.Logger
}

func NewExpenseRepository(store docstore.Store, logger *logrus.Logger) repository.ExpenseRepository {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ExpenseRepository{store: store, logger: logger}
}

func (r *ExpenseRepository) ListCategories(ctx context.Context, ownerID string) ([]string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrEmptyOwner
	}

	docs, err := r.store.Query(ctx, categoriesCollection(ownerID))
	if err != nil {
		return nil, fetchFailed("list categories", err)
	}

	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.ID)
	}
	return names, nil
}

func (r *ExpenseRepository) CreateCategory(ctx context.Context, ownerID, name string) error {
	if strings.TrimSpace(ownerID) == "" {
		return domain.ErrEmptyOwner
	}
	if err := domain.ValidateCategoryName(name); err != nil {
		return err
	}

	if err := r.store.Set(ctx, categoriesCollection(ownerID), strings.TrimSpace(name), docstore.Data{}); err != nil {
		return writeFailed("create category", err)
	}
	return nil
}

func (r *ExpenseRepository) ListExpenses(ctx context.Context, ownerID string) ([]domain.Expense, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrEmptyOwner
	}

	docs, err := r.store.Query(ctx, expensesCollection, docstore.Eq(fieldUserID, ownerID))
	if err != nil {
		return nil, fetchFailed("list expenses", err)
	}

	expenses := make([]domain.Expense, 0, len(docs))
	for _, doc := range docs {
		e, err := expenseFromDocument(doc)
		if err != nil {
			return nil, fetchFailed("decode expense "+doc.ID, err)
		}
		// equality is also enforced here in case a backend filters loosely
		if e.OwnerID != ownerID {
			continue
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func (r *ExpenseRepository) GetExpense(ctx context.Context, expenseID string) (*domain.Expense, error) {
	if strings.TrimSpace(expenseID) == "" {
		return nil, domain.ErrEmptyExpenseID
	}

	doc, err := r.store.Get(ctx, expensesCollection, expenseID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, repository.ErrExpenseNotFound
		}
		return nil, fetchFailed("get expense", err)
	}

	e, err := expenseFromDocument(*doc)
	if err != nil {
		return nil, fetchFailed("decode expense "+doc.ID, err)
	}
	return &e, nil
}

func (r *ExpenseRepository) CreateExpense(ctx context.Context, ownerID, description string, amount decimal.Decimal, category string) (*domain.Expense, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrEmptyOwner
	}
	if err := domain.ValidateExpense(description, amount, category); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	category = strings.TrimSpace(category)

	createdCategory, err := r.ensureCategory(ctx, ownerID, category)
	if err != nil {
		return nil, err
	}

	id, err := r.store.Add(ctx, expensesCollection, docstore.Data{
		fieldUserID:      ownerID,
		fieldDescription: description,
		fieldAmount:      amount.InexactFloat64(),
		fieldCategory:    category,
		fieldCreatedAt:   docstore.ServerTimestamp,
	})
	if err != nil {
		if createdCategory {
			r.dropOrphanCategory(context.WithoutCancel(ctx), ownerID, category)
		}
		return nil, writeFailed("add expense", err)
	}

	created, err := r.GetExpense(ctx, id)
	if err != nil {
		// the write went through; only the read-back of the timestamp failed
		r.logger.WithFields(logrus.Fields{"expense_id": id, "error": err}).Warn("read back created expense")
		return &domain.Expense{
			ID:          id,
			OwnerID:     ownerID,
			Description: description,
			Amount:      amount,
			Category:    category,
			CreatedAt:   time.Now().UTC(),
		}, nil
	}
	return created, nil
}

func (r *ExpenseRepository) UpdateExpense(ctx context.Context, expenseID string, patch domain.ExpensePatch) (*domain.Expense, error) {
	if strings.TrimSpace(expenseID) == "" {
		return nil, domain.ErrEmptyExpenseID
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	fields := docstore.Data{}
	if patch.Description != nil {
		fields[fieldDescription] = strings.TrimSpace(*patch.Description)
	}
	if patch.Amount != nil {
		fields[fieldAmount] = patch.Amount.InexactFloat64()
	}
	if patch.Category != nil {
		current, err := r.GetExpense(ctx, expenseID)
		if err != nil {
			return nil, err
		}
		category := strings.TrimSpace(*patch.Category)
		if _, err := r.ensureCategory(ctx, current.OwnerID, category); err != nil {
			return nil, err
		}
		fields[fieldCategory] = category
	}

	if err := r.store.Update(ctx, expensesCollection, expenseID, fields); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, repository.ErrExpenseNotFound
		}
		return nil, writeFailed("update expense", err)
	}

	return r.GetExpense(ctx, expenseID)
}

func (r *ExpenseRepository) DeleteExpense(ctx context.Context, expenseID string) error {
	if strings.TrimSpace(expenseID) == "" {
		return domain.ErrEmptyExpenseID
	}
	if err := r.store.Delete(ctx, expensesCollection, expenseID); err != nil {
		return writeFailed("delete expense", err)
	}
	return nil
}

// ensureCategory creates the category when it is missing and reports whether
// it did so.
func (r *ExpenseRepository) ensureCategory(ctx context.Context, ownerID, name string) (bool, error) {
	_, err := r.store.Get(ctx, categoriesCollection(ownerID), name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return false, fetchFailed("get category", err)
	}

	if err := r.store.Set(ctx, categoriesCollection(ownerID), name, docstore.Data{}); err != nil {
		return false, writeFailed("create category", err)
	}
	return true, nil
}

// dropOrphanCategory runs detached from the caller's cancellation, since a
// cancelled request is a common reason for the failed write.
func (r *ExpenseRepository) dropOrphanCategory(ctx context.Context, ownerID, name string) {
	ctx, cancel := context.WithTimeout(ctx, compensationTimeout)
	defer cancel()

	if err := r.store.Delete(ctx, categoriesCollection(ownerID), name); err != nil {
		r.logger.WithFields(logrus.Fields{
			"owner_id": ownerID,
			"category": name,
			"error":    err,
		}).Warn("orphan category left behind after failed expense write")
	}
}

func expenseFromDocument(doc docstore.Document) (domain.Expense, error) {
	e := domain.Expense{ID: doc.ID}

	var ok bool
	if e.OwnerID, ok = doc.Data[fieldUserID].(string); !ok {
		return e, fmt.Errorf("field %s missing", fieldUserID)
	}
	e.Description, _ = doc.Data[fieldDescription].(string)
	e.Category, _ = doc.Data[fieldCategory].(string)

	switch v := doc.Data[fieldAmount].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return e, fmt.Errorf("field %s is not finite", fieldAmount)
		}
		e.Amount = decimal.NewFromFloat(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return e, fmt.Errorf("field %s: %w", fieldAmount, err)
		}
		e.Amount = d
	default:
		return e, fmt.Errorf("field %s has type %T", fieldAmount, v)
	}

	if ts, ok := doc.Data[fieldCreatedAt].(time.Time); ok {
		e.CreatedAt = ts
	} else {
		e.CreatedAt = doc.CreateTime
	}
	return e, nil
}

func fetchFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", repository.ErrFetchFailed, op, err)
}

func writeFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", repository.ErrWriteFailed, op, err)
}
