package domain

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single spending record owned by one user.
type Expense struct {
	ID          string
	OwnerID     string
	Description string
	Amount      decimal.Decimal
	Category    string
	CreatedAt   time.Time
}

// ExpensePatch lists the mutable fields of an Expense. Nil fields are left
// unchanged. Owner and creation time cannot be expressed here.
type ExpensePatch struct {
	Description *string
	Amount      *decimal.Decimal
	Category    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Category == nil
}

// Validate checks the fields the patch sets.
func (p ExpensePatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return ErrEmptyDescription
	}
	if p.Amount != nil {
		if err := ValidateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if strings.TrimSpace(*p.Category) == "" {
			return ErrEmptyCategory
		}
		if err := ValidateCategoryName(*p.Category); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns e with the patch applied.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = strings.TrimSpace(*p.Category)
	}
	return e
}

// ValidateExpense checks the fields of a new expense.
func ValidateExpense(description string, amount decimal.Decimal, category string) error {
	if strings.TrimSpace(description) == "" {
		return ErrEmptyDescription
	}
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if strings.TrimSpace(category) == "" {
		return ErrEmptyCategory
	}
	return ValidateCategoryName(category)
}

// MaxAmount is the largest amount accepted for a single expense.
var MaxAmount = decimal.New(1, 12)

// ValidateAmount rejects zero, negative and out of range amounts. Amounts are
// stored as float64, so the float form must stay finite and positive too.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(MaxAmount) {
		return ErrInvalidAmount
	}
	if f := amount.InexactFloat64(); f <= 0 || math.IsInf(f, 0) {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateCategoryName rejects empty names and names that would escape the
// owner's category collection.
func ValidateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategoryName
	}
	if strings.Contains(name, "/") {
		return ErrInvalidCategory
	}
	return nil
}

// ParseAmount parses a user-entered amount. Comma is accepted as the decimal
// separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// SortByCreatedAt orders expenses chronologically in place. Ties keep their
// relative order.
func SortByCreatedAt(expenses []Expense, newestFirst bool) {
	sort.SliceStable(expenses, func(i, j int) bool {
		if newestFirst {
			return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
		}
		return expenses[i].CreatedAt.Before(expenses[j].CreatedAt)
	})
}
