package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"10", "10", false},
		{"12.34", "12.34", false},
		{"12,5", "12.5", false},
		{" 7 ", "7", false},
		{"0", "", true},
		{"-3", "", true},
		{"", "", true},
		{"abc", "", true},
		{"NaN", "", true},
		{"Infinity", "", true},
		{"1e-400", "", true},
		{"1e400", "", true},
		{"1000000000001", "", true},
		{"1000000000000", "1000000000000", false},
		{"0.01", "0.01", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestValidateExpense(t *testing.T) {
	ten := decimal.NewFromInt(10)

	assert.NoError(t, ValidateExpense("Lunch", ten, "food"))
	assert.ErrorIs(t, ValidateExpense(" ", ten, "food"), ErrEmptyDescription)
	assert.ErrorIs(t, ValidateExpense("Lunch", decimal.Zero, "food"), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateExpense("Lunch", ten.Neg(), "food"), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateExpense("Lunch", ten, ""), ErrEmptyCategory)
	assert.ErrorIs(t, ValidateExpense("Lunch", ten, "a/b"), ErrInvalidCategory)

	var verr ValidationError
	assert.True(t, errors.As(ValidateExpense("", ten, "food"), &verr))
}

func TestExpensePatch(t *testing.T) {
	desc := "Dinner"
	amount := decimal.NewFromInt(25)
	blank := ""

	assert.ErrorIs(t, ExpensePatch{}.Validate(), ErrEmptyPatch)
	assert.ErrorIs(t, ExpensePatch{Description: &blank}.Validate(), ErrEmptyDescription)
	assert.ErrorIs(t, ExpensePatch{Category: &blank}.Validate(), ErrEmptyCategory)
	zero := decimal.Zero
	assert.ErrorIs(t, ExpensePatch{Amount: &zero}.Validate(), ErrInvalidAmount)

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := Expense{ID: "e1", OwnerID: "u1", Description: "Lunch", Amount: decimal.NewFromInt(10), Category: "food", CreatedAt: created}
	patch := ExpensePatch{Description: &desc, Amount: &amount}
	require.NoError(t, patch.Validate())

	got := patch.Apply(orig)
	assert.Equal(t, "Dinner", got.Description)
	assert.True(t, got.Amount.Equal(amount))
	assert.Equal(t, "food", got.Category)
	assert.Equal(t, "u1", got.OwnerID)
	assert.Equal(t, created, got.CreatedAt)
}

func TestSortByCreatedAt(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	expenses := []Expense{
		{ID: "b", CreatedAt: base.Add(time.Hour)},
		{ID: "a", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(2 * time.Hour)},
	}

	SortByCreatedAt(expenses, false)
	assert.Equal(t, "a", expenses[0].ID)
	assert.Equal(t, "c", expenses[2].ID)

	SortByCreatedAt(expenses, true)
	assert.Equal(t, "c", expenses[0].ID)
	assert.Equal(t, "a", expenses[2].ID)
}
