package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/storage"
)

// amountInput accepts an amount sent either as a JSON number or a string.
type amountInput string

func (a *amountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or a string")
	}
	*a = amountInput(n.String())
	return nil
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

type ExpenseResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	CreatedAt   string `json:"createdAt"`
}

type CategoryTotalResponse struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Count    int    `json:"count"`
}

// ChartPoint is one slice of the per-category chart.
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type SummaryResponse struct {
	Total  string                  `json:"total"`
	Groups []CategoryTotalResponse `json:"groups"`
	Chart  []ChartPoint            `json:"chart"`
}

type DashboardResponse struct {
	Categories    []string          `json:"categories"`
	NeedsCategory bool              `json:"needsCategory"`
	Expenses      []ExpenseResponse `json:"expenses"`
	Summary       SummaryResponse   `json:"summary"`
}

type ExportResponse struct {
	Rows       int    `json:"rows"`
	Key        string `json:"key,omitempty"`
	Location   string `json:"location,omitempty"`
	URL        string `json:"url,omitempty"`
	SheetRange string `json:"sheetRange,omitempty"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func expenseToResponse(e domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount.StringFixed(2),
		Category:    e.Category,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

func expensesToResponse(expenses []domain.Expense) []ExpenseResponse {
	resp := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		resp[i] = expenseToResponse(expenses[i])
	}
	return resp
}

func summaryToResponse(agg domain.Aggregates) SummaryResponse {
	resp := SummaryResponse{
		Total:  agg.Total.StringFixed(2),
		Groups: make([]CategoryTotalResponse, len(agg.Groups)),
		Chart:  make([]ChartPoint, len(agg.Groups)),
	}
	for i, g := range agg.Groups {
		resp.Groups[i] = CategoryTotalResponse{
			Category: g.Category,
			Amount:   g.Amount.StringFixed(2),
			Count:    g.Count,
		}
		resp.Chart[i] = ChartPoint{Name: g.Category, Value: g.Amount.InexactFloat64()}
	}
	return resp
}
