package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-tracker/internal/domain"
)

func TestForExpenseEncodesRoundTrip(t *testing.T) {
	e := domain.Expense{
		ID:       "e1",
		OwnerID:  "u1",
		Amount:   decimal.RequireFromString("12.5"),
		Category: "food",
	}

	event := ForExpense(ExpenseCreated, e)
	assert.Equal(t, "12.50", event.Amount)
	assert.WithinDuration(t, time.Now(), event.OccurredAt, time.Minute)

	body, err := event.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"type":"expense.created"`)
	assert.Contains(t, string(body), `"expenseId":"e1"`)

	var decoded Event
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, event.OwnerID, decoded.OwnerID)
	assert.True(t, event.OccurredAt.Equal(decoded.OccurredAt))
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "expense.events.category.created", RoutingKey("expense.events", CategoryCreated))
	assert.Equal(t, "expense.deleted", RoutingKey("", ExpenseDeleted))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: ExpenseDeleted}))
	assert.NoError(t, p.Close())
}
