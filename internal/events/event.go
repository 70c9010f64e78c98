package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"expense-tracker/internal/domain"
)

// Type names the change an Event describes. It doubles as the routing key
// suffix on the broker.
type Type string

const (
	ExpenseCreated  Type = "expense.created"
	ExpenseUpdated  Type = "expense.updated"
	ExpenseDeleted  Type = "expense.deleted"
	CategoryCreated Type = "category.created"
)

// Event is a change notification emitted after a successful write.
type Event struct {
	Type       Type      `json:"type"`
	OwnerID    string    `json:"ownerId"`
	ExpenseID  string    `json:"expenseId,omitempty"`
	Category   string    `json:"category,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// ForExpense builds an event describing e.
func ForExpense(t Type, e domain.Expense) Event {
	return Event{
		Type:       t,
		OwnerID:    e.OwnerID,
		ExpenseID:  e.ID,
		Category:   e.Category,
		Amount:     e.Amount.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	}
}

// Encode returns the wire form of the event.
func (e Event) Encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return body, nil
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
