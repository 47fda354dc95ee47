package events

import (
	"encoding/json"
	"time"

	"expense-ledger/internal/models"
)

// ExpenseCreatedEvent is the payload announced after a fresh expense is stored.
// Replays are never announced.
type ExpenseCreatedEvent struct {
	ID          int64     `json:"id"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseCreatedEvent builds the event for a stored expense
func NewExpenseCreatedEvent(expense *models.Expense) *ExpenseCreatedEvent {
	return &ExpenseCreatedEvent{
		ID:          expense.ID,
		Amount:      expense.FormattedAmount(),
		Category:    string(expense.Category),
		Description: expense.Description,
		Date:        expense.Date.String(),
		CreatedAt:   expense.CreatedAt,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *ExpenseCreatedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseCreatedEventFromJSON decodes an event published by this service
func ExpenseCreatedEventFromJSON(data []byte) (*ExpenseCreatedEvent, error) {
	var event ExpenseCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
