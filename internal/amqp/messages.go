package amqp

import (
	"encoding/json"
	"time"
)

// Actions carried by a TransactionEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent is a lightweight message emitted after a ledger write.
// It carries only identifiers and the affected month; the worker fetches
// whatever it needs from the database.
type TransactionEvent struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	AccountID     string    `json:"account_id"`
	Action        string    `json:"action"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent builds an event for a ledger write that touched the
// given month.
func NewTransactionEvent(txID, userID, accountID, action string, date time.Time) *TransactionEvent {
	return &TransactionEvent{
		TransactionID: txID,
		UserID:        userID,
		AccountID:     accountID,
		Action:        action,
		Year:          date.Year(),
		Month:         int(date.Month()),
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON creates an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
