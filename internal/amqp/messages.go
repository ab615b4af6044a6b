package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

type EventKind string

func (k EventKind) IsValid() bool {
	return k == EventCreated || k == EventUpdated || k == EventDeleted
}

// TransactionEvent announces a committed mutation. It carries identifiers
// only; consumers read the current row from the database.
type TransactionEvent struct {
	Kind      EventKind `json:"kind"`
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(kind EventKind, userID string, id uuid.UUID) TransactionEvent {
	return TransactionEvent{
		Kind:      kind,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

func (e TransactionEvent) Validate() error {
	if !e.Kind.IsValid() {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.ID == uuid.Nil {
		return errors.New("event without transaction id")
	}
	if e.UserID == "" {
		return errors.New("event without user id")
	}
	return nil
}

func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates an event body.
func TransactionEventFromJSON(data []byte) (TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return TransactionEvent{}, err
	}
	if err := e.Validate(); err != nil {
		return TransactionEvent{}, err
	}
	return e, nil
}
