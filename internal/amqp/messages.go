package amqp

import (
	"encoding/json"
	"time"

	"ledgerbook/internal/core"
)

const (
	ActionRecorded = "recorded"
	ActionRemoved  = "removed"
)

// TransactionEvent announces a completed ledger mutation. It carries the
// full record so consumers (the audit worker) never need to reach back into
// the ledger's storage.
type TransactionEvent struct {
	Action      string    `json:"action"` // "recorded" or "removed"
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Note        string    `json:"note,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
	EmittedAt   time.Time `json:"emitted_at"`
}

// NewTransactionEvent builds an event for a mutation on tx.
func NewTransactionEvent(action string, tx core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Action:      action,
		ID:          tx.ID,
		Kind:        string(tx.Kind),
		AmountCents: tx.Amount.Cents,
		Category:    tx.Category,
		Note:        tx.Note,
		RecordedAt:  tx.RecordedAt,
		EmittedAt:   time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON creates an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
