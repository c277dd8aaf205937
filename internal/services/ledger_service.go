package services

import (
	"context"
	"fmt"
	"log/slog"

	"ledgerbook/internal/amqp"
	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"
)

// EventPublisher publishes ledger mutation events. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
	Close() error
}

// LedgerService orchestrates ledger mutations and event publishing. The
// ledger write is authoritative; publishing is best effort and never fails
// the request.
type LedgerService struct {
	ledger    *ledger.Ledger
	publisher EventPublisher
}

func NewLedgerService(l *ledger.Ledger, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		ledger:    l,
		publisher: publisher,
	}
}

// Record appends a transaction to the ledger and publishes a recorded event.
func (s *LedgerService) Record(ctx context.Context, amount core.Money, kind core.Kind, category, note string) (core.Transaction, error) {
	tx, err := s.ledger.Append(ctx, amount, kind, category, note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}

	if err := s.publishEvent(ctx, amqp.ActionRecorded, tx); err != nil {
		slog.ErrorContext(ctx, "Failed to publish recorded event",
			"id", tx.ID, "error", err)
		// Don't fail the request - the transaction is saved locally
	}

	return tx, nil
}

// Delete removes a transaction from the ledger and publishes a removed
// event. It returns false when no transaction has the given ID.
func (s *LedgerService) Delete(ctx context.Context, id string) (bool, error) {
	tx, found := s.find(id)
	if !found {
		return false, nil
	}

	removed, err := s.ledger.Remove(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	if !removed {
		return false, nil
	}

	if err := s.publishEvent(ctx, amqp.ActionRemoved, tx); err != nil {
		slog.ErrorContext(ctx, "Failed to publish removed event",
			"id", id, "error", err)
		// Don't fail the request - the transaction is deleted locally
	}

	return true, nil
}

// Transactions returns a snapshot of all transactions in insertion order.
func (s *LedgerService) Transactions() []core.Transaction {
	return s.ledger.All()
}

// Balance returns the current running balance.
func (s *LedgerService) Balance() core.Money {
	return s.ledger.Balance()
}

func (s *LedgerService) find(id string) (core.Transaction, bool) {
	for _, tx := range s.ledger.All() {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}

func (s *LedgerService) publishEvent(ctx context.Context, action string, tx core.Transaction) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping event", "action", action)
		return nil
	}

	return s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(action, tx))
}

// Close closes the event publisher connection.
func (s *LedgerService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
