// Package ledger owns the durable transaction set and its running balance.
//
// The Ledger is the single writer of its state: every mutation adjusts the
// balance together with the record change and is written through to the
// Storage port before it becomes visible to readers.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledgerbook/internal/core"
	applog "ledgerbook/internal/log"
)

// State is the whole persisted ledger: insertion-ordered transactions plus
// the cached balance scalar.
type State struct {
	Transactions []core.Transaction
	Balance      core.Money
}

// Storage is the persistence port the Ledger depends on. Load returns the
// previously saved state, or a fresh empty state when nothing was persisted
// yet. Save overwrites the durable state with the full given state.
type Storage interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

// Ledger holds the in-memory state and writes every mutation through to
// storage. Methods are safe for concurrent use.
type Ledger struct {
	mu    sync.Mutex
	store Storage
	clock core.Clock
	state State
}

// Open loads the persisted state and returns a ready ledger handle.
func Open(ctx context.Context, store Storage, clock core.Clock) (*Ledger, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger state: %w", err)
	}
	if clock == nil {
		clock = core.SystemClock()
	}
	return &Ledger{store: store, clock: clock, state: state}, nil
}

// Append validates the arguments, creates a transaction with a fresh ID and
// the current timestamp, adjusts the balance and persists the new state.
// Nothing is observable by readers unless the durable write succeeded.
//
// The amount must be positive (ErrInvalidAmount), the kind one of the two
// known labels (ErrInvalidKind), and the category non-empty
// (ErrEmptyCategory). Category values are otherwise free-form; requiring a
// non-empty label is deliberately stricter than treating it as purely
// informal, so every record can be grouped in a breakdown.
func (l *Ledger) Append(ctx context.Context, amount core.Money, kind core.Kind, category, note string) (core.Transaction, error) {
	tx := core.Transaction{
		ID:         uuid.NewString(),
		Amount:     amount,
		Kind:       kind,
		Category:   category,
		RecordedAt: l.clock.Now().Truncate(time.Second),
		Note:       note,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := State{
		Transactions: append(append([]core.Transaction(nil), l.state.Transactions...), tx),
		Balance:      core.Money{Cents: l.state.Balance.Cents + kind.Sign()*amount.Cents},
	}
	if err := l.store.Save(ctx, next); err != nil {
		return core.Transaction{}, fmt.Errorf("persist ledger state: %w", err)
	}
	l.state = next

	slog.InfoContext(ctx, "Transaction recorded",
		applog.FieldTransactionID, tx.ID,
		applog.FieldKind, string(tx.Kind),
		applog.FieldCategory, tx.Category,
		applog.FieldAmountCents, tx.Amount.Cents,
		applog.FieldBalanceCents, next.Balance.Cents)

	return tx, nil
}

// Remove deletes the transaction with the given ID, reversing its effect on
// the balance. It returns false when no such transaction exists; that is an
// expected outcome, not an error, and leaves the state untouched.
func (l *Ledger) Remove(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i, tx := range l.state.Transactions {
		if tx.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	removed := l.state.Transactions[idx]
	remaining := make([]core.Transaction, 0, len(l.state.Transactions)-1)
	remaining = append(remaining, l.state.Transactions[:idx]...)
	remaining = append(remaining, l.state.Transactions[idx+1:]...)

	next := State{
		Transactions: remaining,
		Balance:      core.Money{Cents: l.state.Balance.Cents - removed.Kind.Sign()*removed.Amount.Cents},
	}
	if err := l.store.Save(ctx, next); err != nil {
		return false, fmt.Errorf("persist ledger state: %w", err)
	}
	l.state = next

	slog.InfoContext(ctx, "Transaction removed",
		applog.FieldTransactionID, removed.ID,
		applog.FieldKind, string(removed.Kind),
		applog.FieldAmountCents, removed.Amount.Cents,
		applog.FieldBalanceCents, next.Balance.Cents)

	return true, nil
}

// All returns a snapshot of the transactions in insertion order.
func (l *Ledger) All() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.state.Transactions...)
}

// Balance returns the maintained running balance without recomputing it.
func (l *Ledger) Balance() core.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Balance
}
