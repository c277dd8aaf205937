package core

import (
	"errors"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind is the closed two-variant transaction tag. It determines the
	// sign a transaction applies to the running balance.
	Kind string

	Money struct {
		Cents int64
	}

	// Transaction is an immutable ledger record. ID and RecordedAt are
	// assigned when the record is created, never by the caller.
	Transaction struct {
		ID         string
		Amount     Money
		Kind       Kind
		Category   string
		RecordedAt time.Time // second resolution
		Note       string
	}
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidKind   = errors.New("invalid transaction kind")
	ErrEmptyCategory = errors.New("empty category")
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

// ParseKind maps a wire label ("income" or "expense") to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

// Sign returns +1 for income and -1 for expense.
func (k Kind) Sign() int64 {
	if k == Expense {
		return -1
	}
	return 1
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if t.Category == "" {
		return ErrEmptyCategory
	}
	return nil
}
