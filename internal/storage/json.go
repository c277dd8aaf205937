package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"
)

// JSONStore persists the whole ledger state as a single JSON document.
// A missing file loads as a fresh empty state; saves replace the file
// atomically via a temp file and rename.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

type stateDoc struct {
	Transactions []transactionDoc `json:"transactions"`
	BalanceCents int64            `json:"balance_cents"`
}

type transactionDoc struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	RecordedAt  string `json:"recorded_at"` // RFC 3339
	Note        string `json:"note,omitempty"`
}

func (s *JSONStore) Load(_ context.Context) (ledger.State, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ledger.State{}, nil
	}
	if err != nil {
		return ledger.State{}, fmt.Errorf("read ledger file %s: %w", s.path, err)
	}

	var doc stateDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ledger.State{}, fmt.Errorf("parse ledger file %s: %w", s.path, err)
	}

	state := ledger.State{Balance: core.Money{Cents: doc.BalanceCents}}
	for i, td := range doc.Transactions {
		tx, err := td.toTransaction()
		if err != nil {
			return ledger.State{}, fmt.Errorf("ledger file %s, transaction %d: %w", s.path, i, err)
		}
		state.Transactions = append(state.Transactions, tx)
	}
	return state, nil
}

func (s *JSONStore) Save(_ context.Context, state ledger.State) error {
	doc := stateDoc{
		Transactions: make([]transactionDoc, 0, len(state.Transactions)),
		BalanceCents: state.Balance.Cents,
	}
	for _, tx := range state.Transactions {
		doc.Transactions = append(doc.Transactions, fromTransaction(tx))
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close ledger file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ledger file %s: %w", s.path, err)
	}
	return nil
}

func fromTransaction(tx core.Transaction) transactionDoc {
	return transactionDoc{
		ID:          tx.ID,
		AmountCents: tx.Amount.Cents,
		Kind:        string(tx.Kind),
		Category:    tx.Category,
		RecordedAt:  tx.RecordedAt.Format(time.RFC3339),
		Note:        tx.Note,
	}
}

func (td transactionDoc) toTransaction() (core.Transaction, error) {
	kind, err := core.ParseKind(td.Kind)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("kind %q: %w", td.Kind, err)
	}
	recordedAt, err := time.ParseInLocation(time.RFC3339, td.RecordedAt, time.Local)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("recorded_at %q: %w", td.RecordedAt, err)
	}
	return core.Transaction{
		ID:         td.ID,
		Amount:     core.Money{Cents: td.AmountCents},
		Kind:       kind,
		Category:   td.Category,
		RecordedAt: recordedAt,
		Note:       td.Note,
	}, nil
}
