package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the same whole-state load/save contract as the JSON
// store, but writes through a real database: Save replaces every row and
// the balance scalar inside a single transaction.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (ledger.State, error) {
	var state ledger.State

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, amount_cents, kind, category, recorded_at, note
		 FROM transactions ORDER BY position`)
	if err != nil {
		return ledger.State{}, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, kind, category, recordedAt, note string
			amountCents                          int64
		)
		if err := rows.Scan(&id, &amountCents, &kind, &category, &recordedAt, &note); err != nil {
			return ledger.State{}, fmt.Errorf("scan transaction: %w", err)
		}
		k, err := core.ParseKind(kind)
		if err != nil {
			return ledger.State{}, fmt.Errorf("transaction %s: kind %q: %w", id, kind, err)
		}
		ts, err := time.Parse(time.RFC3339, recordedAt)
		if err != nil {
			return ledger.State{}, fmt.Errorf("transaction %s: recorded_at %q: %w", id, recordedAt, err)
		}
		state.Transactions = append(state.Transactions, core.Transaction{
			ID:         id,
			Amount:     core.Money{Cents: amountCents},
			Kind:       k,
			Category:   category,
			RecordedAt: ts,
			Note:       note,
		})
	}
	if err := rows.Err(); err != nil {
		return ledger.State{}, fmt.Errorf("iterate transactions: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT balance_cents FROM ledger_meta WHERE id = 1`).Scan(&state.Balance.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return ledger.State{}, fmt.Errorf("query balance: %w", err)
	}
	return state, nil
}

func (s *SQLiteStore) Save(ctx context.Context, state ledger.State) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	for i, tx := range state.Transactions {
		_, err := dbtx.ExecContext(ctx,
			`INSERT INTO transactions (position, id, amount_cents, kind, category, recorded_at, note)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i, tx.ID, tx.Amount.Cents, string(tx.Kind), tx.Category,
			tx.RecordedAt.Format(time.RFC3339), tx.Note)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
	}

	_, err = dbtx.ExecContext(ctx,
		`INSERT INTO ledger_meta (id, balance_cents) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET balance_cents = excluded.balance_cents`,
		state.Balance.Cents)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
