package storage

import (
	"context"
	"path/filepath"
	"testing"

	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreFreshDatabaseLoadsEmpty(t *testing.T) {
	store := newTestSQLiteStore(t)
	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(state.Transactions) != 0 || state.Balance.Cents != 0 {
		t.Fatalf("expected fresh empty state, got %+v", state)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	want := sampleState()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertStatesEqual(t, got, want)
}

func TestSQLiteStoreSaveReplacesState(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, sampleState()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	next := sampleState()
	next.Transactions = next.Transactions[:1]
	next.Balance = core.Money{Cents: 100000}
	if err := store.Save(ctx, next); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertStatesEqual(t, got, next)
}

func TestSQLiteStorePreservesInsertionOrder(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	state := sampleState()
	// Insertion order differs from chronological order on purpose.
	state.Transactions[0], state.Transactions[1] = state.Transactions[1], state.Transactions[0]
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertStatesEqual(t, got, state)
}

func TestSQLiteStoreWorksWithLedger(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	l, err := ledger.Open(ctx, store, core.SystemClock())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := l.Append(ctx, core.Money{Cents: 1500}, core.Income, "兼职💼", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// A second handle over the same database sees the persisted state.
	l2, err := ledger.Open(ctx, store, core.SystemClock())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := l2.Balance().Cents; got != 1500 {
		t.Fatalf("reloaded balance = %d, want 1500", got)
	}
}
