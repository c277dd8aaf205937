package core

import (
	"errors"
	"testing"
	"time"
)

func TestKindValidate(t *testing.T) {
	if err := Income.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Expense.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Kind("transfer").Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"income", Income, true},
		{"expense", Expense, true},
		{"Income", "", false},
		{"", "", false},
	}
	for i, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("case %d: got (%q, %v), want (%q, nil)", i, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d: expected error for %q", i, tc.in)
		}
	}
}

func TestKindSign(t *testing.T) {
	if Income.Sign() != 1 {
		t.Fatalf("income sign = %d, want 1", Income.Sign())
	}
	if Expense.Sign() != -1 {
		t.Fatalf("expense sign = %d, want -1", Expense.Sign())
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if err := (Money{Cents: -500}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:         "t1",
		Amount:     Money{Cents: 100},
		Kind:       Expense,
		Category:   "餐饮🍜",
		RecordedAt: time.Now(),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Amount: Money{Cents: 0}, Kind: Expense, Category: "c"},
		{Amount: Money{Cents: 1}, Kind: "other", Category: "c"},
		{Amount: Money{Cents: 1}, Kind: Income, Category: ""},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCategoriesFor(t *testing.T) {
	if len(CategoriesFor(Expense)) == 0 || len(CategoriesFor(Income)) == 0 {
		t.Fatal("expected non-empty suggested category sets")
	}
	// Returned slices are copies.
	cats := CategoriesFor(Income)
	cats[0] = "mutated"
	if CategoriesFor(Income)[0] == "mutated" {
		t.Fatal("CategoriesFor leaked internal slice")
	}
}
