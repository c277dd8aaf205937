package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.345", 1234, true}, // rounds down
		{"12.346", 1235, true}, // rounds up
		{"0.01", 1, true},
		{"1000", 100000, true},
		{" 7.5 ", 750, true},
		{"", 0, false},
		{"0", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
	}
	for i, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("case %d (%q): unexpected error %v", i, tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("case %d (%q): got %d, want %d", i, tc.in, got, tc.want)
			}
			continue
		}
		if err == nil {
			t.Fatalf("case %d (%q): expected error", i, tc.in)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 1500}
	b := Money{Cents: 200}
	if got := a.Add(b); got.Cents != 1700 {
		t.Fatalf("Add = %d, want 1700", got.Cents)
	}
	if got := a.Sub(b); got.Cents != 1300 {
		t.Fatalf("Sub = %d, want 1300", got.Cents)
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{5, "0.05"},
		{-800, "-8.00"},
		{0, "0.00"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}
