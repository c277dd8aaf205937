// Package report derives read-only aggregate views from a ledger snapshot.
//
// Every query re-reads the full transaction set and recomputes from scratch;
// the engine holds no aggregate state of its own. Windows are trailing
// intervals [now - days, now] anchored on the injected clock.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbook/internal/core"
)

// TransactionSource supplies the current transaction snapshot, in insertion
// order. *ledger.Ledger satisfies it.
type TransactionSource interface {
	All() []core.Transaction
}

// Summary aggregates a trailing window into totals by kind.
type Summary struct {
	TotalIncome  core.Money
	TotalExpense core.Money
	Net          core.Money
	Count        int
}

// CategoryShare is one row of a per-category breakdown.
type CategoryShare struct {
	Category     string
	Amount       core.Money
	Count        int
	SharePercent float64 // share of the breakdown total, rounded to 2 places
}

// DailyFlow is one calendar date of the trend series.
type DailyFlow struct {
	Date    time.Time // midnight, local
	Income  core.Money
	Expense core.Money
	Net     core.Money
}

type Engine struct {
	source TransactionSource
	clock  core.Clock
}

func NewEngine(source TransactionSource, clock core.Clock) *Engine {
	if clock == nil {
		clock = core.SystemClock()
	}
	return &Engine{source: source, clock: clock}
}

// Summary totals income and expense over the trailing window. Zero or
// negative windows match nothing and yield an all-zero result.
func (e *Engine) Summary(windowDays int) Summary {
	var s Summary
	for _, tx := range e.window(windowDays) {
		switch tx.Kind {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
		}
		s.Count++
	}
	s.Net = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// CategoryBreakdown groups windowed transactions of one kind by category,
// ordered by amount descending. Equal amounts break lexicographically by
// category label. An empty group set returns an empty slice.
func (e *Engine) CategoryBreakdown(kind core.Kind, windowDays int) []CategoryShare {
	groups := make(map[string]*CategoryShare)
	var totalCents int64
	for _, tx := range e.window(windowDays) {
		if tx.Kind != kind {
			continue
		}
		g, ok := groups[tx.Category]
		if !ok {
			g = &CategoryShare{Category: tx.Category}
			groups[tx.Category] = g
		}
		g.Amount = g.Amount.Add(tx.Amount)
		g.Count++
		totalCents += tx.Amount.Cents
	}
	if len(groups) == 0 {
		return nil
	}

	rows := make([]CategoryShare, 0, len(groups))
	total := decimal.NewFromInt(totalCents)
	for _, g := range groups {
		g.SharePercent = decimal.NewFromInt(g.Amount.Cents).
			Mul(decimal.NewFromInt(100)).
			Div(total).
			Round(2).
			InexactFloat64()
		rows = append(rows, *g)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Amount.Cents != rows[j].Amount.Cents {
			return rows[i].Amount.Cents > rows[j].Amount.Cents
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

// DailyTrend buckets windowed transactions by calendar date, ascending.
// Only dates with at least one transaction appear; a date missing one kind
// reports zero for it.
func (e *Engine) DailyTrend(windowDays int) []DailyFlow {
	days := make(map[time.Time]*DailyFlow)
	for _, tx := range e.window(windowDays) {
		date := truncateToDate(tx.RecordedAt)
		d, ok := days[date]
		if !ok {
			d = &DailyFlow{Date: date}
			days[date] = d
		}
		switch tx.Kind {
		case core.Income:
			d.Income = d.Income.Add(tx.Amount)
		case core.Expense:
			d.Expense = d.Expense.Add(tx.Amount)
		}
	}
	if len(days) == 0 {
		return nil
	}

	rows := make([]DailyFlow, 0, len(days))
	for _, d := range days {
		d.Net = d.Income.Sub(d.Expense)
		rows = append(rows, *d)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}

// window returns the transactions whose timestamp falls in
// [now - windowDays, now]. For windowDays <= 0 the lower bound is at or
// beyond now, so nothing with a past timestamp matches.
func (e *Engine) window(windowDays int) []core.Transaction {
	now := e.clock.Now()
	start := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	var out []core.Transaction
	for _, tx := range e.source.All() {
		if tx.RecordedAt.Before(start) || tx.RecordedAt.After(now) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// truncateToDate drops the time of day and normalizes the calendar date to
// the local location. Persisted timestamps come back from RFC 3339 parsing
// with fixed-zone locations; without the normalization, equal dates in
// different zone representations would land in separate buckets.
func truncateToDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}
