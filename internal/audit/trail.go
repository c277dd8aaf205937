// Package audit keeps an append-only CSV trail of ledger mutations.
package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"ledgerbook/internal/amqp"
)

// Header is the CSV header for the audit trail file.
const Header = "emitted_at,action,transaction_id,kind,amount_cents,category,note,recorded_at"

const (
	numFields     = 8
	colEmittedAt  = 0
	colAction     = 1
	colID         = 2
	colKind       = 3
	colAmount     = 4
	colCategory   = 5
	colNote       = 6
	colRecordedAt = 7
)

// Entry is one row of the audit trail.
type Entry struct {
	EmittedAt   time.Time
	Action      string
	ID          string
	Kind        string
	AmountCents int64
	Category    string
	Note        string
	RecordedAt  time.Time
}

// EntryFromEvent converts a transaction event into an audit entry.
func EntryFromEvent(ev *amqp.TransactionEvent) Entry {
	return Entry{
		EmittedAt:   ev.EmittedAt,
		Action:      ev.Action,
		ID:          ev.ID,
		Kind:        ev.Kind,
		AmountCents: ev.AmountCents,
		Category:    ev.Category,
		Note:        ev.Note,
		RecordedAt:  ev.RecordedAt,
	}
}

// MarshalEntry converts an Entry to a CSV row ([]string).
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colEmittedAt] = e.EmittedAt.Format(time.RFC3339)
	row[colAction] = e.Action
	row[colID] = e.ID
	row[colKind] = e.Kind
	row[colAmount] = strconv.FormatInt(e.AmountCents, 10)
	row[colCategory] = e.Category
	row[colNote] = e.Note
	row[colRecordedAt] = e.RecordedAt.Format(time.RFC3339)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	emittedAt, err := time.Parse(time.RFC3339, record[colEmittedAt])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing emitted_at %q: %w", record[colEmittedAt], err)
	}

	recordedAt, err := time.Parse(time.RFC3339, record[colRecordedAt])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing recorded_at %q: %w", record[colRecordedAt], err)
	}

	amount, err := strconv.ParseInt(record[colAmount], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing amount_cents %q: %w", record[colAmount], err)
	}

	return Entry{
		EmittedAt:   emittedAt,
		Action:      record[colAction],
		ID:          record[colID],
		Kind:        record[colKind],
		AmountCents: amount,
		Category:    record[colCategory],
		Note:        record[colNote],
		RecordedAt:  recordedAt,
	}, nil
}

// ReadEntries reads all entries from an audit trail reader.
func ReadEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Trail appends entries to a CSV file, writing the header on first use.
// Safe for concurrent use.
type Trail struct {
	mu   sync.Mutex
	path string
}

// NewTrail returns a trail writing to the given file path.
func NewTrail(path string) *Trail {
	return &Trail{path: path}
}

// Append adds one entry to the end of the trail file. The file and its
// directory are created on first append.
func (t *Trail) Append(e Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("creating audit dir: %w", err)
	}

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit trail: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat audit trail: %w", err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(MarshalEntry(e)); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// Entries reads back everything appended so far. A missing file yields an
// empty trail.
func (t *Trail) Entries() ([]Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening audit trail: %w", err)
	}
	defer f.Close()

	return ReadEntries(f)
}
