package worker

import (
	"context"
	"fmt"
	"log/slog"

	"ledgerbook/internal/amqp"
	"ledgerbook/internal/audit"
)

// TrailAppender receives audit entries. *audit.Trail satisfies it.
type TrailAppender interface {
	Append(e audit.Entry) error
}

// AuditWorker consumes transaction events and appends them to the audit
// trail.
type AuditWorker struct {
	trail TrailAppender
}

func NewAuditWorker(trail TrailAppender) *AuditWorker {
	return &AuditWorker{trail: trail}
}

// HandleEvent processes a single transaction event from AMQP.
func (w *AuditWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"action", ev.Action,
		"id", ev.ID)

	if ev.Action != amqp.ActionRecorded && ev.Action != amqp.ActionRemoved {
		return fmt.Errorf("unknown action %q", ev.Action)
	}

	if err := w.trail.Append(audit.EntryFromEvent(ev)); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	slog.InfoContext(ctx, "Audit entry written",
		"action", ev.Action,
		"id", ev.ID)

	return nil
}
