package audit

import (
	"context"
	"log/slog"
)

// Sink receives mirrored audit entries (the Kafka notification publisher in
// production).
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}

// Worker drains the mirror channel into a sink. Publish failures are logged
// and dropped: the persisted audit log is the source of truth, the sink is a
// best-effort notification feed.
type Worker struct {
	sink   Sink
	inbox  <-chan Entry
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Entry, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.sink.Publish(ctx, entry); err != nil {
				w.logger.ErrorContext(ctx, "failed to publish audit entry",
					"error", err,
					"door_id", entry.DoorID,
					"outcome", entry.Outcome,
				)
			}
		}
	}
}
