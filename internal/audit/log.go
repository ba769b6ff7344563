package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"smartdoor/pkg/requestcontext"
)

// Log is the append/query facade the rest of the service uses. Appends are
// synchronous against the store (a command produces exactly one persisted
// entry before its response is written); external sinks get a best-effort
// copy via the mirror channel.
type Log struct {
	store  Store
	mirror chan<- Entry
	logger *slog.Logger
}

// Option configures the Log.
type Option func(*Log)

// WithMirror forwards a copy of every appended entry to the channel, feeding
// the notification worker. Sends never block: if the sink is saturated the
// copy is dropped and counted, the persisted entry is unaffected.
func WithMirror(mirror chan<- Entry) Option {
	return func(l *Log) { l.mirror = mirror }
}

// WithLogger sets a logger for mirror drop reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// NewLog constructs the audit facade over a store.
func NewLog(store Store, opts ...Option) *Log {
	l := &Log{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append persists an entry, stamping ID and timestamp when unset.
func (l *Log) Append(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx).UTC()
	}
	if err := l.store.Append(ctx, entry); err != nil {
		return err
	}
	if l.mirror != nil {
		select {
		case l.mirror <- entry:
		default:
			l.logger.WarnContext(ctx, "audit mirror saturated, dropping copy",
				"door_id", entry.DoorID,
				"outcome", entry.Outcome,
			)
		}
	}
	return nil
}

// Query returns entries matching the filter, oldest first.
func (l *Log) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	return l.store.Query(ctx, filter)
}
