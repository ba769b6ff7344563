package audit

import "context"

// Store abstracts audit persistence. Append must be O(1) and must never
// mutate prior entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	Query(ctx context.Context, filter Filter) ([]Entry, error)
}
