package access

import (
	"context"

	id "smartdoor/pkg/domain"
)

// Store abstracts grant persistence. Stores are pure I/O; the fallback
// provisioning policy lives in the Resolver.
type Store interface {
	// ListBySubject returns the subject's grants in stable
	// (granted_at, door_id) order.
	ListBySubject(ctx context.Context, subjectID id.SubjectID) ([]*Grant, error)

	// Upsert inserts the grant if no grant exists for its
	// (subject_id, door_id) pair; an existing pair is left untouched, so the
	// operation is idempotent and the original granted_at wins.
	Upsert(ctx context.Context, grant *Grant) error

	// Exists reports whether an explicit grant exists for the pair.
	Exists(ctx context.Context, subjectID id.SubjectID, doorID id.DoorID) (bool, error)
}
