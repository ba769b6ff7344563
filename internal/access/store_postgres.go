package access

import (
	"context"
	"database/sql"
	"fmt"

	id "smartdoor/pkg/domain"
)

// PostgresStore persists grants in PostgreSQL. Idempotency is enforced by the
// (subject_id, door_id) unique constraint plus ON CONFLICT DO NOTHING, so
// concurrent provisioning cannot create duplicates.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID id.SubjectID) ([]*Grant, error) {
	query := `
		SELECT id, subject_id, door_id, granted_at
		FROM access_grants
		WHERE subject_id = $1
		ORDER BY granted_at, door_id
	`
	rows, err := s.db.QueryContext(ctx, query, subjectID.String())
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	var grants []*Grant
	for rows.Next() {
		var g Grant
		var grantID, subject, door string
		if err := rows.Scan(&grantID, &subject, &door, &g.GrantedAt); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		parsedSubject, err := id.ParseSubjectID(subject)
		if err != nil {
			return nil, fmt.Errorf("corrupt grant subject %q: %w", subject, err)
		}
		parsedDoor, err := id.ParseDoorID(door)
		if err != nil {
			return nil, fmt.Errorf("corrupt grant door %q: %w", door, err)
		}
		parsedGrant, err := id.ParseGrantID(grantID)
		if err != nil {
			return nil, fmt.Errorf("corrupt grant id %q: %w", grantID, err)
		}
		g.ID = parsedGrant
		g.SubjectID = parsedSubject
		g.DoorID = parsedDoor
		grants = append(grants, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	return grants, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, grant *Grant) error {
	query := `
		INSERT INTO access_grants (id, subject_id, door_id, granted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject_id, door_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		grant.ID.String(),
		grant.SubjectID.String(),
		grant.DoorID.String(),
		grant.GrantedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert grant: %w", err)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, subjectID id.SubjectID, doorID id.DoorID) (bool, error) {
	query := `SELECT 1 FROM access_grants WHERE subject_id = $1 AND door_id = $2`
	var one int
	err := s.db.QueryRowContext(ctx, query, subjectID.String(), doorID.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("grant exists: %w", err)
	}
	return true, nil
}

// EnsureSchema creates the access_grants table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS access_grants (
			id         UUID PRIMARY KEY,
			subject_id UUID NOT NULL,
			door_id    UUID NOT NULL,
			granted_at TIMESTAMPTZ NOT NULL,
			UNIQUE (subject_id, door_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure access_grants schema: %w", err)
	}
	return nil
}
