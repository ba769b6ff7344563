package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"smartdoor/internal/door/models"
	id "smartdoor/pkg/domain"
)

// PostgresStore persists audit entries in PostgreSQL. Append-only: there is
// deliberately no update or delete path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO audit_entries (id, door_id, actor, action, outcome, occurred_at, device, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID.String(),
		entry.DoorID.String(),
		entry.Actor.String(),
		string(entry.Action),
		string(entry.Outcome),
		entry.Timestamp,
		entry.Device,
		entry.Message,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `
		SELECT id, door_id, actor, action, outcome, occurred_at, device, message
		FROM audit_entries
		WHERE ($1::uuid IS NULL OR door_id = $1)
		  AND ($2::uuid IS NULL OR actor = $2)
		ORDER BY occurred_at, id
	`
	var doorID, actor *string
	if filter.DoorID != nil {
		v := filter.DoorID.String()
		doorID = &v
	}
	if filter.Actor != nil {
		v := filter.Actor.String()
		actor = &v
	}

	rows, err := s.db.QueryContext(ctx, query, doorID, actor)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var entryID, door, subject, action, outcome string
		if err := rows.Scan(&entryID, &door, &subject, &action, &outcome, &e.Timestamp, &e.Device, &e.Message); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		parsedID, err := uuid.Parse(entryID)
		if err != nil {
			return nil, fmt.Errorf("corrupt audit id %q: %w", entryID, err)
		}
		parsedDoor, err := id.ParseDoorID(door)
		if err != nil {
			return nil, fmt.Errorf("corrupt audit door %q: %w", door, err)
		}
		parsedActor, err := id.ParseSubjectID(subject)
		if err != nil {
			return nil, fmt.Errorf("corrupt audit actor %q: %w", subject, err)
		}
		e.ID = parsedID
		e.DoorID = parsedDoor
		e.Actor = parsedActor
		e.Action = models.Action(action)
		e.Outcome = Outcome(outcome)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	return entries, nil
}

// EnsureSchema creates the audit_entries table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_entries (
			id          UUID PRIMARY KEY,
			door_id     UUID NOT NULL,
			actor       UUID NOT NULL,
			action      TEXT NOT NULL,
			outcome     TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL,
			device      TEXT NOT NULL DEFAULT '',
			message     TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure audit_entries schema: %w", err)
	}
	return nil
}
