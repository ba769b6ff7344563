package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"smartdoor/internal/door/models"
	id "smartdoor/pkg/domain"
	"smartdoor/pkg/platform/sentinel"
)

// PostgresStore persists doors in PostgreSQL. Mutations are single atomic
// UPDATE ... RETURNING statements, so per-door linearizability comes from
// row-level locking rather than application locks.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const doorColumns = `id, name, location, locked, battery_level, last_update`

func scanDoor(row interface{ Scan(...any) error }) (*models.Door, error) {
	var d models.Door
	var doorID string
	if err := row.Scan(&doorID, &d.Name, &d.Location, &d.Locked, &d.BatteryLevel, &d.LastUpdate); err != nil {
		return nil, err
	}
	parsed, err := id.ParseDoorID(doorID)
	if err != nil {
		return nil, fmt.Errorf("corrupt door id %q: %w", doorID, err)
	}
	d.ID = parsed
	return &d, nil
}

func (s *PostgresStore) Get(ctx context.Context, doorID id.DoorID) (*models.Door, error) {
	query := `SELECT ` + doorColumns + ` FROM doors WHERE id = $1`
	door, err := scanDoor(s.db.QueryRowContext(ctx, query, doorID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get door: %w", err)
	}
	return door, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Door, error) {
	query := `SELECT ` + doorColumns + ` FROM doors ORDER BY name, id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list doors: %w", err)
	}
	defer rows.Close()

	var doors []*models.Door
	for rows.Next() {
		door, err := scanDoor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan door: %w", err)
		}
		doors = append(doors, door)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list doors: %w", err)
	}
	return doors, nil
}

func (s *PostgresStore) ApplyTransition(ctx context.Context, doorID id.DoorID, action models.Action, now time.Time) (*models.Door, error) {
	query := `
		UPDATE doors
		SET locked = $2, last_update = $3
		WHERE id = $1
		RETURNING ` + doorColumns
	door, err := scanDoor(s.db.QueryRowContext(ctx, query, doorID.String(), action.Locks(), now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("apply transition: %w", err)
	}
	return door, nil
}

func (s *PostgresStore) ReportHealth(ctx context.Context, doorID id.DoorID, batteryLevel int, now time.Time) (*models.Door, error) {
	query := `
		UPDATE doors
		SET battery_level = GREATEST(0, LEAST(100, $2::int)), last_update = $3
		WHERE id = $1
		RETURNING ` + doorColumns
	door, err := scanDoor(s.db.QueryRowContext(ctx, query, doorID.String(), batteryLevel, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("report health: %w", err)
	}
	return door, nil
}

func (s *PostgresStore) Create(ctx context.Context, door *models.Door) error {
	query := `
		INSERT INTO doors (id, name, location, locked, battery_level, last_update)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		door.ID.String(),
		door.Name,
		door.Location,
		door.Locked,
		door.BatteryLevel,
		door.LastUpdate,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create door: %w", err)
	}
	return nil
}
