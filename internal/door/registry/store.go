// Package registry is the source of truth for door records. Stores are pure
// I/O; command validation and audit live in the door service.
package registry

import (
	"context"
	"time"

	"smartdoor/internal/door/models"
	id "smartdoor/pkg/domain"
)

// Store abstracts door persistence so the service can run against memory in
// tests and PostgreSQL in production.
//
// ApplyTransition and ReportHealth must be linearizable per door: concurrent
// mutations of the same door may not interleave partial updates, while
// mutations of different doors proceed independently.
type Store interface {
	// Get returns the door or sentinel.ErrNotFound.
	Get(ctx context.Context, doorID id.DoorID) (*models.Door, error)

	// List returns all doors in stable (name, id) order.
	List(ctx context.Context) ([]*models.Door, error)

	// ApplyTransition sets the lock state implied by action and stamps
	// last_update, returning the updated door.
	ApplyTransition(ctx context.Context, doorID id.DoorID, action models.Action, now time.Time) (*models.Door, error)

	// ReportHealth records a battery reading from the device health feed.
	ReportHealth(ctx context.Context, doorID id.DoorID, batteryLevel int, now time.Time) (*models.Door, error)

	// Create registers a new door; sentinel.ErrConflict if the ID exists.
	Create(ctx context.Context, door *models.Door) error
}
