// Package audit records executed door commands. Entries are immutable once
// created and the log is append-only: no deduplication, no mutation, no
// deletion.
package audit

import (
	"time"

	"github.com/google/uuid"

	"smartdoor/internal/door/models"
	id "smartdoor/pkg/domain"
)

// Outcome classifies how a command ended.
type Outcome string

const (
	OutcomeSuccess     Outcome = "SUCCESS"
	OutcomeDenied      Outcome = "DENIED"
	OutcomeDeviceError Outcome = "DEVICE_ERROR"
)

// IsValid reports whether the outcome is one of the supported values.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSuccess, OutcomeDenied, OutcomeDeviceError:
		return true
	}
	return false
}

// Entry is one audit record. Keep it transport-agnostic so stores and sinks
// can fan out.
type Entry struct {
	ID        uuid.UUID     `json:"id"`
	DoorID    id.DoorID     `json:"door_id"`
	Actor     id.SubjectID  `json:"actor"`
	Action    models.Action `json:"action"`
	Outcome   Outcome       `json:"outcome"`
	Timestamp time.Time     `json:"timestamp"`
	Device    string        `json:"device,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// Filter narrows a query; nil fields match everything.
type Filter struct {
	DoorID *id.DoorID
	Actor  *id.SubjectID
}
