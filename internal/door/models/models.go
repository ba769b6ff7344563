// Package models defines the door domain: door records, the command action
// vocabulary, and command results.
package models

import (
	"strings"
	"time"

	id "smartdoor/pkg/domain"
	dErrors "smartdoor/pkg/domain-errors"
)

// Action is the canonical internal command vocabulary.
type Action string

const (
	ActionLock   Action = "LOCK"
	ActionUnlock Action = "UNLOCK"
)

// actionAliases maps every accepted wire value to its canonical action. The
// mobile app historically sent Indonesian verbs; both vocabularies remain
// accepted on the wire.
var actionAliases = map[string]Action{
	"lock":   ActionLock,
	"kunci":  ActionLock,
	"unlock": ActionUnlock,
	"buka":   ActionUnlock,
}

// ParseAction normalizes a wire action to the canonical vocabulary. Anything
// outside {lock, unlock, kunci, buka} is rejected.
func ParseAction(s string) (Action, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeMissingParameters, "action is required")
	}
	if a, ok := actionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return a, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidAction, "invalid action: must be lock, unlock, kunci, or buka")
}

// IsValid reports whether the action is canonical.
func (a Action) IsValid() bool {
	return a == ActionLock || a == ActionUnlock
}

// Locks reports whether applying the action leaves the door locked.
func (a Action) Locks() bool {
	return a == ActionLock
}

func (a Action) String() string {
	return string(a)
}

// Door is a registry record for a physical door lock.
type Door struct {
	ID           id.DoorID `json:"id"`
	Name         string    `json:"name"`
	Location     string    `json:"location,omitempty"`
	Locked       bool      `json:"locked"`
	BatteryLevel int       `json:"battery_level"` // 0..100; 0 means offline
	LastUpdate   time.Time `json:"last_update"`
}

// Online reports whether the door can accept commands. A door with a depleted
// battery is offline and rejects everything.
func (d *Door) Online() bool {
	return d.BatteryLevel > 0
}

// AccessibleDoor is a door annotated with when the querying subject was
// granted access to it.
type AccessibleDoor struct {
	Door
	AccessGrantedAt time.Time `json:"access_granted_at"`
}

// CommandResult is returned to the caller after a successful control command.
type CommandResult struct {
	DoorID    id.DoorID `json:"door_id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Door      *Door     `json:"-"`
}
