package handler

import (
	"time"

	"smartdoor/internal/door/models"
)

// Envelope is the success wrapper the mobile client expects on every door
// endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// ControlData is the data payload for a completed control command.
type ControlData struct {
	DoorID     string     `json:"door_id"`
	Action     string     `json:"action"`
	Timestamp  string     `json:"timestamp"`
	Message    string     `json:"message"`
	DoorStatus DoorStatus `json:"door_status"`
}

// DoorStatus is the post-command door state the mobile client renders.
type DoorStatus struct {
	Locked     bool      `json:"locked"`
	LastUpdate time.Time `json:"last_update"`
}

// FromCommandResult shapes a command result for the wire.
func FromCommandResult(result *models.CommandResult) Envelope {
	return Envelope{
		Success: true,
		Data: ControlData{
			DoorID:    result.DoorID.String(),
			Action:    result.Action.String(),
			Timestamp: result.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
			Message:   result.Message,
			DoorStatus: DoorStatus{
				Locked:     result.Door.Locked,
				LastUpdate: result.Door.LastUpdate,
			},
		},
		Message: result.Message,
	}
}

// FromAccessibleDoors shapes the status listing for the wire. An empty list is
// a valid response, not an error.
func FromAccessibleDoors(doors []models.AccessibleDoor) Envelope {
	if doors == nil {
		doors = []models.AccessibleDoor{}
	}
	env := Envelope{
		Success: true,
		Data:    doors,
		Message: "User accessible doors retrieved successfully",
	}
	if len(doors) == 0 {
		env.Message = "No doors accessible for this user"
	}
	return env
}
