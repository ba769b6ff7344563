package handler

import (
	id "smartdoor/pkg/domain"
	dErrors "smartdoor/pkg/domain-errors"
)

// ControlRequest is the wire shape of a door control command.
type ControlRequest struct {
	DoorID string `json:"door_id"`
	Action string `json:"action"`
}

// ParsedDoorID validates the door_id field. An absent field is a missing
// parameter; a present but malformed one is invalid input.
func (r ControlRequest) ParsedDoorID() (id.DoorID, error) {
	if r.DoorID == "" {
		return id.DoorID{}, dErrors.New(dErrors.CodeMissingParameters, "door_id is required")
	}
	doorID, err := id.ParseDoorID(r.DoorID)
	if err != nil {
		return id.DoorID{}, err
	}
	return doorID, nil
}
