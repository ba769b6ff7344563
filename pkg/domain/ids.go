// Package domain holds shared domain primitives: typed identifiers that make
// cross-entity mixups a compile error, parsed and validated at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "smartdoor/pkg/domain-errors"
)

// Typed IDs. Distinct types so a SubjectID can never be passed where a DoorID
// is expected.
type (
	// SubjectID identifies an authenticated actor (the JWT subject).
	SubjectID uuid.UUID

	// DoorID identifies a physical door in the registry.
	DoorID uuid.UUID

	// GrantID identifies an access grant record.
	GrantID uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	// uuid.Parse accepts only canonical forms; anything longer is rejected
	// before parsing to bound work on hostile input.
	if len(s) > 45 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid uuid")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil uuid")
	}
	return u, nil
}

// ParseSubjectID validates and returns a SubjectID.
func ParseSubjectID(s string) (SubjectID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SubjectID{}, err
	}
	return SubjectID(u), nil
}

// ParseDoorID validates and returns a DoorID.
func ParseDoorID(s string) (DoorID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return DoorID{}, err
	}
	return DoorID(u), nil
}

// ParseGrantID validates and returns a GrantID.
func ParseGrantID(s string) (GrantID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return GrantID{}, err
	}
	return GrantID(u), nil
}

func (id SubjectID) String() string { return uuid.UUID(id).String() }
func (id SubjectID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id DoorID) String() string { return uuid.UUID(id).String() }
func (id DoorID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id GrantID) String() string { return uuid.UUID(id).String() }

// Text marshalling so typed IDs serialize as canonical uuid strings in JSON
// and log output instead of raw byte arrays.

func (id SubjectID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *SubjectID) UnmarshalText(b []byte) error {
	parsed, err := ParseSubjectID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id DoorID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *DoorID) UnmarshalText(b []byte) error {
	parsed, err := ParseDoorID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id GrantID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *GrantID) UnmarshalText(b []byte) error {
	parsed, err := ParseGrantID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewGrantID mints a fresh grant identifier.
func NewGrantID() GrantID { return GrantID(uuid.New()) }
