// Package access resolves which doors a subject may operate. Grants are
// created by an external provisioning process or, under the auto-provision
// policy, by this resolver's fallback; they are never deleted here.
package access

import (
	"time"

	id "smartdoor/pkg/domain"
)

// Grant permits a subject to operate a specific door. Grants are idempotent
// keyed by (subject_id, door_id); re-granting keeps the original granted_at.
type Grant struct {
	ID        id.GrantID   `json:"id"`
	SubjectID id.SubjectID `json:"subject_id"`
	DoorID    id.DoorID    `json:"door_id"`
	GrantedAt time.Time    `json:"granted_at"`
}
