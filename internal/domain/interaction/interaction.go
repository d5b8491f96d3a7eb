// Package interaction tracks doctor-patient encounters. An interaction is
// the anchor every transcript and AI summary hangs off, and the unit the
// tenant boundary is enforced against.
package interaction

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

type Interaction struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	DoctorID  uuid.UUID  `json:"doctor_id"`
	Status    Status     `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}
