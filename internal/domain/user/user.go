// Package user manages clinician and staff accounts. Every user belongs to
// exactly one tenant; the binding is set at creation and never changes.
package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleName     string    `json:"role_name"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}
