// Package tenant manages clinic organizations. Tenants are the isolation
// boundary: every domain row carries a tenant_id and no query crosses it.
package tenant

import (
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
