// Package invite implements one-shot, expiring invitations for onboarding
// staff into a tenant without an admin handling their password.
package invite

import (
	"time"

	"github.com/google/uuid"
)

// TTL is how long an invite stays redeemable.
const TTL = 48 * time.Hour

type Invite struct {
	ID         uuid.UUID  `json:"id"`
	TenantID   uuid.UUID  `json:"tenant_id"`
	Email      string     `json:"email"`
	RoleName   string     `json:"role_name"`
	Token      string     `json:"token,omitempty"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

func (i *Invite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

func (i *Invite) Accepted() bool {
	return i.AcceptedAt != nil
}
