package invite

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, i *Invite) error
	GetByToken(ctx context.Context, token string) (*Invite, error)
	// MarkAccepted claims the invite. It must only succeed when the row has
	// not been accepted yet; a second redeem of the same token fails.
	MarkAccepted(ctx context.Context, id uuid.UUID) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Invite, int, error)
}
