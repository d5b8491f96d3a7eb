package interaction

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, i *Interaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Interaction, error)
	// FindActiveByDoctor returns the doctor's open interaction, or ErrNotFound.
	FindActiveByDoctor(ctx context.Context, tenantID, doctorID uuid.UUID) (*Interaction, error)
	Close(ctx context.Context, id uuid.UUID) (*Interaction, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Interaction, int, error)
}
