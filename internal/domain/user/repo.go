package user

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	// GetByEmail looks up across tenants; emails are globally unique so a
	// login request does not need to name its tenant.
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*User, int, error)
}
