package summary

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Summary) error
	GetByID(ctx context.Context, id uuid.UUID) (*Summary, error)
	GetByInteraction(ctx context.Context, interactionID uuid.UUID) (*Summary, error)
	Approve(ctx context.Context, id, reviewedBy uuid.UUID, reviewedAt time.Time, final *StructuredNote) error
	Reject(ctx context.Context, id, reviewedBy uuid.UUID, reviewedAt time.Time, reason string) error
}
