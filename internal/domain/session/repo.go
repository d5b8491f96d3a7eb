package session

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Session) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Session, int, error)
}
