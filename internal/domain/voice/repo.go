package voice

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Transcript) error
	GetByInteraction(ctx context.Context, interactionID uuid.UUID) (*Transcript, error)
	AppendSegment(ctx context.Context, transcriptID uuid.UUID, seg Segment) error
}
