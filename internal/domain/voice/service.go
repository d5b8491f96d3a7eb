package voice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/interaction"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

var ErrInteractionClosed = errors.New("interaction is not active")

type Service struct {
	transcripts  Repository
	interactions interaction.Repository
	transcriber  Transcriber
	guard        *auth.TenantGuard
	logger       zerolog.Logger
}

func NewService(transcripts Repository, interactions interaction.Repository, transcriber Transcriber, guard *auth.TenantGuard, logger zerolog.Logger) *Service {
	return &Service{
		transcripts:  transcripts,
		interactions: interactions,
		transcriber:  transcriber,
		guard:        guard,
		logger:       logger,
	}
}

// Authorize runs the full access check at connection accept time, before any
// audio is read: the interaction must exist, belong to the caller's tenant
// and still be active. It returns the transcript the stream appends to,
// creating an empty one on first connect.
func (s *Service) Authorize(ctx context.Context, ident auth.Identity, interactionID uuid.UUID) (*Transcript, error) {
	i, err := s.interactions.GetByID(ctx, interactionID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Enforce(ctx, ident, i.TenantID.String()); err != nil {
		return nil, err
	}
	if i.Status != interaction.StatusActive {
		return nil, ErrInteractionClosed
	}

	t, err := s.transcripts.GetByInteraction(ctx, interactionID)
	if errors.Is(err, ErrNotFound) {
		now := time.Now().UTC()
		t = &Transcript{
			ID:            uuid.New(),
			TenantID:      i.TenantID,
			InteractionID: interactionID,
			Segments:      []Segment{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.transcripts.Create(ctx, t); err != nil {
			return nil, err
		}
		return t, nil
	}
	return t, err
}

// ProcessFrame transcribes one audio frame and appends the result. The
// context is the connection's context: once the client disconnects, a frame
// already in flight is transcribed but never persisted.
func (s *Service) ProcessFrame(ctx context.Context, t *Transcript, audio []byte) (Segment, error) {
	text, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return Segment{}, err
	}

	if err := ctx.Err(); err != nil {
		return Segment{}, err
	}

	seg := Segment{Timestamp: time.Now().UTC(), Text: text}
	if err := s.transcripts.AppendSegment(ctx, t.ID, seg); err != nil {
		return Segment{}, err
	}
	return seg, nil
}

// GetTranscript loads an interaction's transcript behind the tenant guard.
func (s *Service) GetTranscript(ctx context.Context, ident auth.Identity, interactionID uuid.UUID) (*Transcript, error) {
	i, err := s.interactions.GetByID(ctx, interactionID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Enforce(ctx, ident, i.TenantID.String()); err != nil {
		return nil, err
	}
	return s.transcripts.GetByInteraction(ctx, interactionID)
}
