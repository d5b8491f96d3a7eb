package summary

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/interaction"
	"github.com/clinicore/clinicore/internal/domain/voice"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

// ErrNoTranscript means no audio was ever transcribed for the interaction;
// there is nothing to summarize.
var ErrNoTranscript = errors.New("no transcript for interaction")

type Service struct {
	repo         Repository
	transcripts  voice.Repository
	interactions interaction.Repository
	summarizer   Summarizer
	guard        *auth.TenantGuard
	logger       zerolog.Logger
}

func NewService(repo Repository, transcripts voice.Repository, interactions interaction.Repository, summarizer Summarizer, guard *auth.TenantGuard, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		transcripts:  transcripts,
		interactions: interactions,
		summarizer:   summarizer,
		guard:        guard,
		logger:       logger,
	}
}

// Generate drafts a pending summary from the interaction's transcript. The
// tenant and doctor on the stored row come from the verified identity.
func (s *Service) Generate(ctx context.Context, ident auth.Identity, interactionID uuid.UUID) (*Summary, error) {
	i, err := s.interactions.GetByID(ctx, interactionID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Enforce(ctx, ident, i.TenantID.String()); err != nil {
		return nil, err
	}

	t, err := s.transcripts.GetByInteraction(ctx, interactionID)
	if errors.Is(err, voice.ErrNotFound) {
		return nil, ErrNoTranscript
	}
	if err != nil {
		return nil, err
	}
	if len(t.Segments) == 0 {
		return nil, ErrNoTranscript
	}

	texts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		texts = append(texts, seg.Text)
	}
	fullText := strings.Join(texts, " ")

	note, err := s.summarizer.Summarize(ctx, fullText)
	if err != nil {
		return nil, err
	}

	doctorID, err := uuid.Parse(ident.UserID)
	if err != nil {
		return nil, errors.New("invalid user id in identity")
	}
	sum := &Summary{
		ID:            uuid.New(),
		TenantID:      i.TenantID,
		InteractionID: interactionID,
		DoctorID:      doctorID,
		Note:          *note,
		Confidence:    confidenceScore(fullText),
		ModelVersion:  s.summarizer.ModelVersion(),
		PromptVersion: PromptVersion,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, sum); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("summary_id", sum.ID.String()).
		Str("interaction_id", interactionID.String()).
		Float64("confidence", sum.Confidence).
		Msg("summary drafted")
	return sum, nil
}

// Approve finalizes a pending summary. When the reviewer supplies an edited
// note it becomes the final version; otherwise the draft is taken as-is.
func (s *Service) Approve(ctx context.Context, ident auth.Identity, summaryID uuid.UUID, edited *StructuredNote) (*Summary, error) {
	sum, err := s.repo.GetByID(ctx, summaryID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Enforce(ctx, ident, sum.TenantID.String()); err != nil {
		return nil, err
	}

	reviewer, err := uuid.Parse(ident.UserID)
	if err != nil {
		return nil, errors.New("invalid user id in identity")
	}

	final := edited
	if final == nil {
		note := sum.Note
		final = &note
	}
	if err := s.repo.Approve(ctx, summaryID, reviewer, time.Now().UTC(), final); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("summary_id", summaryID.String()).
		Str("reviewed_by", reviewer.String()).
		Msg("summary approved")
	return s.repo.GetByID(ctx, summaryID)
}

func (s *Service) Reject(ctx context.Context, ident auth.Identity, summaryID uuid.UUID, reason string) (*Summary, error) {
	sum, err := s.repo.GetByID(ctx, summaryID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Enforce(ctx, ident, sum.TenantID.String()); err != nil {
		return nil, err
	}

	reviewer, err := uuid.Parse(ident.UserID)
	if err != nil {
		return nil, errors.New("invalid user id in identity")
	}
	if err := s.repo.Reject(ctx, summaryID, reviewer, time.Now().UTC(), reason); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("summary_id", summaryID.String()).
		Str("reviewed_by", reviewer.String()).
		Msg("summary rejected")
	return s.repo.GetByID(ctx, summaryID)
}

// Get loads a summary behind the tenant guard.
func (s *Service) Get(ctx context.Context, ident auth.Identity, summaryID uuid.UUID) (*Summary, error) {
	sum, err := s.repo.GetByID(ctx, summaryID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Enforce(ctx, ident, sum.TenantID.String()); err != nil {
		return nil, err
	}
	return sum, nil
}
