package interaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

type Service struct {
	repo   Repository
	guard  *auth.TenantGuard
	logger zerolog.Logger
}

func NewService(repo Repository, guard *auth.TenantGuard, logger zerolog.Logger) *Service {
	return &Service{repo: repo, guard: guard, logger: logger}
}

// Start opens an interaction for the calling doctor. Tenant and doctor are
// derived from the verified identity only. Starting is idempotent per
// doctor: while an interaction is active, Start returns it unchanged.
func (s *Service) Start(ctx context.Context, ident auth.Identity) (*Interaction, error) {
	tenantID, err := uuid.Parse(ident.TenantID)
	if err != nil {
		return nil, auth.ErrMissingTenantContext
	}
	doctorID, err := uuid.Parse(ident.UserID)
	if err != nil {
		return nil, errors.New("invalid user id in identity")
	}

	if active, err := s.repo.FindActiveByDoctor(ctx, tenantID, doctorID); err == nil {
		return active, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	i := &Interaction{
		ID:        uuid.New(),
		TenantID:  tenantID,
		DoctorID:  doctorID,
		Status:    StatusActive,
		StartedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, i); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("interaction_id", i.ID.String()).
		Str("doctor_id", doctorID.String()).
		Msg("interaction started")
	return i, nil
}

// Get loads the interaction and then enforces the tenant boundary against
// the loaded row, so a cross-tenant probe is audited rather than 404ed.
func (s *Service) Get(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Interaction, error) {
	i, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Enforce(ctx, ident, i.TenantID.String()); err != nil {
		return nil, err
	}
	return i, nil
}

// Close completes an active interaction after the tenant check passes.
func (s *Service) Close(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Interaction, error) {
	i, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Enforce(ctx, ident, i.TenantID.String()); err != nil {
		return nil, err
	}
	closed, err := s.repo.Close(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("interaction_id", id.String()).
		Msg("interaction closed")
	return closed, nil
}

func (s *Service) List(ctx context.Context, ident auth.Identity, limit, offset int) ([]*Interaction, int, error) {
	tenantID, err := uuid.Parse(ident.TenantID)
	if err != nil {
		return nil, 0, auth.ErrMissingTenantContext
	}
	return s.repo.ListByTenant(ctx, tenantID, limit, offset)
}
