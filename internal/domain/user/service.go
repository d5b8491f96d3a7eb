package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

var (
	ErrEmailTaken  = errors.New("email already registered")
	ErrUnknownRole = errors.New("unknown role")
)

type Service struct {
	repo   Repository
	roles  *auth.Registry
	logger zerolog.Logger
}

func NewService(repo Repository, roles *auth.Registry, logger zerolog.Logger) *Service {
	return &Service{repo: repo, roles: roles, logger: logger}
}

type CreateInput struct {
	Email    string
	Password string
	RoleName string
}

// Create provisions a user inside the caller's tenant. The tenant comes from
// the verified identity, never from the request body.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, in CreateInput) (*User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if !s.roles.Known(in.RoleName) {
		return nil, ErrUnknownRole
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        in.Email,
		PasswordHash: hash,
		RoleName:     in.RoleName,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", u.ID.String()).
		Str("tenant_id", tenantID.String()).
		Str("role", u.RoleName).
		Msg("user created")
	return u, nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*User, int, error) {
	return s.repo.ListByTenant(ctx, tenantID, limit, offset)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
