package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/user"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

var ErrTenantExists = errors.New("tenant name already taken")

// AdminRole is the role granted to a tenant's founding user.
const AdminRole = "CLINIC_ADMIN"

type Service struct {
	repo   Repository
	users  user.Repository
	logger zerolog.Logger
}

func NewService(repo Repository, users user.Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, users: users, logger: logger}
}

type CreateInput struct {
	Name          string
	AdminEmail    string
	AdminPassword string
}

// Create provisions a tenant together with its founding admin account so a
// new clinic is never left without a user able to invite the rest.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Tenant, *user.User, error) {
	in.Name = strings.TrimSpace(in.Name)

	if _, err := s.repo.GetByName(ctx, in.Name); err == nil {
		return nil, nil, ErrTenantExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}

	now := time.Now().UTC()
	t := &Tenant{
		ID:        uuid.New(),
		Name:      in.Name,
		Active:    true,
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(in.AdminPassword)
	if err != nil {
		return nil, nil, err
	}
	admin := &user.User{
		ID:           uuid.New(),
		TenantID:     t.ID,
		Email:        strings.ToLower(strings.TrimSpace(in.AdminEmail)),
		PasswordHash: hash,
		RoleName:     AdminRole,
		Active:       true,
		CreatedAt:    now,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Str("tenant_id", t.ID.String()).
		Str("name", t.Name).
		Msg("tenant created")
	return t, admin, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// Deactivate flips the tenant inactive. Tokens already issued keep verifying
// until they expire; deactivation is not a token revocation mechanism.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Active = false
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
