package invite

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/user"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

var (
	ErrUnknownRole = errors.New("unknown role")
	ErrExpired     = errors.New("invite expired")
)

type Service struct {
	repo   Repository
	users  user.Repository
	roles  *auth.Registry
	logger zerolog.Logger
}

func NewService(repo Repository, users user.Repository, roles *auth.Registry, logger zerolog.Logger) *Service {
	return &Service{repo: repo, users: users, roles: roles, logger: logger}
}

// newToken returns a URL-safe random token. 32 bytes of entropy keeps the
// token unguessable over the invite's lifetime.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create issues an invite bound to the inviter's tenant. The role must exist
// in the registry at issue time; a stale role fails at accept time too.
func (s *Service) Create(ctx context.Context, tenantID, createdBy uuid.UUID, email, roleName string) (*Invite, error) {
	if !s.roles.Known(roleName) {
		return nil, ErrUnknownRole
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	inv := &Invite{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		RoleName:  roleName,
		Token:     token,
		CreatedBy: createdBy,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("invite_id", inv.ID.String()).
		Str("tenant_id", tenantID.String()).
		Str("role", roleName).
		Msg("invite created")
	return inv, nil
}

// Accept redeems a token and creates the invited account. The invite is
// one-shot: claiming it and creating the user are ordered so a replay of the
// token can never mint a second account.
func (s *Service) Accept(ctx context.Context, token, password string) (*user.User, error) {
	inv, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv.Accepted() {
		return nil, ErrAlreadyAccepted
	}
	if inv.Expired(time.Now().UTC()) {
		return nil, ErrExpired
	}
	if !s.roles.Known(inv.RoleName) {
		return nil, ErrUnknownRole
	}

	if err := s.repo.MarkAccepted(ctx, inv.ID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &user.User{
		ID:           uuid.New(),
		TenantID:     inv.TenantID,
		Email:        inv.Email,
		PasswordHash: hash,
		RoleName:     inv.RoleName,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", u.ID.String()).
		Str("tenant_id", u.TenantID.String()).
		Msg("invite accepted")
	return u, nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Invite, int, error) {
	return s.repo.ListByTenant(ctx, tenantID, limit, offset)
}
