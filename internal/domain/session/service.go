package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/user"
	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

// ErrInvalidCredentials covers every login failure mode. Unknown email,
// wrong password and deactivated account are indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	users    user.Repository
	sessions Repository
	issuer   *auth.Issuer
	ttl      time.Duration
	recorder audit.Recorder
	logger   zerolog.Logger
}

func NewService(users user.Repository, sessions Repository, issuer *auth.Issuer, ttl time.Duration, recorder audit.Recorder, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		issuer:   issuer,
		ttl:      ttl,
		recorder: recorder,
		logger:   logger,
	}
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *user.User
}

// Login verifies credentials and issues an access token. Every call writes
// exactly one audit event: LOGIN_SUCCESS attributed to the user, or
// LOGIN_FAILED with no actor attribution since the claim was unverified.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.auditFailure(ctx)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.Active || !auth.CheckPassword(password, u.PasswordHash) {
		s.auditFailure(ctx)
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(u.ID.String(), u.TenantID.String(), "", u.RoleName)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sum := sha256.Sum256([]byte(token))
	sess := &Session{
		ID:        uuid.New(),
		UserID:    u.ID,
		TenantID:  u.TenantID,
		TokenHash: hex.EncodeToString(sum[:]),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	ev := audit.NewEvent(ctx, u.ID.String(), audit.ActorHuman, u.TenantID.String(), audit.ActionLoginSuccess)
	if err := s.recorder.Record(ctx, ev); err != nil {
		s.logger.Error().Err(err).Str("action", ev.Action).Msg("audit write failed")
	}
	audit.ScopeFromContext(ctx).MarkNamed()

	return &LoginResult{AccessToken: token, ExpiresAt: sess.ExpiresAt, User: u}, nil
}

func (s *Service) auditFailure(ctx context.Context) {
	ev := audit.NewEvent(ctx, "", audit.ActorHuman, "", audit.ActionLoginFailed)
	if err := s.recorder.Record(ctx, ev); err != nil {
		s.logger.Error().Err(err).Str("action", ev.Action).Msg("audit write failed")
	}
	audit.ScopeFromContext(ctx).MarkNamed()
}

// ListForUser returns the user's session history, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Session, int, error) {
	return s.sessions.ListByUser(ctx, userID, limit, offset)
}
