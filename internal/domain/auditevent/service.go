package auditevent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/audit"
)

// Service is the durable audit sink. It implements audit.Recorder for the
// middleware and guard layers and serves the tenant-scoped query surface.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends one immutable event. A failed write is a security
// regression in itself, so it is logged with the full event before the
// error is propagated to the caller.
func (s *Service) Record(ctx context.Context, e audit.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.ActorType == "" {
		e.ActorType = audit.ActorHuman
	}

	if err := s.repo.Insert(ctx, &e); err != nil {
		s.logger.Error().Err(err).
			Str("request_id", e.RequestID).
			Str("action", e.Action).
			Str("actor_id", e.ActorID).
			Str("tenant_id", e.TenantID).
			Msg("audit event lost")
		return err
	}
	return nil
}

// List returns the tenant's events, newest first.
func (s *Service) List(ctx context.Context, tenantID string, limit, offset int) ([]*audit.Event, int, error) {
	return s.repo.ListByTenant(ctx, tenantID, limit, offset)
}
