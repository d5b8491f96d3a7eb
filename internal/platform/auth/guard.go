package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/audit"
)

var (
	// ErrMissingTenantContext means the identity carries no tenant at all;
	// there was nothing to compare, so no audit event is attributable.
	ErrMissingTenantContext = errors.New("tenant context missing")
	// ErrTenantMismatch means the identity's tenant differs from the
	// resource's owning tenant. Always audited before being returned.
	ErrTenantMismatch = errors.New("cross-tenant access denied")
)

// TenantGuard enforces the tenant boundary at the point a specific
// resource's owning tenant is known. The blanket per-request presence check
// lives in the middleware chain; this is the second, resource-level layer.
type TenantGuard struct {
	recorder audit.Recorder
	logger   zerolog.Logger
}

func NewTenantGuard(recorder audit.Recorder, logger zerolog.Logger) *TenantGuard {
	return &TenantGuard{recorder: recorder, logger: logger}
}

// Enforce rejects access unless the identity's tenant equals the resource's
// tenant. An empty identity tenant counts as missing, not as a mismatch.
// Mismatches produce exactly one CROSS_TENANT_ACCESS_ATTEMPT event
// attributed to the requester, never to the resource's tenant.
func (g *TenantGuard) Enforce(ctx context.Context, ident Identity, resourceTenantID string) error {
	if ident.TenantID == "" {
		return ErrMissingTenantContext
	}
	if ident.TenantID != resourceTenantID {
		ev := audit.NewEvent(ctx, ident.UserID, string(ident.ActorType), ident.TenantID, audit.ActionCrossTenantAccess)
		if err := g.recorder.Record(ctx, ev); err != nil {
			g.logger.Error().Err(err).
				Str("request_id", ident.RequestID).
				Str("action", ev.Action).
				Msg("audit write failed")
		}
		audit.ScopeFromContext(ctx).MarkNamed()
		return ErrTenantMismatch
	}
	return nil
}
