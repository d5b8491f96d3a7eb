package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/audit"
)

// PermissionGuard enforces the role→permission mapping per route. Each route
// declares the single capability it requires; the guard runs after the
// identity pipeline and before the handler body.
type PermissionGuard struct {
	registry *Registry
	recorder audit.Recorder
	logger   zerolog.Logger
}

func NewPermissionGuard(registry *Registry, recorder audit.Recorder, logger zerolog.Logger) *PermissionGuard {
	return &PermissionGuard{registry: registry, recorder: recorder, logger: logger}
}

// Require returns middleware denying the request unless the caller's role
// grants the capability. No role at all is an authentication failure (401);
// a role lacking the capability is forbidden (403) and leaves a
// PERMISSION_DENIED audit event.
func (g *PermissionGuard) Require(capability string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ident := IdentityFromContext(ctx)

			if !ident.Authenticated || ident.RoleName == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			if !g.registry.Has(ident.RoleName, capability) {
				ev := audit.NewEvent(ctx, ident.UserID, string(ident.ActorType), ident.TenantID, audit.ActionPermissionDenied)
				if err := g.recorder.Record(ctx, ev); err != nil {
					g.logger.Error().Err(err).
						Str("request_id", ident.RequestID).
						Str("action", ev.Action).
						Msg("audit write failed")
				}
				audit.ScopeFromContext(ctx).MarkNamed()
				return echo.NewHTTPError(http.StatusForbidden, "permission denied")
			}

			return next(c)
		}
	}
}
