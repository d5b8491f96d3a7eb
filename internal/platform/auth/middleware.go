package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/audit"
)

// Skipper reports whether a route is public and exempt from the tenant
// presence check. Public routes still pass through the identity builder.
type Skipper func(c echo.Context) bool

// PathPrefixSkipper marks every path under one of the given prefixes public.
func PathPrefixSkipper(prefixes ...string) Skipper {
	return func(c echo.Context) bool {
		path := c.Request().URL.Path
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
}

// IdentityMiddleware is the identity context builder. It runs before tenant
// and permission checks on every request:
//
//   - absent Authorization header → anonymous identity, no audit write;
//   - malformed scheme, bad token, or claims missing user/tenant →
//     TOKEN_INVALID audit event, then 401;
//   - expired token → TOKEN_EXPIRED audit event (attributed to the token's
//     claims, whose signature was valid), then 401;
//   - valid token → authenticated identity installed on the request context.
func IdentityMiddleware(verifier *Verifier, recorder audit.Recorder, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid, _ := c.Get("request_id").(string)
			header := c.Request().Header.Get("Authorization")

			if header == "" {
				ident := Identity{ActorType: ActorHuman, RequestID: rid}
				c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), ident)))
				return next(c)
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return rejectCredential(c, recorder, logger, rid, audit.ActionTokenInvalid, "", "")
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				action := audit.ActionTokenInvalid
				var actorID, tenantID string
				if errors.Is(err, ErrTokenExpired) && claims != nil {
					action = audit.ActionTokenExpired
					actorID = claims.UserID
					tenantID = claims.TenantID
				}
				return rejectCredential(c, recorder, logger, rid, action, actorID, tenantID)
			}

			// I1: both user and tenant must be present; partial trust is
			// disallowed, so a token missing either is invalid wholesale.
			if claims.UserID == "" || claims.TenantID == "" {
				return rejectCredential(c, recorder, logger, rid, audit.ActionTokenInvalid, "", "")
			}

			ident := Identity{
				UserID:        claims.UserID,
				TenantID:      claims.TenantID,
				RoleID:        claims.RoleID,
				RoleName:      claims.RoleName,
				ActorType:     ActorHuman,
				RequestID:     rid,
				Authenticated: true,
			}
			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), ident)))

			return next(c)
		}
	}
}

// rejectCredential writes exactly one audit event for the failure kind and
// terminates the request with an authentication error. A failed audit write
// is never swallowed silently: it is logged at error level with the event.
func rejectCredential(c echo.Context, recorder audit.Recorder, logger zerolog.Logger, rid, action, actorID, tenantID string) error {
	ctx := c.Request().Context()
	ev := audit.NewEvent(ctx, actorID, audit.ActorHuman, tenantID, action)
	if ev.RequestID == "" {
		ev.RequestID = rid
	}
	if err := recorder.Record(ctx, ev); err != nil {
		logger.Error().Err(err).
			Str("request_id", rid).
			Str("action", action).
			Msg("audit write failed")
	}
	audit.ScopeFromContext(ctx).MarkNamed()
	return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
}

// TenantContextMiddleware is the blanket per-request tenant presence check.
// Non-public routes require an authenticated identity with a non-empty
// tenant; an empty tenant id counts as missing, not as present. The failure
// is hard and unaudited — no tenant context ever existed to attribute.
func TenantContextMiddleware(public Skipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if public != nil && public(c) {
				return next(c)
			}
			ident := IdentityFromContext(c.Request().Context())
			if !ident.Authenticated || ident.TenantID == "" {
				return echo.NewHTTPError(http.StatusForbidden, "tenant context missing")
			}
			return next(c)
		}
	}
}
