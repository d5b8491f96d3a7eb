package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

// Audit is the unconditional post-handler stage of the request pipeline.
//
// On the way in it installs the per-request audit scope (correlation id,
// source address, user agent) that guards and services use to build events.
// On the way out — whether the handler succeeded, failed, or panicked — it
// writes one generic audit event tagged "METHOD /path" for every request
// that established an identity, unless a named event (LOGIN_SUCCESS,
// LOGIN_FAILED, TOKEN_INVALID, TOKEN_EXPIRED, CROSS_TENANT_ACCESS_ATTEMPT,
// PERMISSION_DENIED) was already written earlier in the pipeline.
func Audit(recorder audit.Recorder, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			scope := &audit.Scope{
				RequestID: rid,
				SourceIP:  c.RealIP(),
				UserAgent: req.UserAgent(),
			}
			c.SetRequest(req.WithContext(audit.WithScope(req.Context(), scope)))

			// Deferred so the write survives handler panics; the panic keeps
			// unwinding to the Recovery stage afterwards.
			defer func() {
				if scope.NamedWritten() {
					return
				}
				ctx := c.Request().Context()
				ident := auth.IdentityFromContext(ctx)
				if !ident.Authenticated {
					return
				}
				action := fmt.Sprintf("%s %s", req.Method, req.URL.Path)
				ev := audit.NewEvent(ctx, ident.UserID, string(ident.ActorType), ident.TenantID, action)
				if err := recorder.Record(ctx, ev); err != nil {
					logger.Error().Err(err).
						Str("request_id", rid).
						Str("action", action).
						Msg("audit write failed")
				}
			}()

			return next(c)
		}
	}
}
