// Package middleware holds the fixed request pipeline stages that wrap every
// inbound request: panic recovery, request id assignment, request logging,
// and the unconditional post-handler audit stage. Stage order is wired in
// cmd and must not be changed: Recovery → RequestID → Logger → Audit →
// identity → tenant → route guards → handler.
package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader is the response header carrying the request correlation id.
// Its value equals the request_id stamped on every audit record for the
// request, enabling after-the-fact correlation.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request a correlation id. An inbound X-Request-ID
// is preserved; otherwise a fresh UUID is generated. The id is exposed on
// the echo context under "request_id" and echoed in the response header.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.New().String()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(RequestIDHeader, rid)
			return next(c)
		}
	}
}
