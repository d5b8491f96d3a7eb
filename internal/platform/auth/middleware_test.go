package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/audit"
)

func identityRequest(t *testing.T, rec *mockRecorder, authorization string) (Identity, *httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	c := e.NewContext(req, w)
	c.Set("request_id", "req-1")

	verifier := NewVerifier(testSecret)
	var captured Identity
	handler := IdentityMiddleware(verifier, rec, zerolog.Nop())(func(c echo.Context) error {
		captured = IdentityFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return captured, w, err
}

func TestIdentityMiddleware_NoHeader(t *testing.T) {
	rec := &mockRecorder{}
	ident, _, err := identityRequest(t, rec, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ident.Authenticated {
		t.Error("expected anonymous identity")
	}
	if ident.RequestID != "req-1" {
		t.Errorf("anonymous identity must still carry the request id, got %q", ident.RequestID)
	}
	if len(rec.events) != 0 {
		t.Errorf("absent credentials must not produce audit events, got %d", len(rec.events))
	}
}

func TestIdentityMiddleware_ValidToken(t *testing.T) {
	rec := &mockRecorder{}
	issuer := NewIssuer(testSecret, time.Hour)
	token, _ := issuer.Issue("user-1", "tenant-1", "", "DOCTOR")

	ident, _, err := identityRequest(t, rec, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ident.Authenticated {
		t.Fatal("expected authenticated identity")
	}
	if ident.UserID != "user-1" || ident.TenantID != "tenant-1" || ident.RoleName != "DOCTOR" {
		t.Errorf("identity fields wrong: %+v", ident)
	}
	if len(rec.events) != 0 {
		t.Errorf("valid token must not produce audit events here, got %d", len(rec.events))
	}
}

func TestIdentityMiddleware_BadScheme(t *testing.T) {
	rec := &mockRecorder{}
	_, _, err := identityRequest(t, rec, "Basic dXNlcjpwYXNz")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].Action != audit.ActionTokenInvalid {
		t.Fatalf("expected exactly one TOKEN_INVALID event, got %+v", rec.events)
	}
}

func TestIdentityMiddleware_InvalidToken(t *testing.T) {
	rec := &mockRecorder{}
	_, _, err := identityRequest(t, rec, "Bearer garbage.token.here")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("expected exactly one audit event, got %d", len(rec.events))
	}
	ev := rec.events[0]
	if ev.Action != audit.ActionTokenInvalid {
		t.Errorf("expected TOKEN_INVALID, got %s", ev.Action)
	}
	if ev.ActorID != "" || ev.TenantID != "" {
		t.Errorf("unverifiable credentials must not be attributed, got %+v", ev)
	}
}

func TestIdentityMiddleware_ExpiredToken(t *testing.T) {
	rec := &mockRecorder{}
	issuer := NewIssuer(testSecret, -time.Minute)
	token, _ := issuer.Issue("user-1", "tenant-1", "", "DOCTOR")

	_, _, err := identityRequest(t, rec, "Bearer "+token)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("expected exactly one audit event, got %d", len(rec.events))
	}
	ev := rec.events[0]
	if ev.Action != audit.ActionTokenExpired {
		t.Errorf("expected TOKEN_EXPIRED, got %s", ev.Action)
	}
	// The expired token had a valid signature; the event stays attributed.
	if ev.ActorID != "user-1" || ev.TenantID != "tenant-1" {
		t.Errorf("expected attribution to the token's claims, got %+v", ev)
	}
}

func TestIdentityMiddleware_MissingTenantClaim(t *testing.T) {
	rec := &mockRecorder{}
	issuer := NewIssuer(testSecret, time.Hour)
	token, _ := issuer.Issue("user-1", "", "", "DOCTOR")

	_, _, err := identityRequest(t, rec, "Bearer "+token)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("token without tenant must be rejected wholesale, got %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].Action != audit.ActionTokenInvalid {
		t.Fatalf("expected one TOKEN_INVALID event, got %+v", rec.events)
	}
}

func TestIdentityMiddleware_RejectMarksScope(t *testing.T) {
	rec := &mockRecorder{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set("Authorization", "Bearer junk")
	scope := &audit.Scope{RequestID: "req-1"}
	req = req.WithContext(audit.WithScope(req.Context(), scope))
	w := httptest.NewRecorder()
	c := e.NewContext(req, w)
	c.Set("request_id", "req-1")

	handler := IdentityMiddleware(NewVerifier(testSecret), rec, zerolog.Nop())(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)

	if !scope.NamedWritten() {
		t.Error("rejection must mark the scope so the generic event is suppressed")
	}
}

// =========== Tenant presence middleware ===========

func tenantRequest(t *testing.T, path string, ident Identity, public Skipper) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(WithIdentity(req.Context(), ident))
	w := httptest.NewRecorder()
	c := e.NewContext(req, w)

	handler := TenantContextMiddleware(public)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return handler(c)
}

func TestTenantContextMiddleware_RequiresTenant(t *testing.T) {
	skipper := PathPrefixSkipper("/auth", "/health")

	if err := tenantRequest(t, "/interactions", testIdentity("tenant-a"), skipper); err != nil {
		t.Errorf("authenticated tenant-bound request must pass, got %v", err)
	}

	err := tenantRequest(t, "/interactions", Identity{}, skipper)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("anonymous request on protected route must be 403, got %v", err)
	}

	// Empty tenant counts as missing, not present.
	ident := testIdentity("")
	err = tenantRequest(t, "/interactions", ident, skipper)
	he, ok = err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("empty tenant id must be 403, got %v", err)
	}
}

func TestTenantContextMiddleware_PublicRoutes(t *testing.T) {
	skipper := PathPrefixSkipper("/auth", "/invites/accept", "/health")

	for _, path := range []string{"/auth/login", "/invites/accept", "/health"} {
		if err := tenantRequest(t, path, Identity{}, skipper); err != nil {
			t.Errorf("public route %s must bypass tenant presence check, got %v", path, err)
		}
	}
}
