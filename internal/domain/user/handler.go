package user

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	svc   *Service
	guard *auth.TenantGuard
}

func NewHandler(svc *Service, guard *auth.TenantGuard) *Handler {
	return &Handler{svc: svc, guard: guard}
}

// RegisterRoutes registers user endpoints on the provided route group.
//
//	POST /users     - Create a user in the caller's tenant
//	GET  /users     - List users in the caller's tenant
//	GET  /users/:id - Fetch one user
func (h *Handler) RegisterRoutes(g *echo.Group, perms *auth.PermissionGuard) {
	g.POST("/users", h.CreateUser, perms.Require(auth.PermUserCreate))
	g.GET("/users", h.ListUsers, perms.Require(auth.PermUserView))
	g.GET("/users/:id", h.GetUser, perms.Require(auth.PermUserView))
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleName string `json:"role_name"`
}

func (h *Handler) CreateUser(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	tenantID, err := uuid.Parse(ident.TenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "tenant context missing")
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" || req.RoleName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, password and role_name are required")
	}

	u, err := h.svc.Create(c.Request().Context(), tenantID, CreateInput{
		Email:    req.Email,
		Password: req.Password,
		RoleName: req.RoleName,
	})
	switch {
	case errors.Is(err, ErrUnknownRole):
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	case errors.Is(err, ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create user")
	}

	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	tenantID, err := uuid.Parse(ident.TenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "tenant context missing")
	}

	p := pagination.FromContext(c)
	users, total, err := h.svc.List(c.Request().Context(), tenantID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list users")
	}
	if users == nil {
		users = []*User{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, p.Limit, p.Offset))
}

// GetUser loads the user first, then checks the tenant boundary against the
// loaded row so cross-tenant probes are audited, not silently 404ed.
func (h *Handler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	ctx := c.Request().Context()
	u, err := h.svc.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load user")
	}

	ident := auth.IdentityFromContext(ctx)
	if err := h.guard.Enforce(ctx, ident, u.TenantID.String()); err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	return c.JSON(http.StatusOK, u)
}
