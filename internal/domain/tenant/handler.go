package tenant

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/domain/user"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

type Handler struct {
	svc   *Service
	guard *auth.TenantGuard
}

func NewHandler(svc *Service, guard *auth.TenantGuard) *Handler {
	return &Handler{svc: svc, guard: guard}
}

// RegisterRoutes registers tenant management endpoints.
//
//	POST   /tenants     - Create a tenant with its founding admin
//	GET    /tenants/:id - Fetch a tenant
//	DELETE /tenants/:id - Deactivate a tenant
func (h *Handler) RegisterRoutes(g *echo.Group, perms *auth.PermissionGuard) {
	g.POST("/tenants", h.CreateTenant, perms.Require(auth.PermTenantCreate))
	g.GET("/tenants/:id", h.GetTenant, perms.Require(auth.PermTenantView))
	g.DELETE("/tenants/:id", h.DeactivateTenant, perms.Require(auth.PermTenantUpdate))
}

type createTenantRequest struct {
	Name          string `json:"name"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

type createTenantResponse struct {
	Tenant *Tenant    `json:"tenant"`
	Admin  *user.User `json:"admin"`
}

func (h *Handler) CreateTenant(c echo.Context) error {
	var req createTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.AdminEmail == "" || req.AdminPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, admin_email and admin_password are required")
	}

	t, admin, err := h.svc.Create(c.Request().Context(), CreateInput{
		Name:          req.Name,
		AdminEmail:    req.AdminEmail,
		AdminPassword: req.AdminPassword,
	})
	switch {
	case errors.Is(err, ErrTenantExists):
		return echo.NewHTTPError(http.StatusConflict, "tenant name already taken")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create tenant")
	}

	return c.JSON(http.StatusCreated, createTenantResponse{Tenant: t, Admin: admin})
}

// GetTenant allows SYSTEM_ADMIN to read any tenant; other callers only their
// own, enforced through the tenant guard against the loaded row.
func (h *Handler) GetTenant(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant id")
	}

	ctx := c.Request().Context()
	t, err := h.svc.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "tenant not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load tenant")
	}

	ident := auth.IdentityFromContext(ctx)
	if ident.RoleName != "SYSTEM_ADMIN" {
		if err := h.guard.Enforce(ctx, ident, t.ID.String()); err != nil {
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		}
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeactivateTenant(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant id")
	}

	t, err := h.svc.Deactivate(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "tenant not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to deactivate tenant")
	}
	return c.JSON(http.StatusOK, t)
}
