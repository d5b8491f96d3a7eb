package invite

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers invite endpoints. Accept is public; the token in
// the body is the entire credential.
//
//	POST /invites        - Issue an invite in the caller's tenant
//	GET  /invites        - List the tenant's invites
//	POST /invites/accept - Redeem an invite and create the account
func (h *Handler) RegisterRoutes(g *echo.Group, perms *auth.PermissionGuard) {
	g.POST("/invites", h.CreateInvite, perms.Require(auth.PermUserCreate))
	g.GET("/invites", h.ListInvites, perms.Require(auth.PermUserView))
	g.POST("/invites/accept", h.AcceptInvite)
}

type createInviteRequest struct {
	Email    string `json:"email"`
	RoleName string `json:"role_name"`
}

func (h *Handler) CreateInvite(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	tenantID, err := uuid.Parse(ident.TenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "tenant context missing")
	}
	createdBy, err := uuid.Parse(ident.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req createInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.RoleName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and role_name are required")
	}

	inv, err := h.svc.Create(c.Request().Context(), tenantID, createdBy, req.Email, req.RoleName)
	switch {
	case errors.Is(err, ErrUnknownRole):
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create invite")
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) ListInvites(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	tenantID, err := uuid.Parse(ident.TenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "tenant context missing")
	}

	p := pagination.FromContext(c)
	invites, total, err := h.svc.List(c.Request().Context(), tenantID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list invites")
	}
	if invites == nil {
		invites = []*Invite{}
	}
	// Tokens are credentials; never echo them back on listings.
	for _, inv := range invites {
		inv.Token = ""
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(invites, total, p.Limit, p.Offset))
}

type acceptInviteRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) AcceptInvite(c echo.Context) error {
	var req acceptInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Token == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token and password are required")
	}

	u, err := h.svc.Accept(c.Request().Context(), req.Token, req.Password)
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "invite not found")
	case errors.Is(err, ErrAlreadyAccepted):
		return echo.NewHTTPError(http.StatusConflict, "invite already accepted")
	case errors.Is(err, ErrExpired):
		return echo.NewHTTPError(http.StatusGone, "invite expired")
	case errors.Is(err, ErrUnknownRole):
		return echo.NewHTTPError(http.StatusConflict, "invite role no longer exists")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to accept invite")
	}
	return c.JSON(http.StatusCreated, u)
}
