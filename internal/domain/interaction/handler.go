package interaction

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

// RegisterRoutes registers interaction endpoints.
//
//	POST /interactions/start     - Open (or return the open) interaction
//	POST /interactions/:id/close - Complete an interaction
//	GET  /interactions/:id       - Fetch one interaction
//	GET  /interactions           - List the tenant's interactions
func (h *Handler) RegisterRoutes(g *echo.Group, perms *auth.PermissionGuard) {
	g.POST("/interactions/start", h.StartInteraction, perms.Require(auth.PermInteractionStart))
	g.POST("/interactions/:id/close", h.CloseInteraction, perms.Require(auth.PermInteractionClose))
	g.GET("/interactions/:id", h.GetInteraction, perms.Require(auth.PermInteractionView))
	g.GET("/interactions", h.ListInteractions, perms.Require(auth.PermInteractionView))
}

// mapError converts service errors to HTTP responses. Tenant violations are
// 403; they were already audited by the guard before reaching here.
func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "interaction not found")
	case errors.Is(err, ErrAlreadyClosed):
		return echo.NewHTTPError(http.StatusConflict, "interaction already closed")
	case errors.Is(err, auth.ErrTenantMismatch), errors.Is(err, auth.ErrMissingTenantContext):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) StartInteraction(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	i, err := h.svc.Start(c.Request().Context(), ident)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, i)
}

func (h *Handler) CloseInteraction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid interaction id")
	}
	ident := auth.IdentityFromContext(c.Request().Context())
	i, err := h.svc.Close(c.Request().Context(), ident, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, i)
}

func (h *Handler) GetInteraction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid interaction id")
	}
	ident := auth.IdentityFromContext(c.Request().Context())
	i, err := h.svc.Get(c.Request().Context(), ident, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, i)
}

func (h *Handler) ListInteractions(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	p := pagination.FromContext(c)
	list, total, err := h.svc.List(c.Request().Context(), ident, p.Limit, p.Offset)
	if err != nil {
		return mapError(err)
	}
	if list == nil {
		list = []*Interaction{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, p.Limit, p.Offset))
}
