package auditevent

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/pagination"
)

// Handler exposes the tenant-scoped audit trail read surface.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers audit endpoints on the provided route group.
//
//	GET /audit/events - List the caller's tenant audit trail
func (h *Handler) RegisterRoutes(g *echo.Group, guard *auth.PermissionGuard) {
	g.GET("/audit/events", h.ListEvents, guard.Require(auth.PermAuditView))
}

// ListEvents handles GET /audit/events. The tenant filter always comes from
// the verified identity; it is never accepted as a request parameter.
func (h *Handler) ListEvents(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	p := pagination.FromContext(c)

	events, total, err := h.svc.List(c.Request().Context(), ident.TenantID, p.Limit, p.Offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to list audit events",
		})
	}
	if events == nil {
		events = []*audit.Event{}
	}

	return c.JSON(http.StatusOK, pagination.NewResponse(events, total, p.Limit, p.Offset))
}
