package summary

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/domain/interaction"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the drafting and review endpoints. Review reuses
// the interaction close capability: whoever may end the encounter may sign
// off its note.
//
//	POST /ai/summarize     - Draft a summary for an interaction
//	POST /review/approve   - Approve a pending summary
//	POST /review/reject    - Reject a pending summary
//	GET  /ai/summaries/:id - Fetch one summary
func (h *Handler) RegisterRoutes(g *echo.Group, perms *auth.PermissionGuard) {
	g.POST("/ai/summarize", h.Summarize, perms.Require(auth.PermInteractionClose))
	g.POST("/review/approve", h.Approve, perms.Require(auth.PermInteractionClose))
	g.POST("/review/reject", h.Reject, perms.Require(auth.PermInteractionClose))
	g.GET("/ai/summaries/:id", h.GetSummary, perms.Require(auth.PermInteractionView))
}

func mapError(err error) error {
	switch {
	case errors.Is(err, interaction.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "interaction not found")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "summary not found")
	case errors.Is(err, ErrNoTranscript):
		return echo.NewHTTPError(http.StatusBadRequest, "no transcript found")
	case errors.Is(err, ErrAlreadyReviewed):
		return echo.NewHTTPError(http.StatusConflict, "summary already reviewed")
	case errors.Is(err, auth.ErrTenantMismatch), errors.Is(err, auth.ErrMissingTenantContext):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

type summarizeRequest struct {
	InteractionID string `json:"interaction_id"`
}

func (h *Handler) Summarize(c echo.Context) error {
	var req summarizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	interactionID, err := uuid.Parse(req.InteractionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid interaction id")
	}

	ident := auth.IdentityFromContext(c.Request().Context())
	sum, err := h.svc.Generate(c.Request().Context(), ident, interactionID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, sum)
}

type approveRequest struct {
	SummaryID  string          `json:"summary_id"`
	EditedNote *StructuredNote `json:"edited_note,omitempty"`
}

func (h *Handler) Approve(c echo.Context) error {
	var req approveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	summaryID, err := uuid.Parse(req.SummaryID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid summary id")
	}

	ident := auth.IdentityFromContext(c.Request().Context())
	sum, err := h.svc.Approve(c.Request().Context(), ident, summaryID, req.EditedNote)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sum)
}

type rejectRequest struct {
	SummaryID string `json:"summary_id"`
	Reason    string `json:"reason"`
}

func (h *Handler) Reject(c echo.Context) error {
	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	summaryID, err := uuid.Parse(req.SummaryID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid summary id")
	}
	if req.Reason == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reason is required")
	}

	ident := auth.IdentityFromContext(c.Request().Context())
	sum, err := h.svc.Reject(c.Request().Context(), ident, summaryID, req.Reason)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *Handler) GetSummary(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid summary id")
	}

	ident := auth.IdentityFromContext(c.Request().Context())
	sum, err := h.svc.Get(c.Request().Context(), ident, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sum)
}
