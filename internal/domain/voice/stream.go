package voice

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/interaction"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// StreamHandler serves the audio streaming endpoint.
type StreamHandler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewStreamHandler(svc *Service, logger zerolog.Logger) *StreamHandler {
	return &StreamHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the streaming and transcript endpoints.
//
//	GET /voice/stream/:interaction_id - Upgrade to a transcription stream
//	GET /voice/transcripts/:interaction_id - Fetch the stored transcript
func (h *StreamHandler) RegisterRoutes(g *echo.Group, perms *auth.PermissionGuard) {
	g.GET("/voice/stream/:interaction_id", h.Stream, perms.Require(auth.PermInteractionStart))
	g.GET("/voice/transcripts/:interaction_id", h.GetTranscript, perms.Require(auth.PermInteractionView))
}

// Stream authorizes the connection before upgrading, then runs a sequential
// read loop: binary frames are transcribed in arrival order and each reply
// carries the segment text. Authorization happens exactly once, at accept;
// the identity captured then is bound to every segment the stream writes.
func (h *StreamHandler) Stream(c echo.Context) error {
	id, err := uuid.Parse(c.Param("interaction_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid interaction id")
	}

	ctx := c.Request().Context()
	ident := auth.IdentityFromContext(ctx)

	t, err := h.svc.Authorize(ctx, ident, id)
	switch {
	case errors.Is(err, interaction.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "interaction not found")
	case errors.Is(err, auth.ErrTenantMismatch), errors.Is(err, auth.ErrMissingTenantContext):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, ErrInteractionClosed):
		return echo.NewHTTPError(http.StatusConflict, "interaction is not active")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open stream")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	h.logger.Info().
		Str("interaction_id", id.String()).
		Str("user_id", ident.UserID).
		Msg("voice stream opened")

	h.readLoop(c, ws, t)

	h.logger.Info().
		Str("interaction_id", id.String()).
		Msg("voice stream closed")
	return nil
}

type segmentReply struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type errorReply struct {
	Error string `json:"error"`
}

// readLoop processes frames strictly one at a time. A transcription failure
// is reported on the socket and the stream continues; only read or write
// errors end the connection.
func (h *StreamHandler) readLoop(c echo.Context, ws Conn, t *Transcript) {
	ctx := c.Request().Context()
	for {
		msgType, frame, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if msgType != gorillawebsocket.BinaryMessage || len(frame) == 0 {
			continue
		}

		seg, err := h.svc.ProcessFrame(ctx, t, frame)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			h.logger.Error().Err(err).
				Str("transcript_id", t.ID.String()).
				Msg("frame processing failed")
			if writeErr := writeJSON(ws, errorReply{Error: "transcription failed"}); writeErr != nil {
				return
			}
			continue
		}

		reply := segmentReply{Text: seg.Text, Timestamp: seg.Timestamp.Format("2006-01-02T15:04:05.000Z07:00")}
		if err := writeJSON(ws, reply); err != nil {
			return
		}
	}
}

func writeJSON(ws Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.WriteMessage(gorillawebsocket.TextMessage, data)
}

func (h *StreamHandler) GetTranscript(c echo.Context) error {
	id, err := uuid.Parse(c.Param("interaction_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid interaction id")
	}

	ctx := c.Request().Context()
	ident := auth.IdentityFromContext(ctx)
	t, err := h.svc.GetTranscript(ctx, ident, id)
	switch {
	case errors.Is(err, interaction.ErrNotFound), errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "transcript not found")
	case errors.Is(err, auth.ErrTenantMismatch), errors.Is(err, auth.ErrMissingTenantContext):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load transcript")
	}
	return c.JSON(http.StatusOK, t)
}
