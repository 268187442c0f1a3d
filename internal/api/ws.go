package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"inventorydash/internal/dashboard"
	"inventorydash/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum event size allowed from peer
	maxMessageSize = 64 * 1024
)

// Message types sent to session clients.
const (
	MessageSnapshot = "snapshot"
	MessageExport   = "export"
	MessageError    = "error"
)

// SessionMessage is one server-to-client websocket frame.
type SessionMessage struct {
	Type      string                `json:"type"`
	SessionID string                `json:"session_id"`
	Event     dashboard.EventType   `json:"event,omitempty"`
	State     string                `json:"state"`
	Snapshot  *models.DashboardData `json:"snapshot,omitempty"`
	Export    *ExportPayload        `json:"export,omitempty"`
	Error     *APIError             `json:"error,omitempty"`
}

// ExportPayload carries an export over the websocket; Data is base64 in JSON.
type ExportPayload struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Rows        int    `json:"rows"`
	Data        []byte `json:"data"`
}

// ServeSession upgrades to a websocket and runs one dashboard Session for the
// lifetime of the connection. The first frame is the unfiltered snapshot; every
// client event is answered with a snapshot, an export or an error.
func (h *Handler) ServeSession(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.WarnContext(c.Request().Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	session := dashboard.NewSession(h.svc)
	logger := h.logger.With(slog.String("session_id", session.ID))
	logger.InfoContext(ctx, "session opened", slog.String("remote_addr", c.RealIP()))
	connectedAt := time.Now()
	defer func() {
		logger.InfoContext(ctx, "session closed", slog.Duration("duration", time.Since(connectedAt)))
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	go h.keepAlive(ctx, conn)

	if err := h.dispatch(ctx, conn, session, dashboard.Event{Type: dashboard.EventRefresh}); err != nil {
		return nil
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnContext(ctx, "session read failed", slog.String("error", err.Error()))
			}
			return nil
		}

		var ev dashboard.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			if err := h.write(conn, SessionMessage{
				Type:      MessageError,
				SessionID: session.ID,
				State:     session.State().String(),
				Error:     NewAPIError(http.StatusBadRequest, "INVALID_JSON", "Event contains invalid JSON"),
			}); err != nil {
				return nil
			}
			continue
		}
		if err := h.dispatch(ctx, conn, session, ev); err != nil {
			return nil
		}
	}
}

// dispatch applies ev and writes the outcome. Only write failures are returned.
func (h *Handler) dispatch(ctx context.Context, conn *websocket.Conn, session *dashboard.Session, ev dashboard.Event) error {
	msg := SessionMessage{SessionID: session.ID, Event: ev.Type}

	var res dashboard.Result
	err := h.validator.Validate(ev)
	if err == nil {
		res, err = session.Dispatch(ctx, ev)
	}

	switch {
	case err != nil:
		msg.Type = MessageError
		msg.Error = toAPIError(err)
	case res.Export != nil:
		msg.Type = MessageExport
		msg.Export = &ExportPayload{
			FileName:    res.Export.FileName,
			ContentType: res.Export.ContentType,
			Rows:        res.Export.Rows,
			Data:        res.Export.Data,
		}
	default:
		msg.Type = MessageSnapshot
		msg.Snapshot = res.Snapshot
	}
	msg.State = session.State().String()
	return h.write(conn, msg)
}

func (h *Handler) write(conn *websocket.Conn, msg SessionMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// keepAlive pings the peer until ctx is done. WriteControl may run
// concurrently with the session's WriteJSON calls.
func (h *Handler) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
