package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gymlink/gymlink-relay/internal/relay"
)

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware; bridges are not
		// browsers and send no Origin at all.
		return true
	},
}

// rejectWriteTimeout bounds the courtesy error frame written to a rejected
// handshake before the socket is closed.
const rejectWriteTimeout = 5 * time.Second

// handleWebSocket upgrades the HTTP connection and admits it into the relay.
//
// Identification travels in query parameters: gymId, secret and type
// (BRIDGE or ADMIN; anything else is treated as ADMIN). The connection is
// upgraded first so a rejected peer receives a protocol-level error frame
// rather than a bare HTTP status; rejected connections touch no relay state.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	creds := relay.Credentials{
		GymID:  query.Get("gymId"),
		Secret: query.Get("secret"),
		Role:   relay.ParseRole(query.Get("type")),
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	if err := s.auth.Authenticate(creds); err != nil {
		s.rejectConnection(conn, creds, err)
		return
	}

	client := relay.NewClient(s.hub, conn, creds.GymID, creds.Role)
	s.hub.Register(client)
	client.Start(s.wsCfg)
}

// rejectConnection writes one error frame and closes the socket.
func (s *Server) rejectConnection(conn *websocket.Conn, creds relay.Credentials, authErr error) {
	message := "authentication failed"
	switch {
	case errors.Is(authErr, relay.ErrBadSecret):
		message = "invalid secret"
	case errors.Is(authErr, relay.ErrMissingTenant):
		message = "gymId is required"
	}

	s.logger.Warn("websocket handshake rejected",
		"gym_id", creds.GymID, "role", creds.Role, "reason", message)

	if frame, err := relay.EncodeError(message); err == nil {
		//nolint:errcheck // Best-effort notification on a doomed connection
		conn.SetWriteDeadline(time.Now().Add(rejectWriteTimeout))
		//nolint:errcheck // Best-effort notification on a doomed connection
		conn.WriteMessage(websocket.TextMessage, frame)
	}
	conn.Close()
}
