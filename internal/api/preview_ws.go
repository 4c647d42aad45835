package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/preview"
)

const (
	wsReadTimeout  = 2 * time.Minute
	wsWriteTimeout = 10 * time.Second
)

type wsClientMessage struct {
	Type  string            `json:"type"`
	Data  map[string]string `json:"data,omitempty"`
	Scale float64           `json:"scale,omitempty"`
}

type wsServerMessage struct {
	Type    string          `json:"type"`
	Preview *preview.Result `json:"preview,omitempty"`
	Error   *errorBody      `json:"error,omitempty"`
}

func (s *Server) upgrader() websocket.Upgrader {
	allowed := s.cfg.Server.AllowedOrigins
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 64 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowed) == 0 {
				return true
			}
			for _, o := range allowed {
				if o == "*" || strings.TrimSuffix(o, "/") == origin {
					return true
				}
			}
			return false
		},
	}
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) send(msg wsServerMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.conn.WriteJSON(msg)
}

func errorMessage(err error) wsServerMessage {
	stdErr := errors.Normalize(err)
	return wsServerMessage{Type: "error", Error: &errorBody{Code: stdErr.Code, Message: stdErr.Message}}
}

// previewSocket streams debounced previews while the client sends field edits.
func (s *Server) previewSocket(c *gin.Context) {
	sessionID := c.Param("id")
	userID := currentUserID(c)

	// resolve ownership before upgrading so the client gets a plain HTTP error
	if _, err := s.deps.Forms.Get(c.Request.Context(), sessionID, userID); err != nil {
		s.fail(c, err)
		return
	}

	up := s.upgrader()
	raw, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	conn := &wsConn{conn: raw}
	connID := uuid.NewString()
	defer func() {
		s.deps.Preview.Cancel(sessionID, connID)
		raw.Close()
	}()

	deliver := func(res *preview.Result, err error) {
		msg := wsServerMessage{Type: "preview", Preview: res}
		if err != nil {
			msg = errorMessage(err)
		}
		if werr := conn.send(msg); werr != nil {
			s.log.Debug("Preview delivery failed", map[string]interface{}{"sessionId": sessionID, "error": werr.Error()})
		}
	}

	if res, err := s.deps.Preview.Render(c.Request.Context(), sessionID, userID, 0); err != nil {
		deliver(nil, err)
	} else {
		deliver(res, nil)
	}

	for {
		_ = raw.SetReadDeadline(time.Now().Add(wsReadTimeout))
		var msg wsClientMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("Preview socket closed", map[string]interface{}{"sessionId": sessionID, "error": err.Error()})
			}
			return
		}

		switch msg.Type {
		case "update", "":
			if len(msg.Data) > 0 {
				if _, err := s.deps.Forms.Update(c.Request.Context(), sessionID, userID, msg.Data); err != nil {
					deliver(nil, err)
					continue
				}
			}
			s.deps.Preview.Schedule(sessionID, connID, userID, msg.Scale, deliver)
		case "close":
			_ = conn.send(wsServerMessage{Type: "closed"})
			return
		default:
			deliver(nil, errors.NewFormValidationFailedError("unknown message type "+msg.Type))
		}
	}
}
