package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/angelmondragon/aerogourmet-backend/pkg/auth"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// TokenVerifier validates an access token sent in the auth frame.
type TokenVerifier func(token string) (*auth.AccessTokenClaims, error)

// HandlerOptions tunes the WebSocket endpoint.
type HandlerOptions struct {
	PingInterval time.Duration
	PongWait     time.Duration
	AuthTimeout  time.Duration
	// Verify is used when the client sends a token. The role then comes from
	// the verified claims instead of the frame.
	Verify TokenVerifier
	// RequireToken rejects auth frames without a token.
	RequireToken bool
	// AllowedOrigins restricts the Origin header; empty allows any.
	AllowedOrigins []string
	Logger         *logger.Logger
}

type client struct {
	id     string
	userID uint
	role   enums.UserRole
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// Handler upgrades GET /ws and runs the auth handshake.
type Handler struct {
	hub      *Hub
	opts     HandlerOptions
	upgrader websocket.Upgrader
	logg     *logger.Logger
}

func NewHandler(hub *Hub, opts HandlerOptions) *Handler {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.PongWait <= opts.PingInterval {
		opts.PongWait = opts.PingInterval * 2
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = 10 * time.Second
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	h := &Handler{hub: hub, opts: opts, logg: logg}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logg.Warn(h.logg.WithField(r.Context(), "error", err.Error()), "realtime.upgrade_failed")
		return
	}
	ws.SetReadLimit(maxMessageSize)

	userID, role, reason := h.authenticate(ws)
	if reason != "" {
		h.reject(ws, reason)
		return
	}

	c := &client{
		id:     uuid.NewString(),
		userID: userID,
		role:   role,
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	ack, _ := json.Marshal(AuthConfirmed{Type: TypeAuthConfirmed, UserID: userID, Role: role, ConnectionID: c.id})
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, ack); err != nil {
		_ = ws.Close()
		return
	}

	h.hub.register(c)
	logCtx := h.logg.WithUserID(context.Background(), userID)
	logCtx = h.logg.WithFields(logCtx, map[string]any{"connection_id": c.id, "role": role})
	h.logg.Info(logCtx, "realtime.connected")

	go h.writePump(c)
	h.readPump(c)
}

// authenticate reads the auth frame. A non-empty reason rejects the socket.
func (h *Handler) authenticate(ws *websocket.Conn) (uint, enums.UserRole, string) {
	_ = ws.SetReadDeadline(time.Now().Add(h.opts.AuthTimeout))
	var msg AuthMessage
	if err := ws.ReadJSON(&msg); err != nil {
		return 0, "", "invalid auth message"
	}
	if msg.Type != TypeAuth {
		return 0, "", "auth required"
	}

	userID, role := msg.UserID, msg.Role
	switch {
	case msg.Token != "" && h.opts.Verify != nil:
		claims, err := h.opts.Verify(msg.Token)
		if err != nil {
			return 0, "", "invalid token"
		}
		userID, role = claims.UserID, claims.Role
	case h.opts.RequireToken:
		return 0, "", "token required"
	}

	if !role.IsStaff() {
		return 0, "", "unauthorized role"
	}
	return userID, role, ""
}

func (h *Handler) reject(ws *websocket.Conn, reason string) {
	deadline := time.Now().Add(writeWait)
	_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
	_ = ws.Close()
}

func (h *Handler) readPump(c *client) {
	defer h.hub.unregister(c)
	_ = c.ws.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(c *client) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer func() {
		ticker.Stop()
		h.hub.unregister(c)
	}()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
