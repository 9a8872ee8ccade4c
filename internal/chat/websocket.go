package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ashureev/taskchat/internal/api"
	"github.com/ashureev/taskchat/internal/dispatch"
	"github.com/ashureev/taskchat/internal/domain"
	"github.com/ashureev/taskchat/internal/middleware"
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const writeTimeout = 10 * time.Second

// EventRouter handles one event and returns the reply to render.
type EventRouter interface {
	Handle(ctx context.Context, ev dispatch.Event) domain.Response
}

// WebSocketHandler serves chat sessions over WebSocket. A connection is
// bound to the user named by the user_id query parameter; each text frame
// is one event and each reply one response frame.
type WebSocketHandler struct {
	router         EventRouter
	sm             *SessionManager
	limiter        *middleware.RateLimiter
	allowedOrigins []string
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(router EventRouter, sm *SessionManager, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		router:         router,
		sm:             sm,
		limiter:        middleware.NewRateLimiter(0, 0),
		allowedOrigins: allowedOrigins,
	}
}

// SetRateLimiter throttles events per user across all their connections.
func (h *WebSocketHandler) SetRateLimiter(rl *middleware.RateLimiter) {
	h.limiter = rl
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "user_id query parameter required", http.StatusBadRequest)
		return
	}
	displayName := r.URL.Query().Get("display_name")
	connID := uuid.NewString()
	slog.Info("WebSocket connection request", "user_id", userID, "conn_id", connID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	h.sm.Register(userID, connID, ws)
	defer h.sm.Unregister(userID, connID, ws)

	h.readLoop(r.Context(), ws, userID, displayName)
	slog.Info("Chat session ended", "user_id", userID, "conn_id", connID)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.allowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigins)
	return false
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, userID int64, displayName string) {
	for {
		typ, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else if ctx.Err() == nil {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}
		if typ != websocket.MessageText {
			if err := h.writeJSON(ctx, ws, map[string]string{"error": "text frames only"}); err != nil {
				return
			}
			continue
		}

		reply := h.handleFrame(ctx, message, userID, displayName)
		if err := h.writeJSON(ctx, ws, reply); err != nil {
			slog.Debug("Failed to write reply", "error", err, "user_id", userID)
			return
		}
	}
}

// handleFrame turns one raw frame into the value written back.
func (h *WebSocketHandler) handleFrame(ctx context.Context, message []byte, userID int64, displayName string) interface{} {
	frame, err := api.DecodeFrame(bytes.NewReader(message))
	if err != nil {
		return map[string]string{"error": err.Error()}
	}
	if frame.Type == "ping" {
		return map[string]string{"type": "pong"}
	}
	if frame.UserID == 0 {
		frame.UserID = userID
	}
	if frame.UserID != userID {
		slog.Warn("Frame for another user rejected", "user_id", userID, "frame_user_id", frame.UserID)
		return map[string]string{"error": "user_id does not match connection"}
	}
	if !h.limiter.Allow(strconv.FormatInt(userID, 10)) {
		slog.Warn("Rate limit exceeded", "user_id", userID)
		return map[string]string{"error": "rate limit exceeded"}
	}
	if frame.DisplayName == "" {
		frame.DisplayName = displayName
	}

	ev, err := frame.Event()
	if err != nil {
		return map[string]string{"error": err.Error()}
	}
	return h.router.Handle(ctx, ev)
}

func (h *WebSocketHandler) writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}
