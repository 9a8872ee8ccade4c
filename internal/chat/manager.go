// Package chat provides the WebSocket chat gateway.
package chat

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// SessionManager tracks open chat connections per user. A user may hold
// several connections at once, one per client.
type SessionManager struct {
	mu     sync.RWMutex
	active map[int64]map[string]*websocket.Conn
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		active: make(map[int64]map[string]*websocket.Conn),
	}
}

// Register adds a connection. A different connection already registered
// under the same id is closed.
func (m *SessionManager) Register(userID int64, connID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[userID]; !exists {
		m.active[userID] = make(map[string]*websocket.Conn)
	}

	if existing, exists := m.active[userID][connID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "connection replaced")
	}

	m.active[userID][connID] = conn
	slog.Info("Chat connection registered", "user_id", userID, "conn_id", connID)
}

// Unregister removes a connection if it is still the registered one.
func (m *SessionManager) Unregister(userID int64, connID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conns, ok := m.active[userID]; ok {
		if current, exists := conns[connID]; exists && current == conn {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(m.active, userID)
			}
			slog.Info("Chat connection unregistered", "user_id", userID, "conn_id", connID)
		}
	}
}

// Count returns the number of open connections.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, conns := range m.active {
		n += len(conns)
	}
	return n
}

// CloseAll terminates every connection. Used on shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID := range m.active {
		m.closeLocked(userID, "server shutting down")
	}
}

func (m *SessionManager) closeLocked(userID int64, reason string) {
	conns, ok := m.active[userID]
	if !ok {
		return
	}
	for id, conn := range conns {
		_ = conn.Close(websocket.StatusGoingAway, reason)
		slog.Info("Chat connection closed", "user_id", userID, "conn_id", id)
	}
	delete(m.active, userID)
}
