package session

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wfunc/flowerzone/network"
)

// Session is one transport connection. Its ID doubles as the player id.
type Session struct {
	ID         string
	Conn       network.Connection
	RemoteAddr string
	CreatedAt  time.Time

	limiter *rate.Limiter
}

func NewSession(id string, conn network.Connection, limiter *rate.Limiter) *Session {
	s := &Session{
		ID:        id,
		Conn:      conn,
		CreatedAt: time.Now(),
		limiter:   limiter,
	}
	if addr := conn.RemoteAddr(); addr != nil {
		s.RemoteAddr = addr.String()
	}
	return s
}

// Allow reports whether one more inbound message fits the session's rate.
// A session without a limiter allows everything.
func (s *Session) Allow() bool {
	if s.limiter == nil {
		return true
	}
	return s.limiter.Allow()
}

func (s *Session) Send(msgID uint16, data []byte) error {
	return s.Conn.Send(msgID, data)
}

func (s *Session) IsOpen() bool {
	return s.Conn.IsOpen()
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager is the connection registry.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// CloseAll closes and forgets every session.
func (m *Manager) CloseAll() {
	m.mutex.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mutex.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
