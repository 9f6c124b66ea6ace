package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/radialmap/pkg/engine"
)

// session binds one engine to one client-visible UUID. The engine carries
// its own lock; the manager only guards the map and the idle timestamps.
type session struct {
	id      string
	eng     *engine.Engine
	created time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// touch records activity for idle eviction.
func (s *session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// idleSince returns the last activity timestamp.
func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// sessionManager owns the session map.
type sessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionManager() *sessionManager {
	return &sessionManager{sessions: make(map[string]*session)}
}

// create registers a fresh session around the engine and returns it.
func (m *sessionManager) create(eng *engine.Engine) *session {
	now := time.Now()
	sess := &session{
		id:       uuid.NewString(),
		eng:      eng,
		created:  now,
		lastSeen: now,
	}
	m.mu.Lock()
	m.sessions[sess.id] = sess
	m.mu.Unlock()
	return sess
}

// get returns the session and marks it active.
func (m *sessionManager) get(id string) (*session, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		sess.touch()
	}
	return sess, ok
}

// delete removes the session; it reports whether one existed.
func (m *sessionManager) delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// evictIdle removes sessions idle longer than ttl and returns the count.
func (m *sessionManager) evictIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, sess := range m.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// len returns the number of live sessions.
func (m *sessionManager) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
