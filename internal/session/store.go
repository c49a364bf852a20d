// Package session provides session management functionality.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kyiku/arith-quiz-back/internal/model"
)

// sessionEntry holds a player and its last access time for expiry checking.
type sessionEntry struct {
	Player     *model.Player
	LastAccess time.Time
}

// SessionStore manages player sessions in memory.
type SessionStore struct {
	sessions map[string]*sessionEntry
	mu       sync.RWMutex
	expiry   time.Duration // 0 means no expiry
}

// NewSessionStore creates a new SessionStore with no expiry.
func NewSessionStore() *SessionStore {
	return NewSessionStoreWithExpiry(0)
}

// NewSessionStoreWithExpiry creates a new SessionStore whose sessions expire
// after the given idle duration.
func NewSessionStoreWithExpiry(expiry time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		expiry:   expiry,
	}
}

// Create creates a new session and returns the player and session ID.
func (s *SessionStore) Create() (*model.Player, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := model.NewPlayer()
	sessionID := uuid.New().String()
	player.SessionID = sessionID

	s.sessions[sessionID] = &sessionEntry{
		Player:     player,
		LastAccess: time.Now(),
	}

	return player, sessionID
}

// Get retrieves a player by session ID and refreshes its idle timer.
// Returns nil and false if the session does not exist or has expired.
// Expired entries stay in the store until PurgeExpired collects them.
func (s *SessionStore) Get(sessionID string) (*model.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.sessions[sessionID]
	if !exists {
		return nil, false
	}

	now := time.Now()
	if s.expiry > 0 && now.Sub(entry.LastAccess) > s.expiry {
		return nil, false
	}
	entry.LastAccess = now

	return entry.Player, true
}

// Delete removes a session by ID.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Count returns the number of stored sessions.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// PurgeExpired removes every expired session and returns them.
func (s *SessionStore) PurgeExpired() []*model.Player {
	if s.expiry <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var purged []*model.Player
	now := time.Now()
	for id, entry := range s.sessions {
		if now.Sub(entry.LastAccess) > s.expiry {
			purged = append(purged, entry.Player)
			delete(s.sessions, id)
		}
	}
	return purged
}
