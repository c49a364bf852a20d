// Package model provides data models for the application.
package model

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kyiku/arith-quiz-back/internal/quiz"
)

// WebSocketConn defines the interface for WebSocket connections.
type WebSocketConn interface {
	WriteMessage(messageType int, data []byte) error
	WriteJSON(v interface{}) error
	Close() error
}

// Player is one participant and the quiz session it owns.
// All engine calls for a player go through Update, so no two operations
// ever run against the same session at once.
type Player struct {
	ID        string    // UUID
	SessionID string    // Session ID (Cookie)
	JoinedAt  time.Time // When the session was created

	mu       sync.Mutex
	quiz     quiz.Session
	archived bool

	connMu sync.Mutex
	conn   WebSocketConn
}

// NewPlayer creates a new Player with a NotStarted session.
func NewPlayer() *Player {
	return &Player{
		ID:       uuid.New().String(),
		JoinedAt: time.Now(),
		quiz: quiz.Session{
			Phase:  quiz.PhaseNotStarted,
			Rounds: []quiz.RoundRecord{},
		},
	}
}

// Snapshot returns the current session.
func (p *Player) Snapshot() quiz.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quiz
}

// Update applies fn to the current session and stores the result.
// The stored session is left unchanged when fn returns an error.
// It returns the session before and after the update.
func (p *Player) Update(fn func(quiz.Session) (quiz.Session, error)) (prev, next quiz.Session, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev = p.quiz
	next, err = fn(prev)
	if err != nil {
		return prev, prev, err
	}
	if next.Phase != quiz.PhaseFinished {
		p.archived = false
	}
	p.quiz = next
	return prev, next, nil
}

// MarkArchived records that the finished report has been archived.
// It returns false if it was already archived.
func (p *Player) MarkArchived() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.archived || p.quiz.Phase != quiz.PhaseFinished {
		return false
	}
	p.archived = true
	return true
}

// Conn returns the WebSocket connection, or nil.
func (p *Player) Conn() WebSocketConn {
	p.connMu.Lock()
	defer p.connMu.Unlock()
	return p.conn
}

// SetConn replaces the WebSocket connection and returns the previous one.
func (p *Player) SetConn(conn WebSocketConn) WebSocketConn {
	p.connMu.Lock()
	defer p.connMu.Unlock()
	prev := p.conn
	p.conn = conn
	return prev
}

// ClearConn removes conn if it is still the current connection.
func (p *Player) ClearConn(conn WebSocketConn) {
	p.connMu.Lock()
	defer p.connMu.Unlock()
	if p.conn == conn {
		p.conn = nil
	}
}

// Send writes v as JSON to the WebSocket connection, if any.
// Writes are serialised because a connection allows only one writer.
func (p *Player) Send(v interface{}) error {
	p.connMu.Lock()
	defer p.connMu.Unlock()
	if p.conn == nil {
		return nil
	}
	return p.conn.WriteJSON(v)
}
