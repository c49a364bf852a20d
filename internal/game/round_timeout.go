// Package game drives quiz sessions from timers: round deadlines and the
// auto-advance out of the result screen.
package game

import (
	"sync"
	"time"

	"github.com/kyiku/arith-quiz-back/internal/model"
	"github.com/kyiku/arith-quiz-back/internal/quiz"
)

// ChangeFunc is called after a timer changed a player's session.
type ChangeFunc func(player *model.Player, prev, next quiz.Session)

// RoundTimeout records a timeout for a player's open round once its deadline passes.
type RoundTimeout struct {
	mu       sync.Mutex
	player   *model.Player
	engine   *quiz.Engine
	now      func() time.Time
	timer    *time.Timer
	running  bool
	canceled bool
	onChange ChangeFunc
}

// NewRoundTimeout creates a new RoundTimeout for a player.
func NewRoundTimeout(player *model.Player, engine *quiz.Engine, now func() time.Time, onChange ChangeFunc) *RoundTimeout {
	return &RoundTimeout{
		player:   player,
		engine:   engine,
		now:      now,
		onChange: onChange,
	}
}

// Start begins the countdown; the deadline check runs after timeout.
func (t *RoundTimeout) Start(timeout time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.running = true
	t.canceled = false
	t.timer = time.AfterFunc(timeout, t.handleTimeout)
}

// Cancel stops the countdown (called when the round is resolved some other way).
func (t *RoundTimeout) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.canceled = true
	t.running = false
	if t.timer != nil {
		t.timer.Stop()
	}
}

// IsRunning returns whether the countdown is currently running.
func (t *RoundTimeout) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// handleTimeout is called when the countdown expires.
func (t *RoundTimeout) handleTimeout() {
	t.mu.Lock()
	if t.canceled {
		t.mu.Unlock()
		return
	}
	t.running = false
	player := t.player
	onChange := t.onChange
	t.mu.Unlock()

	now := t.now()
	var expired bool
	prev, next, _ := player.Update(func(s quiz.Session) (quiz.Session, error) {
		var updated quiz.Session
		updated, expired = t.engine.CheckTimeout(s, now)
		return updated, nil
	})

	if !expired {
		// Fired early against the session clock: wait for the rest of the window.
		if remaining := t.engine.Remaining(next, now); remaining > 0 {
			t.Start(remaining)
		}
		return
	}
	if onChange != nil {
		onChange(player, prev, next)
	}
}
