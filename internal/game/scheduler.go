package game

import (
	"sync"
	"time"

	"github.com/kyiku/arith-quiz-back/internal/delay"
	"github.com/kyiku/arith-quiz-back/internal/model"
	"github.com/kyiku/arith-quiz-back/internal/quiz"
)

// playerTimers holds the timers armed for one player.
type playerTimers struct {
	round   *RoundTimeout
	advance *delay.DelayExecutor
}

// Scheduler keeps one deadline timer and one auto-advance timer per player
// in step with the player's session phase.
type Scheduler struct {
	mu          sync.Mutex
	engine      *quiz.Engine
	now         func() time.Time
	autoAdvance time.Duration // 0 means wait for an explicit advance
	timers      map[string]*playerTimers
	onChange    ChangeFunc
}

// NewScheduler creates a new Scheduler.
func NewScheduler(engine *quiz.Engine, autoAdvance time.Duration) *Scheduler {
	return &Scheduler{
		engine:      engine,
		now:         time.Now,
		autoAdvance: autoAdvance,
		timers:      make(map[string]*playerTimers),
	}
}

// SetClock sets the clock used for engine calls made by timers.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetOnChange sets the callback run after a timer changed a session.
func (s *Scheduler) SetOnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Sync re-arms the player's timers for its current session.
// It must be called after every change to the session.
func (s *Scheduler) Sync(player *model.Player) {
	// Snapshot before taking s.mu: timers hold the player lock while reading the clock.
	session := player.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	pt := s.timersFor(player)
	pt.round.Cancel()
	pt.advance.Cancel()

	switch session.Phase {
	case quiz.PhaseAwaitingAnswer:
		pt.round.Start(s.engine.Remaining(session, s.now()))
	case quiz.PhaseShowingResult:
		if s.autoAdvance > 0 {
			pt.advance.Schedule(s.autoAdvance, func() { s.advance(player) })
		}
	}
}

// Cancel stops and forgets every timer of the player.
func (s *Scheduler) Cancel(player *model.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pt, ok := s.timers[player.ID]; ok {
		pt.round.Cancel()
		pt.advance.Cancel()
		delete(s.timers, player.ID)
	}
}

// IsRoundTimerRunning reports whether the player's deadline timer is armed.
func (s *Scheduler) IsRoundTimerRunning(player *model.Player) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, ok := s.timers[player.ID]
	return ok && pt.round.IsRunning()
}

// timersFor returns the player's timers, creating them if needed. s.mu must be held.
func (s *Scheduler) timersFor(player *model.Player) *playerTimers {
	pt, ok := s.timers[player.ID]
	if !ok {
		pt = &playerTimers{
			round:   NewRoundTimeout(player, s.engine, s.clock, s.changed),
			advance: delay.NewDelayExecutor(),
		}
		s.timers[player.ID] = pt
	}
	return pt
}

// advance leaves the result screen once the auto-advance delay has passed.
func (s *Scheduler) advance(player *model.Player) {
	now := s.clock()
	prev, next, err := player.Update(func(session quiz.Session) (quiz.Session, error) {
		return s.engine.Advance(session, now)
	})
	if err != nil {
		// The player already advanced or reset.
		return
	}
	s.changed(player, prev, next)
}

// changed re-arms the timers and forwards the change to the callback.
func (s *Scheduler) changed(player *model.Player, prev, next quiz.Session) {
	s.Sync(player)

	s.mu.Lock()
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(player, prev, next)
	}
}

func (s *Scheduler) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}
