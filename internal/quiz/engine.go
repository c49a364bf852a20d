package quiz

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPhase is returned when an operation is called in a phase that does not allow it.
var ErrInvalidPhase = errors.New("invalid phase for operation")

// ResultDisplayMode selects how a resolved round is sequenced.
type ResultDisplayMode string

// ResultDisplayMode constants
const (
	// DisplayInline opens the next round immediately.
	DisplayInline ResultDisplayMode = "inline"
	// DisplayPaused stops at PhaseShowingResult until Advance is called.
	DisplayPaused ResultDisplayMode = "paused"
)

// ParseResultDisplayMode converts a name into a ResultDisplayMode.
func ParseResultDisplayMode(name string) (ResultDisplayMode, error) {
	switch ResultDisplayMode(name) {
	case DisplayInline, "":
		return DisplayInline, nil
	case DisplayPaused:
		return DisplayPaused, nil
	}
	return "", fmt.Errorf("unknown result display mode %q", name)
}

// Config holds the engine settings.
type Config struct {
	TimeLimit         time.Duration
	ResultDisplayMode ResultDisplayMode
}

// DefaultConfig returns the standard 5 second, inline configuration.
func DefaultConfig() Config {
	return Config{
		TimeLimit:         DefaultTimeLimit,
		ResultDisplayMode: DisplayInline,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithGenerator sets the problem generator.
func WithGenerator(g *Generator) Option {
	return func(e *Engine) {
		e.generator = g
	}
}

// WithClock sets the clock used by Start.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine drives sessions through their state machine. It holds no session
// state itself and may be shared between sessions.
type Engine struct {
	cfg       Config
	generator *Generator
	now       func() time.Time
}

// NewEngine creates a new Engine. Zero config fields fall back to DefaultConfig.
func NewEngine(cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = def.TimeLimit
	}
	if cfg.ResultDisplayMode == "" {
		cfg.ResultDisplayMode = def.ResultDisplayMode
	}

	e := &Engine{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.generator == nil {
		e.generator = NewGenerator()
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Start generates a fresh batch of problems and opens the first round.
// It may be called from any phase.
func (e *Engine) Start(mode Mode) Session {
	s := Session{
		Mode:     mode,
		Problems: e.generator.GenerateBatch(mode, RoundCount),
		Rounds:   []RoundRecord{},
	}
	s.openRound(e.now(), e.cfg.TimeLimit)
	return s
}

// Submit resolves the current round with the raw answer text.
// A submission at or after the deadline is a timeout regardless of rawInput.
// Unparsable input is recorded as an incorrect answer, not an error.
func (e *Engine) Submit(s Session, rawInput string, now time.Time) (Session, error) {
	if s.Phase != PhaseAwaitingAnswer || s.CurrentIndex >= len(s.Problems) {
		return s, fmt.Errorf("%w: submit while %s", ErrInvalidPhase, s.Phase)
	}
	return e.record(s, e.resolve(s, rawInput, now), now), nil
}

// CheckTimeout records a timeout if the current round's deadline has passed.
// It returns the session unchanged and false when there is nothing to do,
// so it is safe to call on every tick.
func (e *Engine) CheckTimeout(s Session, now time.Time) (Session, bool) {
	if s.Phase != PhaseAwaitingAnswer || s.CurrentIndex >= len(s.Problems) {
		return s, false
	}
	if now.Before(s.Deadline) {
		return s, false
	}
	return e.record(s, e.resolve(s, "", now), now), true
}

// Advance leaves PhaseShowingResult and opens the next round.
func (e *Engine) Advance(s Session, now time.Time) (Session, error) {
	if s.Phase != PhaseShowingResult {
		return s, fmt.Errorf("%w: advance while %s", ErrInvalidPhase, s.Phase)
	}
	next := s.clone()
	next.openRound(now, e.cfg.TimeLimit)
	return next, nil
}

// Report builds the final report of a finished session.
func (e *Engine) Report(s Session) (FinalReport, error) {
	if s.Phase != PhaseFinished {
		return FinalReport{}, fmt.Errorf("%w: report while %s", ErrInvalidPhase, s.Phase)
	}

	percentage := float64(s.Score) / float64(RoundCount) * 100
	return FinalReport{
		Mode:       s.Mode,
		Score:      s.Score,
		Total:      RoundCount,
		Percentage: percentage,
		Grade:      GradeFor(percentage),
		Rounds:     append([]RoundRecord(nil), s.Rounds...),
	}, nil
}

// Reset returns a NotStarted session, discarding everything in s.
func (e *Engine) Reset() Session {
	return Session{
		Phase:  PhaseNotStarted,
		Rounds: []RoundRecord{},
	}
}

// Remaining returns the time left in the open round, or 0 if none is open.
func (e *Engine) Remaining(s Session, now time.Time) time.Duration {
	if s.Phase != PhaseAwaitingAnswer || !s.HasDeadline() {
		return 0
	}
	if d := s.Deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// resolve evaluates the current round. The deadline is checked before parsing.
func (e *Engine) resolve(s Session, rawInput string, now time.Time) RoundRecord {
	rec := RoundRecord{
		Index:   s.CurrentIndex,
		Problem: s.Problems[s.CurrentIndex],
		Elapsed: now.Sub(s.RoundStartedAt),
	}

	if !now.Before(s.Deadline) {
		rec.TimedOut = true
		return rec
	}

	answer, ok := ParseAnswer(rawInput)
	if !ok {
		return rec
	}
	rec.SubmittedAnswer = &answer
	rec.Correct = answer == rec.Problem.Answer
	return rec
}

// record appends rec and moves the session to its next phase.
func (e *Engine) record(s Session, rec RoundRecord, now time.Time) Session {
	next := s.clone()
	next.Rounds = append(next.Rounds, rec)
	if rec.Correct {
		next.Score++
	}
	next.CurrentIndex++

	switch {
	case next.CurrentIndex >= len(next.Problems):
		next.Phase = PhaseFinished
		next.closeRound()
	case e.cfg.ResultDisplayMode == DisplayPaused:
		next.Phase = PhaseShowingResult
		next.closeRound()
	default:
		next.openRound(now, e.cfg.TimeLimit)
	}
	return next
}
