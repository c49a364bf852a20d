package quiz

import (
	"strconv"
	"strings"
	"time"
)

// RoundCount is the number of rounds in a session.
const RoundCount = 10

// DefaultTimeLimit is the answer window for each round.
const DefaultTimeLimit = 5 * time.Second

// Phase is the session's position in its state machine.
type Phase string

// Phase constants
const (
	PhaseNotStarted     Phase = "not_started"
	PhaseAwaitingAnswer Phase = "awaiting_answer"
	PhaseShowingResult  Phase = "showing_result"
	PhaseFinished       Phase = "finished"
)

// RoundRecord is the resolution of one round. It is immutable once created.
type RoundRecord struct {
	Index           int           `json:"index"`
	Problem         Problem       `json:"problem"`
	SubmittedAnswer *int          `json:"submitted_answer"` // nil on timeout or unparsable input
	TimedOut        bool          `json:"timed_out"`
	Correct         bool          `json:"correct"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Session is a single ten-round attempt. It is a value owned by its caller;
// Engine operations return a new Session and never mutate their input.
type Session struct {
	Mode         Mode          `json:"mode"`
	Problems     []Problem     `json:"problems"`
	Rounds       []RoundRecord `json:"rounds"`
	CurrentIndex int           `json:"current_index"`
	Score        int           `json:"score"`
	Phase        Phase         `json:"phase"`

	RoundStartedAt time.Time `json:"round_started_at"`
	Deadline       time.Time `json:"deadline"` // zero when no round is open
}

// HasDeadline reports whether a round is currently open.
func (s Session) HasDeadline() bool {
	return !s.Deadline.IsZero()
}

// CurrentProblem returns the problem for the current round.
func (s Session) CurrentProblem() (Problem, bool) {
	if s.Phase == PhaseNotStarted || s.CurrentIndex >= len(s.Problems) {
		return Problem{}, false
	}
	return s.Problems[s.CurrentIndex], true
}

// LastRound returns the most recently resolved round.
func (s Session) LastRound() (RoundRecord, bool) {
	if len(s.Rounds) == 0 {
		return RoundRecord{}, false
	}
	return s.Rounds[len(s.Rounds)-1], true
}

// clone copies the slices so the returned Session shares nothing with s.
func (s Session) clone() Session {
	next := s
	if s.Problems != nil {
		next.Problems = append([]Problem(nil), s.Problems...)
	}
	next.Rounds = append(make([]RoundRecord, 0, len(s.Rounds)+1), s.Rounds...)
	return next
}

// openRound starts the answer window for CurrentIndex.
func (s *Session) openRound(now time.Time, limit time.Duration) {
	s.Phase = PhaseAwaitingAnswer
	s.RoundStartedAt = now
	s.Deadline = now.Add(limit)
}

// closeRound clears the answer window.
func (s *Session) closeRound() {
	s.RoundStartedAt = time.Time{}
	s.Deadline = time.Time{}
}

// ParseAnswer parses answer text as an integer after trimming whitespace.
func ParseAnswer(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return v, true
}
