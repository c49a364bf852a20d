// Package stage builds the client-facing view of a quiz session and
// announces phase changes over WebSocket.
package stage

import (
	"fmt"
	"time"

	"github.com/kyiku/arith-quiz-back/internal/quiz"
)

// Urgency levels for the remaining-time display.
const (
	UrgencyOK     = "ok"
	UrgencyWarn   = "warn"
	UrgencyDanger = "danger"
)

// RoundResult is the client view of a resolved round.
type RoundResult struct {
	Round           int    `json:"round"`
	Problem         string `json:"problem"`
	CorrectAnswer   int    `json:"correct_answer"`
	SubmittedAnswer *int   `json:"submitted_answer"`
	Correct         bool   `json:"correct"`
	TimedOut        bool   `json:"timed_out"`
	ElapsedMS       int64  `json:"elapsed_ms"`
	Message         string `json:"message"`
}

// State is the snapshot a renderer redraws from.
// It never contains the answer to the open round.
type State struct {
	Type        string       `json:"type"`
	Phase       quiz.Phase   `json:"phase"`
	Mode        quiz.Mode    `json:"mode,omitempty"`
	Round       int          `json:"round"`
	Total       int          `json:"total"`
	Score       int          `json:"score"`
	Answered    int          `json:"answered"`
	Problem     string       `json:"problem,omitempty"`
	RemainingMS int64        `json:"remaining_ms"`
	TimeLimitMS int64        `json:"time_limit_ms"`
	Urgency     string       `json:"urgency,omitempty"`
	LastResult  *RoundResult `json:"last_result,omitempty"`
}

// BuildState creates the state snapshot of s at now.
func BuildState(engine *quiz.Engine, s quiz.Session, now time.Time) State {
	state := State{
		Type:        "state",
		Phase:       s.Phase,
		Mode:        s.Mode,
		Total:       quiz.RoundCount,
		Score:       s.Score,
		Answered:    len(s.Rounds),
		TimeLimitMS: engine.Config().TimeLimit.Milliseconds(),
	}

	if s.Phase == quiz.PhaseNotStarted {
		state.Mode = ""
		return state
	}

	state.Round = s.CurrentIndex + 1
	if state.Round > quiz.RoundCount {
		state.Round = quiz.RoundCount
	}

	if s.Phase == quiz.PhaseAwaitingAnswer {
		if p, ok := s.CurrentProblem(); ok {
			state.Problem = p.String()
		}
		remaining := engine.Remaining(s, now)
		state.RemainingMS = remaining.Milliseconds()
		state.Urgency = UrgencyFor(remaining)
	}

	if last, ok := s.LastRound(); ok {
		result := ResultOf(last)
		state.LastResult = &result
	}
	return state
}

// ResultOf converts a round record into its client view.
func ResultOf(r quiz.RoundRecord) RoundResult {
	return RoundResult{
		Round:           r.Index + 1,
		Problem:         r.Problem.String(),
		CorrectAnswer:   r.Problem.Answer,
		SubmittedAnswer: r.SubmittedAnswer,
		Correct:         r.Correct,
		TimedOut:        r.TimedOut,
		ElapsedMS:       r.Elapsed.Milliseconds(),
		Message:         ResultMessage(r),
	}
}

// ResultMessage returns the feedback line shown for a resolved round.
func ResultMessage(r quiz.RoundRecord) string {
	switch {
	case r.Correct:
		return "正解です！"
	case r.TimedOut:
		return fmt.Sprintf("時間切れ！正解は %d です。", r.Problem.Answer)
	case r.SubmittedAnswer == nil:
		return fmt.Sprintf("数字を入力してください。正解は %d です。", r.Problem.Answer)
	default:
		return fmt.Sprintf("不正解。正解は %d です。", r.Problem.Answer)
	}
}

// UrgencyFor maps remaining time onto a display urgency.
func UrgencyFor(remaining time.Duration) string {
	switch {
	case remaining <= time.Second:
		return UrgencyDanger
	case remaining <= 2*time.Second:
		return UrgencyWarn
	default:
		return UrgencyOK
	}
}
