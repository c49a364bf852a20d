package stage

import (
	"time"

	"github.com/kyiku/arith-quiz-back/internal/quiz"
)

// phaseMessages contains the WebSocket messages for each phase.
var phaseMessages = map[quiz.Phase]string{
	quiz.PhaseNotStarted:     "モードを選んでスタートしてください",
	quiz.PhaseAwaitingAnswer: "答えを入力してください",
	quiz.PhaseShowingResult:  "結果を確認して次へ進んでください",
	quiz.PhaseFinished:       "全問終了！結果を確認してください",
}

// Sender delivers a JSON message to a client.
type Sender interface {
	Send(v interface{}) error
}

// Notifier announces session changes to a client.
type Notifier struct {
	engine *quiz.Engine
}

// NewNotifier creates a new Notifier.
func NewNotifier(engine *quiz.Engine) *Notifier {
	return &Notifier{engine: engine}
}

// Announce sends a round_result message for a newly resolved round,
// a phase_change message when the phase changed, and always a fresh state.
func (n *Notifier) Announce(to Sender, prev, next quiz.Session, now time.Time) error {
	if len(next.Rounds) > len(prev.Rounds) {
		if last, ok := next.LastRound(); ok {
			if err := to.Send(map[string]interface{}{
				"type":   "round_result",
				"result": ResultOf(last),
			}); err != nil {
				return err
			}
		}
	}

	if prev.Phase != next.Phase {
		message, ok := phaseMessages[next.Phase]
		if !ok {
			message = "フェーズが変更されました"
		}
		if err := to.Send(map[string]interface{}{
			"type":    "phase_change",
			"from":    prev.Phase,
			"to":      next.Phase,
			"message": message,
		}); err != nil {
			return err
		}
	}

	return to.Send(BuildState(n.engine, next, now))
}
