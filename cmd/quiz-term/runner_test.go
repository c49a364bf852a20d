package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyiku/arith-quiz-back/internal/quiz"
)

// zeroSource makes every problem "10 + 10" (or "10 - 10").
type zeroSource struct{}

func (zeroSource) Intn(int) int { return 0 }

func newRunner(input string, limit time.Duration, display quiz.ResultDisplayMode) (*Runner, *bytes.Buffer) {
	engine := quiz.NewEngine(
		quiz.Config{TimeLimit: limit, ResultDisplayMode: display},
		quiz.WithGenerator(quiz.NewGeneratorWithSource(zeroSource{})),
	)
	var out bytes.Buffer
	r := NewRunner(engine, strings.NewReader(input), &out, false)
	r.tick = 5 * time.Millisecond
	return r, &out
}

func runWithTimeout(t *testing.T, r *Runner) (quiz.FinalReport, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Run(ctx)
}

func TestRunner_Inline(t *testing.T) {
	input := "multiply\naddition\n20\n19\nabc\n\n 20 \n20\n20\n20\n20\n20\n"
	r, out := newRunner(input, time.Minute, quiz.DisplayInline)

	report, err := runWithTimeout(t, r)

	require.NoError(t, err)
	assert.Equal(t, quiz.ModeAddition, report.Mode)
	assert.Equal(t, 7, report.Score)
	assert.Equal(t, quiz.GradeExcellent, report.Grade)

	text := out.String()
	assert.Contains(t, text, `不明なモードです: "multiply"`)
	assert.Contains(t, text, "[1/10] スコア 0  残り 60秒\n10 + 10 = ?")
	assert.Contains(t, text, "[10/10] スコア 6")
	assert.Contains(t, text, "正解です！")
	assert.Contains(t, text, "不正解。正解は 20 です。")
	assert.Contains(t, text, "数字を入力してください。正解は 20 です。")
	assert.Contains(t, text, "スコア: 7/10 (70%)")
	assert.NotContains(t, text, "\033[")
}

func TestRunner_Paused(t *testing.T) {
	r, out := newRunner(strings.Repeat("0\n\n", quiz.RoundCount), time.Minute, quiz.DisplayPaused)
	r.Mode = quiz.ModeSubtraction

	report, err := runWithTimeout(t, r)

	require.NoError(t, err)
	assert.Equal(t, quiz.RoundCount, report.Score)
	assert.Equal(t, quiz.GradeTop, report.Grade)
	assert.Equal(t, quiz.RoundCount-1, strings.Count(out.String(), "Enterで次の問題へ"))
	assert.Contains(t, out.String(), "[10/10]")
	assert.NotContains(t, out.String(), "モードを選んでください")
}

func TestRunner_TimeoutsAfterInputEnds(t *testing.T) {
	r, out := newRunner("random\n", 30*time.Millisecond, quiz.DisplayInline)

	report, err := runWithTimeout(t, r)

	require.NoError(t, err)
	assert.Equal(t, 0, report.Score)
	assert.Equal(t, quiz.RoundCount, report.TimedOutCount())
	assert.Equal(t, quiz.RoundCount, strings.Count(out.String(), "時間切れ！正解は 20 です。"))
}

func TestRunner_NoModeInput(t *testing.T) {
	r, _ := newRunner("", time.Minute, quiz.DisplayInline)

	_, err := runWithTimeout(t, r)

	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestRunner_Canceled(t *testing.T) {
	r, _ := newRunner("addition\n", time.Minute, quiz.DisplayInline)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunner_Color(t *testing.T) {
	r, out := newRunner("addition\n20\n", 100*time.Millisecond, quiz.DisplayInline)
	r.color = true

	_, err := runWithTimeout(t, r)

	require.NoError(t, err)
	assert.Contains(t, out.String(), ansiGreen+"正解です！"+ansiReset)
	assert.Contains(t, out.String(), ansiRed+"時間切れ")
}

func TestRunner_HandleLine(t *testing.T) {
	r, _ := newRunner("", time.Minute, quiz.DisplayPaused)
	var logs bytes.Buffer
	r.logger = zerolog.New(&logs)

	started := r.engine.Start(quiz.ModeAddition)
	answered := r.handleLine(started, "20")
	finished := quiz.Session{Phase: quiz.PhaseFinished}

	tests := []struct {
		name      string
		session   quiz.Session
		line      string
		wantPhase quiz.Phase
		wantLog   bool
	}{
		{name: "正常系: 回答を送信", session: started, line: "20", wantPhase: quiz.PhaseShowingResult},
		{name: "正常系: 結果表示から次へ", session: answered, line: "", wantPhase: quiz.PhaseAwaitingAnswer},
		{name: "異常系: 終了後の入力はログに残して無視", session: finished, line: "20", wantPhase: quiz.PhaseFinished, wantLog: true},
		{name: "異常系: 開始前の入力はログに残して無視", session: r.engine.Reset(), line: "20", wantPhase: quiz.PhaseNotStarted, wantLog: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()

			got := r.handleLine(tt.session, tt.line)

			assert.Equal(t, tt.wantPhase, got.Phase)
			if tt.wantLog {
				assert.Equal(t, tt.session, got)
				assert.Contains(t, logs.String(), "input ignored")
				assert.Contains(t, logs.String(), "invalid phase")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}
