package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kyiku/arith-quiz-back/internal/ai"
	"github.com/kyiku/arith-quiz-back/internal/quiz"
	"github.com/kyiku/arith-quiz-back/internal/stage"
)

const (
	ansiReset = "\033[0m"
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiWarn  = "\033[33m"
)

// Runner plays one quiz on a line-based terminal.
type Runner struct {
	engine *quiz.Engine
	in     io.Reader
	out    io.Writer
	color  bool
	tick   time.Duration
	now    func() time.Time
	logger zerolog.Logger

	// Mode skips the mode prompt when set.
	Mode quiz.Mode
}

// NewRunner creates a Runner reading answers from in and drawing to out.
func NewRunner(engine *quiz.Engine, in io.Reader, out io.Writer, color bool) *Runner {
	return &Runner{
		engine: engine,
		in:     in,
		out:    out,
		color:  color,
		tick:   100 * time.Millisecond,
		now:    time.Now,
		logger: log.Logger,
	}
}

// Run plays a full session and returns its report. Once input ends the
// remaining rounds run out on their timers.
func (r *Runner) Run(ctx context.Context) (quiz.FinalReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	mode := r.Mode
	if mode == "" {
		var err error
		if mode, err = r.promptMode(ctx, lines); err != nil {
			return quiz.FinalReport{}, err
		}
	}

	s := r.engine.Start(mode)
	r.drawProblem(s)
	urgency := stage.UrgencyOK

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for s.Phase != quiz.PhaseFinished {
		prev := s

		select {
		case <-ctx.Done():
			return quiz.FinalReport{}, ctx.Err()

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			s = r.handleLine(s, line)

		case <-ticker.C:
			next, expired := r.engine.CheckTimeout(s, r.now())
			if expired {
				s = next
			} else if s.Phase == quiz.PhaseAwaitingAnswer {
				if u := stage.UrgencyFor(r.engine.Remaining(s, r.now())); u != urgency {
					urgency = u
					r.drawCountdown(s)
				}
			}
		}

		if len(s.Rounds) > len(prev.Rounds) {
			r.drawResult(s)
		}
		if s.Phase == quiz.PhaseShowingResult && prev.Phase != quiz.PhaseShowingResult {
			fmt.Fprintln(r.out, "Enterで次の問題へ")
		}
		if s.Phase == quiz.PhaseAwaitingAnswer && (s.CurrentIndex != prev.CurrentIndex || prev.Phase != quiz.PhaseAwaitingAnswer) {
			urgency = stage.UrgencyOK
			r.drawProblem(s)
		}
	}

	report, err := r.engine.Report(s)
	if err != nil {
		return quiz.FinalReport{}, err
	}
	r.drawReport(report)
	return report, nil
}

// handleLine submits an answer or advances past a shown result. Input in any
// other phase is logged and dropped.
func (r *Runner) handleLine(s quiz.Session, line string) quiz.Session {
	var (
		next quiz.Session
		err  error
	)
	switch s.Phase {
	case quiz.PhaseAwaitingAnswer:
		next, err = r.engine.Submit(s, line, r.now())
	case quiz.PhaseShowingResult:
		next, err = r.engine.Advance(s, r.now())
	default:
		err = fmt.Errorf("%w: input while %s", quiz.ErrInvalidPhase, s.Phase)
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("phase", string(s.Phase)).Msg("input ignored")
		return s
	}
	return next
}

func (r *Runner) promptMode(ctx context.Context, lines <-chan string) (quiz.Mode, error) {
	for {
		fmt.Fprint(r.out, "モードを選んでください (addition / subtraction / random): ")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return "", io.ErrUnexpectedEOF
			}
			mode, err := quiz.ParseMode(line)
			if err == nil {
				return mode, nil
			}
			fmt.Fprintf(r.out, "不明なモードです: %q\n", strings.TrimSpace(line))
		}
	}
}

func (r *Runner) drawProblem(s quiz.Session) {
	state := stage.BuildState(r.engine, s, r.now())
	fmt.Fprintf(r.out, "\n[%d/%d] スコア %d  残り %.0f秒\n%s = ? ",
		state.Round, state.Total, state.Score,
		(time.Duration(state.RemainingMS) * time.Millisecond).Seconds(),
		state.Problem)
}

func (r *Runner) drawCountdown(s quiz.Session) {
	remaining := r.engine.Remaining(s, r.now())
	fmt.Fprintf(r.out, "\n%s残り %.0f秒！%s ", r.paint(ansiWarn), remaining.Seconds(), r.paint(ansiReset))
}

func (r *Runner) drawResult(s quiz.Session) {
	last, ok := s.LastRound()
	if !ok {
		return
	}
	code := ansiRed
	if last.Correct {
		code = ansiGreen
	}
	fmt.Fprintf(r.out, "\n%s%s%s\n", r.paint(code), stage.ResultMessage(last), r.paint(ansiReset))
}

func (r *Runner) drawReport(report quiz.FinalReport) {
	fmt.Fprintf(r.out, "\n=== 結果 ===\nスコア: %d/%d (%.0f%%)\n", report.Score, report.Total, report.Percentage)
	for _, round := range report.Rounds {
		mark := "×"
		switch {
		case round.TimedOut:
			mark = "⏱"
		case round.Correct:
			mark = "○"
		}
		fmt.Fprintf(r.out, "%2d. %s %s = %d\n", round.Index+1, mark, round.Problem, round.Problem.Answer)
	}
	fmt.Fprintln(r.out, ai.GradeMessage(report.Grade))
}

func (r *Runner) paint(code string) string {
	if !r.color {
		return ""
	}
	return code
}
