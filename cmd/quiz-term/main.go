// Command quiz-term plays the arithmetic quiz in a terminal.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kyiku/arith-quiz-back/internal/config"
	"github.com/kyiku/arith-quiz-back/internal/quiz"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	mode := flag.String("mode", "", "addition, subtraction or random (prompted when empty)")
	timeLimit := flag.Duration("time-limit", cfg.TimeLimit, "time allowed per question")
	paused := flag.Bool("paused", cfg.ResultDisplayMode == quiz.DisplayPaused, "wait for Enter after each result")
	flag.Parse()

	quizCfg := cfg.QuizConfig()
	quizCfg.TimeLimit = *timeLimit
	quizCfg.ResultDisplayMode = quiz.DisplayInline
	if *paused {
		quizCfg.ResultDisplayMode = quiz.DisplayPaused
	}

	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	runner := NewRunner(quiz.NewEngine(quizCfg), os.Stdin, os.Stdout, color)
	if *mode != "" {
		m, err := quiz.ParseMode(*mode)
		if err != nil {
			log.Fatal().Err(err).Str("mode", *mode).Msg("invalid mode")
		}
		runner.Mode = m
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := runner.Run(ctx); err != nil {
		log.Error().Err(err).Msg("quiz aborted")
		os.Exit(1)
	}
}
