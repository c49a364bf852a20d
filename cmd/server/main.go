package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kyiku/arith-quiz-back/internal/ai"
	"github.com/kyiku/arith-quiz-back/internal/config"
	"github.com/kyiku/arith-quiz-back/internal/game"
	"github.com/kyiku/arith-quiz-back/internal/handler"
	"github.com/kyiku/arith-quiz-back/internal/middleware"
	"github.com/kyiku/arith-quiz-back/internal/quiz"
	"github.com/kyiku/arith-quiz-back/internal/session"
	"github.com/kyiku/arith-quiz-back/internal/storage"
)

// BedrockAdapter adapts AWS Bedrock client to our interface
type BedrockAdapter struct {
	client *bedrockruntime.Client
}

// BedrockRequest represents the request body for Claude via Bedrock
type BedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Messages         []BedrockMessage `json:"messages"`
}

// BedrockMessage represents a message in the Bedrock request
type BedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (a *BedrockAdapter) InvokeModel(modelID string, prompt string) (string, error) {
	req := BedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        200,
		Messages: []BedrockMessage{
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	output, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &modelID,
		Body:        body,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", err
	}

	return string(output.Body), nil
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	// Core
	engine := quiz.NewEngine(cfg.QuizConfig())
	scheduler := game.NewScheduler(engine, cfg.AutoAdvance)
	sessionStore := session.NewSessionStoreWithExpiry(cfg.SessionExpiry)

	quizHandler := handler.NewQuizHandler(sessionStore, engine, scheduler)
	scheduler.SetOnChange(quizHandler.Announce)

	// AWS
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Warn().Err(err).Msg("failed to load AWS config (reports are not archived, coach uses fixed messages)")
	}

	if err == nil && cfg.S3Bucket != "" {
		s3Adapter := storage.NewS3Adapter(s3.NewFromConfig(awsCfg), cfg.S3Bucket)
		quizHandler.SetArchive(storage.NewReportArchive(s3Adapter, cfg.ReportPrefix))
		log.Info().Str("bucket", cfg.S3Bucket).Str("prefix", cfg.ReportPrefix).Msg("report archive enabled")
	}

	coach := ai.NewCoach(nil)
	if err == nil && cfg.BedrockEnabled {
		coach = ai.NewCoach(&BedrockAdapter{client: bedrockruntime.NewFromConfig(awsCfg)})
		coach.EnableFallback(true)
		log.Info().Msg("bedrock coach enabled")
	}
	quizHandler.SetCoach(coach)

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(log.Logger))
	e.Use(echomw.Recover())
	e.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	healthHandler := handler.NewHealthHandler(sessionStore)
	wsHandler := handler.NewWebSocketHandler(sessionStore, quizHandler, cfg.AllowedOrigins)
	answerLimiter := middleware.NewRateLimiter(cfg.AnswerRateLimit, time.Second)
	defer answerLimiter.Stop()
	wsHandler.SetAnswerLimiter(answerLimiter)

	// Health check (root level for ALB)
	e.GET("/health", healthHandler.Check)

	// WebSocket endpoint
	e.GET("/ws", wsHandler.Connect)

	api := e.Group("/api")
	api.GET("/health", healthHandler.Check)

	q := api.Group("/quiz")
	q.POST("/start", quizHandler.Start)
	q.GET("/state", quizHandler.State)
	q.POST("/answer", quizHandler.Answer, answerLimiter.Middleware())
	q.POST("/advance", quizHandler.Advance)
	q.GET("/report", quizHandler.Report)
	q.POST("/reset", quizHandler.Reset)
	q.GET("/problem.png", quizHandler.ProblemImage)

	for _, r := range e.Routes() {
		log.Debug().Str("method", r.Method).Str("path", r.Path).Msg("route")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SessionExpiry > 0 {
		go purgeExpired(ctx, sessionStore, scheduler, cfg.SessionExpiry)
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Dur("time_limit", cfg.TimeLimit).
			Str("display", string(cfg.ResultDisplayMode)).
			Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// purgeExpired drops idle sessions and their timers.
func purgeExpired(ctx context.Context, store *session.SessionStore, scheduler *game.Scheduler, expiry time.Duration) {
	interval := expiry / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired := store.PurgeExpired()
			for _, p := range expired {
				scheduler.Cancel(p)
				if conn := p.Conn(); conn != nil {
					_ = conn.Close()
				}
			}
			if len(expired) > 0 {
				log.Info().Int("count", len(expired)).Int("active", store.Count()).Msg("purged expired sessions")
			}
		}
	}
}
